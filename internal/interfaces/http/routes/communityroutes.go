package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/opensox/paygate/internal/interfaces/http/handlers"
	"github.com/opensox/paygate/internal/interfaces/http/middleware"
	"github.com/opensox/paygate/internal/shared/constants"
)

// CommunityRouteConfig holds dependencies for subscriber-only routes.
type CommunityRouteConfig struct {
	CommunityHandler    *handlers.CommunityHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
	MaxBodyBytes        int64
}

// SetupCommunityRoutes configures subscriber-only routes.
func SetupCommunityRoutes(engine *gin.Engine, cfg *CommunityRouteConfig) {
	engine.GET("/join-community",
		middleware.BodyLimit(cfg.MaxBodyBytes),
		cfg.RateLimitMiddleware.Limit(constants.RouteClassAPI),
		cfg.AuthMiddleware.RequireAuth(),
		cfg.CommunityHandler.Join,
	)
}
