package routes

import (
	"github.com/gin-gonic/gin"

	adminHandlers "github.com/opensox/paygate/internal/interfaces/http/handlers/admin"
	"github.com/opensox/paygate/internal/interfaces/http/middleware"
	"github.com/opensox/paygate/internal/shared/constants"
)

// AdminRouteConfig holds dependencies for admin-only routes.
type AdminRouteConfig struct {
	BlockedIPsHandler    *adminHandlers.BlockedIPsHandler
	AuthMiddleware       *middleware.AuthMiddleware
	PermissionMiddleware *middleware.PermissionMiddleware
	RateLimitMiddleware  *middleware.RateLimitMiddleware
	MaxBodyBytes         int64
}

// SetupAdminRoutes configures admin-only routes. Access is decided by the
// configured role/path/method policies.
func SetupAdminRoutes(engine *gin.Engine, cfg *AdminRouteConfig) {
	admin := engine.Group("/admin")
	admin.Use(
		middleware.BodyLimit(cfg.MaxBodyBytes),
		cfg.RateLimitMiddleware.Limit(constants.RouteClassAuth),
		cfg.AuthMiddleware.RequireAuth(),
		cfg.PermissionMiddleware.RequirePolicy(),
	)
	{
		admin.GET("/blocked-ips", cfg.BlockedIPsHandler.List)
	}
}
