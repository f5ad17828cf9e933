package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opensox/paygate/internal/interfaces/http/handlers"
	"github.com/opensox/paygate/internal/interfaces/http/middleware"
	"github.com/opensox/paygate/internal/shared/constants"
)

// SystemRouteConfig holds dependencies for health and metrics routes.
type SystemRouteConfig struct {
	HealthHandler        *handlers.HealthHandler
	Gatherer             prometheus.Gatherer
	AuthMiddleware       *middleware.AuthMiddleware
	PermissionMiddleware *middleware.PermissionMiddleware
	RateLimitMiddleware  *middleware.RateLimitMiddleware
}

// SetupSystemRoutes configures health, version and metrics routes. /metrics
// needs a bearer token whose role a policy allows on GET /metrics.
func SetupSystemRoutes(engine *gin.Engine, cfg *SystemRouteConfig) {
	system := engine.Group("")
	system.Use(cfg.RateLimitMiddleware.Limit(constants.RouteClassAPI))
	{
		system.GET("/health", cfg.HealthHandler.Health)
		system.GET("/version", cfg.HealthHandler.Version)

		if cfg.Gatherer != nil {
			system.GET("/metrics",
				cfg.AuthMiddleware.RequireAuth(),
				cfg.PermissionMiddleware.RequirePolicy(),
				gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})),
			)
		}
	}
}
