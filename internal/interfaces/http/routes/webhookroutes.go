package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/opensox/paygate/internal/interfaces/http/handlers"
	"github.com/opensox/paygate/internal/interfaces/http/middleware"
	"github.com/opensox/paygate/internal/shared/constants"
)

// WebhookRouteConfig holds dependencies for payment provider webhooks.
type WebhookRouteConfig struct {
	WebhookHandler      *handlers.WebhookHandler
	RateLimitMiddleware *middleware.RateLimitMiddleware
}

// SetupWebhookRoutes configures webhook routes. The body is read raw by the
// handler under its own cap, so the generic body limit is not applied here.
func SetupWebhookRoutes(engine *gin.Engine, cfg *WebhookRouteConfig) {
	webhooks := engine.Group("/webhook")
	webhooks.Use(cfg.RateLimitMiddleware.Limit(constants.RouteClassAPI))
	{
		webhooks.POST("/razorpay", cfg.WebhookHandler.HandleRazorpay)
	}
}
