package http

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/opensox/paygate/internal/infrastructure/config"
	"github.com/opensox/paygate/internal/infrastructure/ratelimit"
	"github.com/opensox/paygate/internal/interfaces/http/handlers"
	adminHandlers "github.com/opensox/paygate/internal/interfaces/http/handlers/admin"
	"github.com/opensox/paygate/internal/interfaces/http/middleware"
	"github.com/opensox/paygate/internal/interfaces/http/routes"
	"github.com/opensox/paygate/internal/shared/logger"
)

// AdmissionGuard is the guard as seen by both the middleware and the admin listing.
type AdmissionGuard interface {
	middleware.AdmissionGuard
	adminHandlers.BanLister
}

// RouterDeps carries everything the router needs. Stores are passed in so
// tests can build a router around fresh, isolated tables.
type RouterDeps struct {
	Config        *config.Config
	Logger        logger.Interface
	Guard         AdmissionGuard
	Limiter       ratelimit.RateLimiter
	Authenticator middleware.Authenticator
	Enforcer      middleware.PolicyEnforcer
	Webhook       handlers.WebhookProcessor
	JoinCommunity handlers.CommunityJoiner
	DB            handlers.Pinger      // Optional
	Gatherer      prometheus.Gatherer // Optional
}

// Router represents the HTTP router configuration
type Router struct {
	engine *gin.Engine
	cfg    *config.Config
	log    logger.Interface

	guardMiddleware      *middleware.IPGuardMiddleware
	rateLimitMiddleware  *middleware.RateLimitMiddleware
	authMiddleware       *middleware.AuthMiddleware
	permissionMiddleware *middleware.PermissionMiddleware

	webhookHandler    *handlers.WebhookHandler
	communityHandler  *handlers.CommunityHandler
	healthHandler     *handlers.HealthHandler
	blockedIPsHandler *adminHandlers.BlockedIPsHandler

	gatherer prometheus.Gatherer
}

// NewRouter creates a new HTTP router with all dependencies
func NewRouter(deps RouterDeps) (*Router, error) {
	cfg := deps.Config
	log := deps.Logger

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	return &Router{
		engine: engine,
		cfg:    cfg,
		log:    log,

		guardMiddleware:      middleware.NewIPGuardMiddleware(deps.Guard, log),
		rateLimitMiddleware:  middleware.NewRateLimitMiddleware(deps.Limiter, cfg.RateLimit.ReportDenialsAsViolations, log),
		authMiddleware:       middleware.NewAuthMiddleware(deps.Authenticator, log),
		permissionMiddleware: middleware.NewPermissionMiddleware(deps.Enforcer, log),

		webhookHandler:    handlers.NewWebhookHandler(deps.Webhook, cfg.Webhook.SignatureHeader, cfg.Webhook.MaxBodyBytes, log),
		communityHandler:  handlers.NewCommunityHandler(deps.JoinCommunity, log),
		healthHandler:     handlers.NewHealthHandler(deps.DB, log),
		blockedIPsHandler: adminHandlers.NewBlockedIPsHandler(deps.Guard, log),

		gatherer: deps.Gatherer,
	}, nil
}

// SetupRoutes configures all HTTP routes. The admission guard runs before
// anything that could consume budget or reach a handler.
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.Recovery(r.log))
	r.engine.Use(middleware.Logger(r.log))
	r.engine.Use(r.guardMiddleware.Guard())
	r.engine.Use(middleware.SecurityHeaders())
	r.engine.Use(middleware.CORS(r.cfg.Server.AllowedOrigins))

	routes.SetupSystemRoutes(r.engine, &routes.SystemRouteConfig{
		HealthHandler:        r.healthHandler,
		Gatherer:             r.gatherer,
		AuthMiddleware:       r.authMiddleware,
		PermissionMiddleware: r.permissionMiddleware,
		RateLimitMiddleware:  r.rateLimitMiddleware,
	})

	routes.SetupWebhookRoutes(r.engine, &routes.WebhookRouteConfig{
		WebhookHandler:      r.webhookHandler,
		RateLimitMiddleware: r.rateLimitMiddleware,
	})

	routes.SetupCommunityRoutes(r.engine, &routes.CommunityRouteConfig{
		CommunityHandler:    r.communityHandler,
		AuthMiddleware:      r.authMiddleware,
		RateLimitMiddleware: r.rateLimitMiddleware,
		MaxBodyBytes:        r.cfg.Server.MaxBodyBytes,
	})

	routes.SetupAdminRoutes(r.engine, &routes.AdminRouteConfig{
		BlockedIPsHandler:    r.blockedIPsHandler,
		AuthMiddleware:       r.authMiddleware,
		PermissionMiddleware: r.permissionMiddleware,
		RateLimitMiddleware:  r.rateLimitMiddleware,
		MaxBodyBytes:         r.cfg.Server.MaxBodyBytes,
	})
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
