package http

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	appAuth "github.com/opensox/paygate/internal/application/auth"
	"github.com/opensox/paygate/internal/infrastructure/auth"
	"github.com/opensox/paygate/internal/infrastructure/config"
	"github.com/opensox/paygate/internal/infrastructure/ipguard"
	"github.com/opensox/paygate/internal/infrastructure/metrics"
	"github.com/opensox/paygate/internal/infrastructure/permission"
	"github.com/opensox/paygate/internal/infrastructure/scheduler"
	"github.com/opensox/paygate/internal/shared/biztime"
	"github.com/opensox/paygate/internal/shared/logger"
)

// Container holds the server's infrastructure, use cases and router, and
// releases them in Shutdown.
type Container struct {
	db    *gorm.DB
	cfg   *config.Config
	log   logger.Interface
	redis *redis.Client

	guard         *ipguard.Guard
	limiterPruner scheduler.Pruner

	ucs    *UseCases
	router *Router

	closePublisher func() error
}

// NewContainer creates a new Container with all dependencies wired together.
func NewContainer(gdb *gorm.DB, cfg *config.Config, log logger.Interface) (*Container, error) {
	c := &Container{
		db:             gdb,
		cfg:            cfg,
		log:            log,
		closePublisher: func() error { return nil },
	}

	if err := c.init(); err != nil {
		c.Shutdown()
		return nil, err
	}
	return c, nil
}

func (c *Container) init() error {
	cfg := c.cfg

	if NeedsRedis(cfg) {
		client, err := NewRedisClient(cfg, c.log)
		if err != nil {
			return err
		}
		c.redis = client
	}

	publisher, closePublisher, err := NewEventPublisher(cfg, c.redis, c.log)
	if err != nil {
		return err
	}
	c.closePublisher = closePublisher

	ucs, err := NewUseCases(c.db, cfg, publisher, c.log)
	if err != nil {
		return err
	}
	c.ucs = ucs

	c.guard = newAdmissionGuard(cfg)

	limiter, limiterPruner, err := newRateLimiter(cfg, c.redis)
	if err != nil {
		return err
	}
	c.limiterPruner = limiterPruner

	if cfg.Auth.JWT.Secret == "" {
		c.log.Warnw("auth.jwt.secret is empty, every bearer token will be rejected")
	}
	jwtService := auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer, biztime.System())
	authenticator := appAuth.NewAuthenticator(jwtService, c.log)

	enforcer, err := permission.NewEnforcer(cfg.Admin.Policies, c.log)
	if err != nil {
		return fmt.Errorf("failed to load admin policies: %w", err)
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	router, err := NewRouter(RouterDeps{
		Config:        cfg,
		Logger:        c.log,
		Guard:         c.guard,
		Limiter:       limiter,
		Authenticator: authenticator,
		Enforcer:      enforcer,
		Webhook:       ucs.HandleWebhook,
		JoinCommunity: ucs.JoinCommunity,
		DB:            sqlDB,
		Gatherer:      prometheus.DefaultGatherer,
	})
	if err != nil {
		return err
	}
	router.SetupRoutes()
	c.router = router

	return nil
}

// Engine returns the configured gin engine.
func (c *Container) Engine() *gin.Engine {
	return c.router.GetEngine()
}

// UseCases exposes the wired use cases.
func (c *Container) UseCases() *UseCases {
	return c.ucs
}

// Pruners returns the in-process tables that need periodic cleanup.
func (c *Container) Pruners() []scheduler.NamedPruner {
	pruners := []scheduler.NamedPruner{{Name: "ip_guard", Pruner: c.guard}}
	if c.limiterPruner != nil {
		pruners = append(pruners, scheduler.NamedPruner{Name: "rate_limiter", Pruner: c.limiterPruner})
	}
	return pruners
}

// Shutdown releases connections owned by the container. The database handle
// belongs to the caller.
func (c *Container) Shutdown() {
	if err := c.closePublisher(); err != nil {
		c.log.Errorw("failed to close event publisher", "error", err)
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.log.Errorw("failed to close redis client", "error", err)
		}
	}
}
