package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/opensox/paygate/internal/infrastructure/metrics"
	"github.com/opensox/paygate/internal/infrastructure/ratelimit"
	"github.com/opensox/paygate/internal/shared/constants"
	"github.com/opensox/paygate/internal/shared/logger"
	"github.com/opensox/paygate/internal/shared/utils"
)

// RateLimitMiddleware applies fixed-window budgets per route class. The
// identity is the authenticated user when auth ran earlier in the chain,
// otherwise the client IP.
type RateLimitMiddleware struct {
	limiter          ratelimit.RateLimiter
	reportViolations bool
	logger           logger.Interface
}

func NewRateLimitMiddleware(limiter ratelimit.RateLimiter, reportViolations bool, logger logger.Interface) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter:          limiter,
		reportViolations: reportViolations,
		logger:           logger,
	}
}

// Limit returns a Gin middleware that enforces the budget of routeClass.
func (m *RateLimitMiddleware) Limit(routeClass string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := requestIdentity(c)

		decision, err := m.limiter.Consume(c.Request.Context(), identity, routeClass)
		if err != nil {
			// Backend failures fail open.
			metrics.RateLimitDecisionsTotal.WithLabelValues(routeClass, "error").Inc()
			m.logger.Errorw("rate limiter unavailable, allowing request",
				"route_class", routeClass,
				"identity", identity,
				"error", err,
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining()))

		if !decision.Allowed {
			metrics.RateLimitDecisionsTotal.WithLabelValues(routeClass, "denied").Inc()
			m.logger.Warnw("rate limit exceeded",
				"route_class", routeClass,
				"identity", identity,
				"count", decision.Count,
				"retry_after", decision.RetryAfter,
			)
			if m.reportViolations {
				MarkViolation(c)
			}
			utils.AbortWithRetryAfter(c, http.StatusTooManyRequests, decision.RetryAfter, constants.ErrMsgTooManyRequests)
			return
		}

		metrics.RateLimitDecisionsTotal.WithLabelValues(routeClass, "allowed").Inc()
		c.Next()
	}
}

func requestIdentity(c *gin.Context) string {
	if userID := c.GetString(constants.ContextKeyUserID); userID != "" {
		return "user:" + userID
	}
	return "ip:" + utils.NormalizeIP(c.ClientIP())
}
