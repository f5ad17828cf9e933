package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opensox/paygate/internal/infrastructure/ipguard"
	"github.com/opensox/paygate/internal/infrastructure/metrics"
	"github.com/opensox/paygate/internal/shared/constants"
	"github.com/opensox/paygate/internal/shared/logger"
	"github.com/opensox/paygate/internal/shared/utils"
)

// AdmissionGuard decides whether an address may reach the application.
type AdmissionGuard interface {
	Admit(address string, isViolation bool) ipguard.Decision
}

// IPGuardMiddleware must be the first middleware on every route. A banned
// address gets 403 with Retry-After before anything else runs.
type IPGuardMiddleware struct {
	guard  AdmissionGuard
	logger logger.Interface
}

func NewIPGuardMiddleware(guard AdmissionGuard, logger logger.Interface) *IPGuardMiddleware {
	return &IPGuardMiddleware{
		guard:  guard,
		logger: logger,
	}
}

func (m *IPGuardMiddleware) Guard() gin.HandlerFunc {
	return func(c *gin.Context) {
		address := utils.NormalizeIP(c.ClientIP())

		decision := m.guard.Admit(address, false)
		if !decision.Allowed {
			metrics.GuardDecisionsTotal.WithLabelValues("blocked").Inc()
			m.logger.Warnw("request from banned address blocked",
				"client_ip", address,
				"path", c.Request.URL.Path,
				"retry_after", decision.RetryAfter,
			)
			utils.AbortWithRetryAfter(c, http.StatusForbidden, decision.RetryAfter, constants.ErrMsgBlocked)
			return
		}
		metrics.GuardDecisionsTotal.WithLabelValues("allowed").Inc()

		c.Next()

		if !c.GetBool(constants.ContextKeyViolation) {
			return
		}

		after := m.guard.Admit(address, true)
		metrics.GuardDecisionsTotal.WithLabelValues("violation").Inc()
		if !after.Allowed {
			metrics.GuardDecisionsTotal.WithLabelValues("banned").Inc()
			m.logger.Warnw("address banned after repeated violations",
				"client_ip", address,
				"path", c.Request.URL.Path,
				"ban_duration", after.RetryAfter,
			)
		}
	}
}

// MarkViolation asks the guard middleware to count this request against its
// source address once the handler returns.
func MarkViolation(c *gin.Context) {
	c.Set(constants.ContextKeyViolation, true)
}
