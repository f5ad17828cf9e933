package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/opensox/paygate/internal/application/auth"
	"github.com/opensox/paygate/internal/shared/constants"
	"github.com/opensox/paygate/internal/shared/logger"
	"github.com/opensox/paygate/internal/shared/utils"
)

// Authenticator resolves a bearer credential to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, bearerToken string) (*auth.Identity, error)
}

type AuthMiddleware struct {
	authenticator Authenticator
	logger        logger.Interface
}

func NewAuthMiddleware(authenticator Authenticator, logger logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
		logger:        logger,
	}
}

// RequireAuth rejects requests without a valid "Authorization: Bearer" token
// and stores the caller's user id and role in the gin context. Every rejection
// counts as a violation against the client address.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := m.authenticator.Authenticate(c.Request.Context(), c.GetHeader(constants.HeaderAuthorization))
		if err != nil {
			m.logger.Debugw("request rejected by authenticator",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP(),
			)
			MarkViolation(c)
			utils.ErrorResponseWithError(c, err)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, identity.UserID)
		c.Set(constants.ContextKeyUserRole, identity.Role)

		c.Next()
	}
}
