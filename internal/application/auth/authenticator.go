// Package auth turns bearer credentials into an authenticated identity.
package auth

import (
	"context"
	"strings"

	apperrors "github.com/opensox/paygate/internal/shared/errors"
	"github.com/opensox/paygate/internal/shared/logger"
	"github.com/opensox/paygate/internal/shared/utils"
)

// ErrUnauthorized is returned for every credential failure. Callers cannot
// tell a missing token from a forged one.
var ErrUnauthorized = apperrors.NewUnauthorizedError("Unauthorized access")

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Role   string
}

// CredentialVerifier validates a raw token with the identity provider.
type CredentialVerifier interface {
	VerifyCredential(ctx context.Context, token string) (userID, role string, err error)
}

type Authenticator struct {
	verifier CredentialVerifier
	logger   logger.Interface
}

func NewAuthenticator(verifier CredentialVerifier, logger logger.Interface) *Authenticator {
	return &Authenticator{
		verifier: verifier,
		logger:   logger,
	}
}

// Authenticate accepts an "Authorization" header value.
func (a *Authenticator) Authenticate(ctx context.Context, bearerToken string) (*Identity, error) {
	token := ExtractBearer(bearerToken)
	if token == "" {
		return nil, ErrUnauthorized
	}

	userID, role, err := a.verifier.VerifyCredential(ctx, token)
	if err != nil {
		a.logger.Debugw("credential rejected",
			"token", utils.MaskToken(token, 6),
			"error", err,
		)
		return nil, ErrUnauthorized
	}
	if userID == "" {
		return nil, ErrUnauthorized
	}

	return &Identity{UserID: userID, Role: role}, nil
}

// ExtractBearer returns the token of a case-insensitive "Bearer <token>"
// header, or "" for any other shape.
func ExtractBearer(header string) string {
	header = strings.TrimSpace(header)
	const scheme = "bearer "
	if len(header) < len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return ""
	}
	token := strings.TrimSpace(header[len(scheme):])
	if strings.ContainsAny(token, " \t") {
		return ""
	}
	return token
}
