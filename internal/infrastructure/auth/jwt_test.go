package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensox/paygate/internal/shared/biztime"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", "paygate", nil)

	token, err := svc.Generate("user_1", "admin", time.Hour)
	require.NoError(t, err)

	userID, role, err := svc.VerifyCredential(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user_1", userID)
	assert.Equal(t, "admin", role)
}

func TestJWTService_Rejects(t *testing.T) {
	clock := biztime.NewManualClock(time.Now())
	svc := NewJWTService("secret", "paygate", clock)
	ctx := context.Background()

	valid, err := svc.Generate("user_1", "", time.Minute)
	require.NoError(t, err)

	otherSecret, err := NewJWTService("other", "paygate", clock).Generate("user_1", "", time.Minute)
	require.NoError(t, err)

	otherIssuer, err := NewJWTService("secret", "someone-else", clock).Generate("user_1", "", time.Minute)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user_1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"wrong secret", otherSecret},
		{"wrong issuer", otherIssuer},
		{"alg none", noneAlg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.VerifyCredential(ctx, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	t.Run("expired", func(t *testing.T) {
		clock.Advance(2 * time.Minute)
		_, _, err := svc.VerifyCredential(ctx, valid)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestJWTService_NoSecret(t *testing.T) {
	svc := NewJWTService("", "", nil)

	_, err := svc.Generate("user_1", "", time.Minute)
	assert.Error(t, err)

	_, _, err = svc.VerifyCredential(context.Background(), "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
