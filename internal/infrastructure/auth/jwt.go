package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/opensox/paygate/internal/shared/biztime"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the user id in the standard subject claim.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTService signs and verifies HS256 bearer tokens.
type JWTService struct {
	secret []byte
	issuer string
	clock  biztime.Clock
}

func NewJWTService(secret, issuer string, clock biztime.Clock) *JWTService {
	if clock == nil {
		clock = biztime.System()
	}
	return &JWTService{
		secret: []byte(secret),
		issuer: issuer,
		clock:  clock,
	}
}

// Generate issues a token for userID valid for ttl.
func (s *JWTService) Generate(userID, role string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("jwt secret is not configured")
	}
	now := s.clock.Now()

	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyCredential validates tokenString and returns its subject and role.
func (s *JWTService) VerifyCredential(_ context.Context, tokenString string) (string, string, error) {
	if len(s.secret) == 0 {
		return "", "", fmt.Errorf("%w: jwt secret is not configured", ErrInvalidToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", "", fmt.Errorf("%w: subject is empty", ErrInvalidToken)
	}

	return claims.Subject, claims.Role, nil
}
