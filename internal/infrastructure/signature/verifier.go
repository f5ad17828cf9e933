// Package signature authenticates webhook bodies with HMAC-SHA256.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Reason explains why a signature check failed.
type Reason string

const (
	ReasonValid            Reason = ""
	ReasonMisconfigured    Reason = "secret_not_configured"
	ReasonMissingSignature Reason = "missing_signature"
	ReasonMalformed        Reason = "malformed_signature"
	ReasonMismatch         Reason = "signature_mismatch"
)

// Verify reports whether supplied is the hex HMAC-SHA256 of rawBody under secret.
// rawBody must be the exact bytes received; re-encoded JSON will not verify.
func Verify(rawBody []byte, supplied, secret string) bool {
	return check(rawBody, supplied, secret) == ReasonValid
}

// Sign returns the lowercase hex HMAC-SHA256 of rawBody. Used by tests and
// operators replaying deliveries.
func Sign(rawBody []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verifier binds a secret so handlers never see it.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Configured reports whether a secret is set.
func (v *Verifier) Configured() bool {
	return v.secret != ""
}

// Check verifies rawBody and returns the failure reason, or ReasonValid.
func (v *Verifier) Check(rawBody []byte, supplied string) Reason {
	return check(rawBody, supplied, v.secret)
}

func check(rawBody []byte, supplied, secret string) Reason {
	if secret == "" {
		return ReasonMisconfigured
	}
	supplied = strings.TrimSpace(supplied)
	if supplied == "" {
		return ReasonMissingSignature
	}

	got, err := hex.DecodeString(supplied)
	if err != nil || len(got) != sha256.Size {
		return ReasonMalformed
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ReasonMismatch
	}
	return ReasonValid
}
