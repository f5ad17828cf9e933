// Package id generates sortable, prefixed identifiers for persisted records.
package id

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Prefixes for different entity types (Stripe-style)
const (
	PrefixPayment        = "pay"
	PrefixSubscription   = "sub"
	PrefixReconciliation = "rec"
	PrefixActivation     = "act"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// New returns a lowercase ULID. IDs generated in the same millisecond sort in creation order.
func New() string {
	return NewAt(time.Now())
}

// NewAt returns a ULID whose timestamp component is t.
func NewAt(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(t), entropy).String())
}

// NewWithPrefix creates a prefixed ID in the format "prefix_ulid".
func NewWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, New())
}

// HasPrefix reports whether id carries the given entity prefix.
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"_")
}

// Timestamp extracts the creation time embedded in a prefixed or bare ID.
func Timestamp(id string) (time.Time, error) {
	raw := id
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		raw = id[i+1:]
	}
	parsed, err := ulid.ParseStrict(strings.ToUpper(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid id %q: %w", id, err)
	}
	return ulid.Time(parsed.Time()), nil
}
