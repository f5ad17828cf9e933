package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensox/paygate/internal/shared/biztime"
	sharedConfig "github.com/opensox/paygate/internal/shared/config"
)

var t0 = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func testRules() Rules {
	return Rules{
		"auth": {Limit: 5, Window: 15 * time.Minute},
		"api":  {Limit: 100, Window: 15 * time.Minute},
	}
}

func TestMemoryRateLimiter_DeniesOverLimit(t *testing.T) {
	clock := biztime.NewManualClock(t0)
	l := NewMemoryRateLimiter(testRules(), clock, 4)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d, err := l.Consume(ctx, "203.0.113.1", "auth")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5-(i+1), d.Remaining())
	}

	clock.Advance(5 * time.Minute)
	d, err := l.Consume(ctx, "203.0.113.1", "auth")
	require.NoError(t, err)
	assert.False(t, d.Allowed, "6th request should be denied")
	assert.Equal(t, 10*time.Minute, d.RetryAfter)
}

func TestMemoryRateLimiter_NewWindowResetsCountToOne(t *testing.T) {
	clock := biztime.NewManualClock(t0)
	l := NewMemoryRateLimiter(testRules(), clock, 4)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, _ = l.Consume(ctx, "user_1", "auth")
	}

	clock.Advance(15 * time.Minute)
	d, err := l.Consume(ctx, "user_1", "auth")
	require.NoError(t, err)

	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Count)
	assert.Equal(t, t0.Add(30*time.Minute), d.ResetAt)
}

func TestMemoryRateLimiter_ClassesAndIdentitiesIndependent(t *testing.T) {
	clock := biztime.NewManualClock(t0)
	l := NewMemoryRateLimiter(testRules(), clock, 4)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, _ = l.Consume(ctx, "a", "auth")
	}

	d, _ := l.Consume(ctx, "a", "api")
	assert.True(t, d.Allowed)
	d, _ = l.Consume(ctx, "b", "auth")
	assert.True(t, d.Allowed)
}

func TestMemoryRateLimiter_UnknownClass(t *testing.T) {
	l := NewMemoryRateLimiter(testRules(), nil, 4)

	d, err := l.Consume(context.Background(), "a", "admin")

	assert.ErrorIs(t, err, ErrUnknownRouteClass)
	assert.True(t, d.Allowed)
}

func TestMemoryRateLimiter_Concurrent(t *testing.T) {
	l := NewMemoryRateLimiter(Rules{"api": {Limit: 50, Window: time.Minute}}, biztime.NewManualClock(t0), 4)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, _ := l.Consume(ctx, "hot", "api")
			if d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}

func TestMemoryRateLimiter_Prune(t *testing.T) {
	clock := biztime.NewManualClock(t0)
	l := NewMemoryRateLimiter(testRules(), clock, 4)
	ctx := context.Background()

	_, _ = l.Consume(ctx, "a", "auth")
	clock.Advance(10 * time.Minute)
	_, _ = l.Consume(ctx, "b", "auth")
	clock.Advance(6 * time.Minute)

	assert.Equal(t, 1, l.Prune())
}

func TestRulesFromConfig_Defaults(t *testing.T) {
	rules := RulesFromConfig(sharedConfig.RateLimitConfig{})

	assert.Equal(t, Rule{Limit: 5, Window: 15 * time.Minute}, rules["auth"])
	assert.Equal(t, Rule{Limit: 100, Window: 15 * time.Minute}, rules["api"])
}
