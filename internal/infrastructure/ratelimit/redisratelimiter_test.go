package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensox/paygate/internal/shared/biztime"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	err := client.Ping(ctx).Err()
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	client.FlushDB(ctx)

	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})

	return client
}

func TestRedisRateLimiter_Consume(t *testing.T) {
	client := setupTestRedis(t)
	clock := biztime.NewManualClock(time.Now().UTC().Truncate(15 * time.Minute))
	limiter := NewRedisRateLimiter(client, testRules(), clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d, err := limiter.Consume(ctx, "test-key", "auth")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d should be allowed", i+1)
	}

	d, err := limiter.Consume(ctx, "test-key", "auth")
	require.NoError(t, err)
	assert.False(t, d.Allowed, "6th request should be denied")
	assert.Equal(t, 15*time.Minute, d.RetryAfter)

	clock.Advance(15 * time.Minute)
	d, err = limiter.Consume(ctx, "test-key", "auth")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Count)
}

func TestRedisRateLimiter_IdentitiesAreIndependent(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client, testRules(), nil)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, _ = limiter.Consume(ctx, "noisy-key", "auth")
	}

	d, err := limiter.Consume(ctx, "quiet-key", "auth")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Count)
}

func TestRedisRateLimiter_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	limiter := NewRedisRateLimiter(client, testRules(), nil)

	d, err := limiter.Consume(context.Background(), "k", "auth")

	assert.Error(t, err)
	assert.True(t, d.Allowed)
}
