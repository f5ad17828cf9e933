package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opensox/paygate/internal/shared/biztime"
)

// RedisRateLimiter shares windows across instances. Windows are aligned to
// multiples of the rule's duration so every instance agrees on the key.
type RedisRateLimiter struct {
	client *redis.Client
	rules  Rules
	clock  biztime.Clock
	prefix string
}

func NewRedisRateLimiter(client *redis.Client, rules Rules, clock biztime.Clock) *RedisRateLimiter {
	if clock == nil {
		clock = biztime.System()
	}
	return &RedisRateLimiter{
		client: client,
		rules:  rules,
		clock:  clock,
		prefix: "paygate:ratelimit",
	}
}

func (l *RedisRateLimiter) Consume(ctx context.Context, identity, routeClass string) (Decision, error) {
	rule, ok := l.rules[routeClass]
	if !ok {
		return Decision{Allowed: true}, fmt.Errorf("%w: %s", ErrUnknownRouteClass, routeClass)
	}

	now := l.clock.Now()
	windowStart := now.Truncate(rule.Window)
	key := l.getKey(routeClass, identity, windowStart)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.PExpire(ctx, key, rule.Window+time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{Allowed: true, Limit: rule.Limit}, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	return decide(int(incr.Val()), rule, windowStart, now), nil
}

func (l *RedisRateLimiter) getKey(routeClass, identity string, windowStart time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%d", l.prefix, routeClass, identity, windowStart.UnixMilli())
}
