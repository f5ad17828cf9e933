package http

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opensox/paygate/internal/domain/shared/events"
	"github.com/opensox/paygate/internal/infrastructure/config"
	"github.com/opensox/paygate/internal/infrastructure/ipguard"
	"github.com/opensox/paygate/internal/infrastructure/pubsub"
	"github.com/opensox/paygate/internal/infrastructure/ratelimit"
	"github.com/opensox/paygate/internal/infrastructure/scheduler"
	"github.com/opensox/paygate/internal/shared/biztime"
	"github.com/opensox/paygate/internal/shared/logger"
)

const (
	backendMemory = "memory"
	backendRedis  = "redis"
	backendLog    = "log"
	backendKafka  = "kafka"
)

// NeedsRedis reports whether any configured backend uses Redis.
func NeedsRedis(cfg *config.Config) bool {
	return cfg.RateLimit.Backend == backendRedis || cfg.Events.Backend == backendRedis
}

// NewRedisClient creates and tests the Redis client connection.
func NewRedisClient(cfg *config.Config, log logger.Interface) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.GetAddr(), err)
	}
	log.Infow("Redis connection established successfully", "address", cfg.Redis.GetAddr())

	return redisClient, nil
}

// NewEventPublisher selects the domain event sink from events.backend. The
// returned close function is never nil.
func NewEventPublisher(cfg *config.Config, redisClient *redis.Client, log logger.Interface) (events.Publisher, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Events.Backend {
	case "", backendLog:
		return pubsub.NewLogPublisher(log), noop, nil
	case backendRedis:
		if redisClient == nil {
			return nil, noop, fmt.Errorf("events backend %q needs a redis client", backendRedis)
		}
		return pubsub.NewRedisEventBus(redisClient, cfg.Events.RedisChannel, log), noop, nil
	case backendKafka:
		if !cfg.Kafka.Enabled() {
			return nil, noop, fmt.Errorf("events backend %q needs kafka.brokers and kafka.topic", backendKafka)
		}
		publisher := pubsub.NewKafkaPublisher(cfg.Kafka, log)
		return publisher, publisher.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown events backend %q", cfg.Events.Backend)
	}
}

// newAdmissionGuard builds the in-process ban table from config.
func newAdmissionGuard(cfg *config.Config) *ipguard.Guard {
	return ipguard.New(ipguard.Config{
		Threshold:       cfg.Guard.Threshold,
		BaseBan:         cfg.Guard.BaseBan,
		MaxBan:          cfg.Guard.MaxBan,
		ViolationWindow: cfg.Guard.ViolationWindow,
		Shards:          cfg.Guard.Shards,
	}, biztime.System())
}

// newRateLimiter returns the configured limiter and, for the in-process
// backend, a pruner for expired windows.
func newRateLimiter(cfg *config.Config, redisClient *redis.Client) (ratelimit.RateLimiter, scheduler.Pruner, error) {
	rules := ratelimit.RulesFromConfig(cfg.RateLimit)

	switch cfg.RateLimit.Backend {
	case "", backendMemory:
		limiter := ratelimit.NewMemoryRateLimiter(rules, biztime.System(), cfg.Guard.Shards)
		return limiter, limiter, nil
	case backendRedis:
		if redisClient == nil {
			return nil, nil, fmt.Errorf("ratelimit backend %q needs a redis client", backendRedis)
		}
		return ratelimit.NewRedisRateLimiter(redisClient, rules, biztime.System()), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown ratelimit backend %q", cfg.RateLimit.Backend)
	}
}
