package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/opensox/paygate/internal/domain/shared/events"
	"github.com/opensox/paygate/internal/shared/logger"
)

// DefaultChannel carries every domain event published by paygate.
const DefaultChannel = "paygate:events"

// Envelope is the wire form of a domain event.
type Envelope struct {
	EventType   string          `json:"event_type"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  int64           `json:"occurred_at"`
	Version     int             `json:"version"`
	Payload     json.RawMessage `json:"payload"`
}

// NewEnvelope serializes event into its wire envelope.
func NewEnvelope(event events.DomainEvent) (Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return Envelope{
		EventType:   event.GetEventType(),
		AggregateID: event.GetAggregateID(),
		OccurredAt:  event.GetOccurredAt().UnixMilli(),
		Version:     event.GetVersion(),
		Payload:     payload,
	}, nil
}

// RedisEventBus publishes domain events over Redis Pub/Sub. Consumers
// subscribe to the channel directly.
type RedisEventBus struct {
	client  *redis.Client
	channel string
	logger  logger.Interface
}

// NewRedisEventBus creates a new Redis-based event bus. An empty channel uses DefaultChannel.
func NewRedisEventBus(client *redis.Client, channel string, logger logger.Interface) *RedisEventBus {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisEventBus{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

func (b *RedisEventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	env, err := NewEnvelope(event)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Errorw("failed to publish domain event",
			"event_type", env.EventType,
			"aggregate_id", env.AggregateID,
			"error", err,
		)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debugw("domain event published",
		"event_type", env.EventType,
		"aggregate_id", env.AggregateID,
	)
	return nil
}
