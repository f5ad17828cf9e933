package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/opensox/paygate/internal/domain/shared/events"
	"github.com/opensox/paygate/internal/shared/config"
	"github.com/opensox/paygate/internal/shared/logger"
)

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes domain events to a Kafka topic, keyed by aggregate id
// so events for one subscription stay ordered within a partition.
type KafkaPublisher struct {
	w      messageWriter
	topic  string
	logger logger.Interface
}

func NewKafkaPublisher(cfg config.KafkaConfig, logger logger.Interface) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaPublisher{w: w, topic: cfg.Topic, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	env, err := NewEnvelope(event)
	if err != nil {
		return err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(env.AggregateID),
		Value: value,
		Time:  event.GetOccurredAt(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		p.logger.Errorw("failed to write domain event to kafka",
			"topic", p.topic,
			"event_type", env.EventType,
			"aggregate_id", env.AggregateID,
			"error", err,
		)
		return fmt.Errorf("failed to write kafka message: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
