package pubsub

import (
	"context"

	"github.com/opensox/paygate/internal/domain/shared/events"
	"github.com/opensox/paygate/internal/shared/logger"
)

// LogPublisher writes domain events to the structured log. It is the default
// backend when no broker is configured.
type LogPublisher struct {
	logger logger.Interface
}

func NewLogPublisher(logger logger.Interface) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event events.DomainEvent) error {
	p.logger.Infow("domain event",
		"event_type", event.GetEventType(),
		"aggregate_id", event.GetAggregateID(),
		"occurred_at", event.GetOccurredAt(),
	)
	return nil
}
