package subscription

import (
	"time"

	"github.com/opensox/paygate/internal/domain/shared/events"
	vo "github.com/opensox/paygate/internal/domain/subscription/valueobjects"
)

const EventTypeActivated = "subscription.activated"

// ActivatedEvent is published after an activation transaction commits.
type ActivatedEvent struct {
	events.BaseEvent
	UserID          string            `json:"user_id"`
	PlanID          string            `json:"plan_id"`
	PaymentRecordID string            `json:"payment_record_id"`
	Kind            vo.ActivationKind `json:"kind"`
	EndDate         time.Time         `json:"end_date"`
}

func NewActivatedEvent(s *Subscription, a *Activation) ActivatedEvent {
	return ActivatedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: s.ID(),
			EventType:   EventTypeActivated,
			OccurredAt:  a.CreatedAt,
			Version:     1,
		},
		UserID:          s.UserID(),
		PlanID:          s.PlanID(),
		PaymentRecordID: a.PaymentRecordID,
		Kind:            a.Kind,
		EndDate:         s.EndDate(),
	}
}
