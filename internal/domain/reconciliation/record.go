// Package reconciliation models payments whose webhook was acknowledged but
// whose ledger or subscription effect did not complete.
package reconciliation

import (
	"errors"
	"fmt"
	"time"

	"github.com/opensox/paygate/internal/domain/shared/events"
	"github.com/opensox/paygate/internal/shared/id"
)

type Stage string

const (
	StagePaymentRecord          Stage = "payment_record"
	StageSubscriptionActivation Stage = "subscription_activation"
)

func (s Stage) IsValid() bool {
	return s == StagePaymentRecord || s == StageSubscriptionActivation
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusResolved  Status = "resolved"
	StatusAbandoned Status = "abandoned"
)

var ErrInvalidStage = errors.New("invalid reconciliation stage")

// Flag carries everything needed to replay a failed payment later.
type Flag struct {
	ProviderPaymentID string
	EventType         string
	Stage             Stage
	UserID            string
	PlanID            string
	OrderID           string
	AmountMinorUnits  int64
	Currency          string
	Error             string
	RawEvent          []byte
}

// Record is a persisted reconciliation flag. Unique per (ProviderPaymentID, Stage).
type Record struct {
	id         string
	flag       Flag
	status     Status
	attempts   int
	createdAt  time.Time
	updatedAt  time.Time
	resolvedAt *time.Time
}

func NewRecord(flag Flag, now time.Time) (*Record, error) {
	if flag.ProviderPaymentID == "" {
		return nil, fmt.Errorf("provider payment ID is required")
	}
	if !flag.Stage.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStage, flag.Stage)
	}

	now = now.UTC()
	return &Record{
		id:        id.NewWithPrefix(id.PrefixReconciliation),
		flag:      flag,
		status:    StatusPending,
		attempts:  1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructRecord reconstructs a record from persistence
func ReconstructRecord(recordID string, flag Flag, status Status, attempts int, createdAt, updatedAt time.Time, resolvedAt *time.Time) *Record {
	return &Record{
		id:         recordID,
		flag:       flag,
		status:     status,
		attempts:   attempts,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
		resolvedAt: resolvedAt,
	}
}

func (r *Record) ID() string             { return r.id }
func (r *Record) Flag() Flag             { return r.flag }
func (r *Record) Stage() Stage           { return r.flag.Stage }
func (r *Record) Status() Status         { return r.status }
func (r *Record) Attempts() int          { return r.attempts }
func (r *Record) CreatedAt() time.Time   { return r.createdAt }
func (r *Record) UpdatedAt() time.Time   { return r.updatedAt }
func (r *Record) ResolvedAt() *time.Time { return r.resolvedAt }

// RecordFailure counts a failed replay. The record is abandoned once attempts reach maxAttempts.
func (r *Record) RecordFailure(errMsg string, maxAttempts int, now time.Time) {
	r.attempts++
	r.flag.Error = errMsg
	r.updatedAt = now.UTC()
	if maxAttempts > 0 && r.attempts >= maxAttempts {
		r.status = StatusAbandoned
	}
}

// Resolve marks the flagged payment as fully applied.
func (r *Record) Resolve(now time.Time) {
	now = now.UTC()
	r.status = StatusResolved
	r.updatedAt = now
	r.resolvedAt = &now
}

const EventTypeFlagged = "reconciliation.flagged"

// FlaggedEvent is published whenever a payment is flagged for reconciliation.
type FlaggedEvent struct {
	events.BaseEvent
	ProviderPaymentID string `json:"provider_payment_id"`
	Stage             Stage  `json:"stage"`
	UserID            string `json:"user_id"`
	PlanID            string `json:"plan_id"`
	OrderID           string `json:"order_id"`
	Attempts          int    `json:"attempts"`
}

func NewFlaggedEvent(r *Record) FlaggedEvent {
	return FlaggedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: r.ID(),
			EventType:   EventTypeFlagged,
			OccurredAt:  r.UpdatedAt(),
			Version:     1,
		},
		ProviderPaymentID: r.flag.ProviderPaymentID,
		Stage:             r.flag.Stage,
		UserID:            r.flag.UserID,
		PlanID:            r.flag.PlanID,
		OrderID:           r.flag.OrderID,
		Attempts:          r.attempts,
	}
}
