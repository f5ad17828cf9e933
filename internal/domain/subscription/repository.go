package subscription

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, subscription *Subscription) error
	// Update persists s if its stored version is s.Version()-1, else ErrVersionConflict.
	Update(ctx context.Context, subscription *Subscription) error
	GetByID(ctx context.Context, id string) (*Subscription, error)
	// GetCurrentByUserID returns the active subscription with EndDate after now, or nil, nil.
	GetCurrentByUserID(ctx context.Context, userID string, now time.Time) (*Subscription, error)
	// FindExpired returns active subscriptions whose EndDate is not after now, oldest first.
	FindExpired(ctx context.Context, now time.Time, limit int) ([]*Subscription, error)

	// CreateActivation fails with a duplicate-key error when the payment was already applied.
	CreateActivation(ctx context.Context, activation *Activation) error
	// GetActivationByPaymentRecordID returns nil, nil when the payment was never applied.
	GetActivationByPaymentRecordID(ctx context.Context, paymentRecordID string) (*Activation, error)
}
