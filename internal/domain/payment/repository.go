package payment

import "context"

// Repository persists payment records. Create must fail with a duplicate-key
// error when ProviderPaymentID already exists.
type Repository interface {
	Create(ctx context.Context, record *Record) error
	// GetByProviderPaymentID returns nil, nil when no record exists.
	GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*Record, error)
}
