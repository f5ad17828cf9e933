package reconciliation

import "context"

type Repository interface {
	// Flag inserts r, or increments Attempts and refreshes Error on the existing
	// (ProviderPaymentID, Stage) row. It returns the stored record.
	Flag(ctx context.Context, r *Record) (*Record, error)
	// ListPending returns pending records oldest first.
	ListPending(ctx context.Context, limit int) ([]*Record, error)
	Update(ctx context.Context, r *Record) error
	CountByStatus(ctx context.Context, status Status) (int64, error)
}
