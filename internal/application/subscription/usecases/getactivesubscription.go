package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/opensox/paygate/internal/domain/subscription"
	"github.com/opensox/paygate/internal/shared/biztime"
	"github.com/opensox/paygate/internal/shared/db"
	apperrors "github.com/opensox/paygate/internal/shared/errors"
	"github.com/opensox/paygate/internal/shared/logger"
)

// GetActiveSubscriptionUseCase answers whether a user is entitled right now.
type GetActiveSubscriptionUseCase struct {
	subscriptionRepo subscription.Repository
	clock            biztime.Clock
	storageTimeout   time.Duration
	logger           logger.Interface
}

func NewGetActiveSubscriptionUseCase(
	subscriptionRepo subscription.Repository,
	logger logger.Interface,
) *GetActiveSubscriptionUseCase {
	return &GetActiveSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		clock:            biztime.System(),
		storageTimeout:   defaultStorageTimeout,
		logger:           logger,
	}
}

func (uc *GetActiveSubscriptionUseCase) SetClock(clock biztime.Clock) {
	uc.clock = clock
}

func (uc *GetActiveSubscriptionUseCase) SetStorageTimeout(d time.Duration) {
	uc.storageTimeout = d
}

// Execute returns the user's current subscription, or nil when there is none.
func (uc *GetActiveSubscriptionUseCase) Execute(ctx context.Context, userID string) (*subscription.Subscription, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user ID is required")
	}

	readCtx, cancel := db.WithStorageTimeout(ctx, uc.storageTimeout)
	defer cancel()

	now := uc.clock.Now()
	sub, err := uc.subscriptionRepo.GetCurrentByUserID(readCtx, userID, now)
	if err != nil {
		uc.logger.Errorw("failed to load active subscription", "user_id", userID, "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewInfrastructureError("subscription storage timed out", err)
		}
		return nil, apperrors.NewInfrastructureError("subscription storage unavailable", err)
	}
	if sub == nil || !sub.IsCurrent(now) {
		return nil, nil
	}
	return sub, nil
}
