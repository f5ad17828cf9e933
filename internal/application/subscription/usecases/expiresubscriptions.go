package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opensox/paygate/internal/domain/subscription"
	"github.com/opensox/paygate/internal/shared/biztime"
	"github.com/opensox/paygate/internal/shared/logger"
	"github.com/opensox/paygate/internal/shared/shardlock"
)

const defaultExpireBatchSize = 500

// ExpireSubscriptionsUseCase handles marking expired subscriptions.
// Entitlement checks already compare EndDate with the clock; this job keeps
// stored statuses consistent.
type ExpireSubscriptionsUseCase struct {
	subscriptionRepo subscription.Repository
	locks            *shardlock.Set // Optional
	clock            biztime.Clock
	batchSize        int
	logger           logger.Interface
}

// NewExpireSubscriptionsUseCase creates a new ExpireSubscriptionsUseCase
func NewExpireSubscriptionsUseCase(
	subscriptionRepo subscription.Repository,
	logger logger.Interface,
) *ExpireSubscriptionsUseCase {
	return &ExpireSubscriptionsUseCase{
		subscriptionRepo: subscriptionRepo,
		clock:            biztime.System(),
		batchSize:        defaultExpireBatchSize,
		logger:           logger,
	}
}

// SetLocks shares the activator's per-user locks when both run in one process.
func (uc *ExpireSubscriptionsUseCase) SetLocks(locks *shardlock.Set) {
	uc.locks = locks
}

func (uc *ExpireSubscriptionsUseCase) SetClock(clock biztime.Clock) {
	uc.clock = clock
}

func (uc *ExpireSubscriptionsUseCase) SetBatchSize(n int) {
	if n > 0 {
		uc.batchSize = n
	}
}

// Execute finds and marks expired subscriptions.
// Returns the number of subscriptions marked as expired.
func (uc *ExpireSubscriptionsUseCase) Execute(ctx context.Context) (int, error) {
	now := uc.clock.Now()

	expiredSubs, err := uc.subscriptionRepo.FindExpired(ctx, now, uc.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to find expired subscriptions: %w", err)
	}

	if len(expiredSubs) == 0 {
		return 0, nil
	}

	uc.logger.Infow("found expired subscriptions to process", "count", len(expiredSubs))

	markedCount := 0
	for _, sub := range expiredSubs {
		if ctx.Err() != nil {
			return markedCount, ctx.Err()
		}
		if uc.expireOne(ctx, sub, now) {
			markedCount++
		}
	}

	return markedCount, nil
}

func (uc *ExpireSubscriptionsUseCase) expireOne(ctx context.Context, sub *subscription.Subscription, now time.Time) bool {
	if uc.locks != nil {
		unlock := uc.locks.Lock(sub.UserID())
		defer unlock()
	}

	if err := sub.MarkAsExpired(now); err != nil {
		uc.logger.Warnw("failed to mark subscription as expired",
			"subscription_id", sub.ID(),
			"current_status", sub.Status().String(),
			"error", err,
		)
		return false
	}

	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		if errors.Is(err, subscription.ErrVersionConflict) {
			// Renewed or expired elsewhere since it was loaded.
			uc.logger.Debugw("skipping subscription changed since load", "subscription_id", sub.ID())
			return false
		}
		uc.logger.Errorw("failed to update expired subscription",
			"subscription_id", sub.ID(),
			"error", err,
		)
		return false
	}

	uc.logger.Debugw("subscription marked as expired",
		"subscription_id", sub.ID(),
		"user_id", sub.UserID(),
	)
	return true
}
