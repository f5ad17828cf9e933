package usecases

import (
	"context"
	"errors"
	"fmt"

	paymentUsecases "github.com/opensox/paygate/internal/application/payment/usecases"
	subscriptionUsecases "github.com/opensox/paygate/internal/application/subscription/usecases"
	"github.com/opensox/paygate/internal/domain/reconciliation"
	"github.com/opensox/paygate/internal/infrastructure/metrics"
	"github.com/opensox/paygate/internal/shared/biztime"
	"github.com/opensox/paygate/internal/shared/logger"
)

const (
	defaultBatchSize   = 50
	defaultMaxAttempts = 10
)

// RetryReconciliationUseCase replays pending flags through the ledger and the
// activator. Both are idempotent, so a replay of a half-applied payment
// completes it without double effects.
type RetryReconciliationUseCase struct {
	reconciliationRepo reconciliation.Repository
	recordPayment      PaymentRecorder
	activate           SubscriptionActivator
	clock              biztime.Clock
	batchSize          int
	maxAttempts        int
	logger             logger.Interface
}

func NewRetryReconciliationUseCase(
	reconciliationRepo reconciliation.Repository,
	recordPayment PaymentRecorder,
	activate SubscriptionActivator,
	logger logger.Interface,
) *RetryReconciliationUseCase {
	return &RetryReconciliationUseCase{
		reconciliationRepo: reconciliationRepo,
		recordPayment:      recordPayment,
		activate:           activate,
		clock:              biztime.System(),
		batchSize:          defaultBatchSize,
		maxAttempts:        defaultMaxAttempts,
		logger:             logger,
	}
}

func (uc *RetryReconciliationUseCase) SetClock(clock biztime.Clock) {
	uc.clock = clock
}

// SetLimits sets the batch size and the attempt count at which a flag is abandoned.
func (uc *RetryReconciliationUseCase) SetLimits(batchSize, maxAttempts int) {
	if batchSize > 0 {
		uc.batchSize = batchSize
	}
	if maxAttempts > 0 {
		uc.maxAttempts = maxAttempts
	}
}

// Execute replays one batch and returns how many flags were resolved. The
// pending gauge is refreshed after every batch.
func (uc *RetryReconciliationUseCase) Execute(ctx context.Context) (int, error) {
	defer uc.refreshPending(ctx)

	pending, err := uc.reconciliationRepo.ListPending(ctx, uc.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending reconciliation records: %w", err)
	}

	resolved := 0
	for _, rec := range pending {
		if ctx.Err() != nil {
			return resolved, ctx.Err()
		}

		replayErr := uc.replay(ctx, rec.Flag())
		now := uc.clock.Now()

		outcome := "resolved"
		if replayErr == nil {
			rec.Resolve(now)
			resolved++
		} else {
			rec.RecordFailure(replayErr.Error(), uc.maxAttempts, now)
			outcome = "failed"
			if rec.Status() == reconciliation.StatusAbandoned {
				outcome = "abandoned"
			}
		}
		metrics.ReconciliationReplaysTotal.WithLabelValues(outcome).Inc()

		if err := uc.reconciliationRepo.Update(ctx, rec); err != nil {
			uc.logger.Errorw("failed to update reconciliation record",
				"reconciliation_id", rec.ID(),
				"provider_payment_id", rec.Flag().ProviderPaymentID,
				"error", err,
			)
			continue
		}

		logArgs := []interface{}{
			"reconciliation_id", rec.ID(),
			"provider_payment_id", rec.Flag().ProviderPaymentID,
			"stage", rec.Stage(),
			"attempts", rec.Attempts(),
		}
		switch outcome {
		case "resolved":
			uc.logger.Infow("reconciliation resolved", logArgs...)
		case "abandoned":
			uc.logger.Errorw("reconciliation abandoned, manual action required", append(logArgs, "error", replayErr)...)
		default:
			uc.logger.Warnw("reconciliation replay failed", append(logArgs, "error", replayErr)...)
		}
	}

	return resolved, nil
}

func (uc *RetryReconciliationUseCase) refreshPending(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	n, err := uc.reconciliationRepo.CountByStatus(ctx, reconciliation.StatusPending)
	if err != nil {
		uc.logger.Warnw("failed to count pending reconciliation records", "error", err)
		return
	}
	metrics.ReconciliationPending.Set(float64(n))
}

func (uc *RetryReconciliationUseCase) replay(ctx context.Context, flag reconciliation.Flag) error {
	if flag.UserID == "" || flag.PlanID == "" {
		return errors.New("flag lacks the identifiers needed to replay")
	}

	record, err := uc.recordPayment.Execute(ctx, paymentUsecases.RecordPaymentCommand{
		UserID:            flag.UserID,
		ProviderPaymentID: flag.ProviderPaymentID,
		ProviderOrderID:   flag.OrderID,
		AmountMinorUnits:  flag.AmountMinorUnits,
		Currency:          flag.Currency,
	})
	if err != nil {
		return fmt.Errorf("record payment: %w", err)
	}

	if _, err := uc.activate.Execute(ctx, subscriptionUsecases.ActivateSubscriptionCommand{
		UserID:          record.UserID(),
		PlanID:          flag.PlanID,
		PaymentRecordID: record.ID(),
	}); err != nil {
		return fmt.Errorf("activate subscription: %w", err)
	}
	return nil
}
