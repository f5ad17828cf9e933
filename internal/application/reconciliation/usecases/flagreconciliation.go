package usecases

import (
	"context"
	"time"

	"github.com/opensox/paygate/internal/domain/reconciliation"
	"github.com/opensox/paygate/internal/domain/shared/events"
	"github.com/opensox/paygate/internal/infrastructure/metrics"
	"github.com/opensox/paygate/internal/shared/biztime"
	"github.com/opensox/paygate/internal/shared/db"
	"github.com/opensox/paygate/internal/shared/logger"
)

const defaultStorageTimeout = 5 * time.Second

// FlagReconciliationUseCase records an acknowledged payment whose effects did
// not complete. Flagging is observable three ways: a stored row, a metric and
// a domain event.
type FlagReconciliationUseCase struct {
	reconciliationRepo reconciliation.Repository
	publisher          events.Publisher // Optional
	clock              biztime.Clock
	storageTimeout     time.Duration
	logger             logger.Interface
}

func NewFlagReconciliationUseCase(
	reconciliationRepo reconciliation.Repository,
	logger logger.Interface,
) *FlagReconciliationUseCase {
	return &FlagReconciliationUseCase{
		reconciliationRepo: reconciliationRepo,
		clock:              biztime.System(),
		storageTimeout:     defaultStorageTimeout,
		logger:             logger,
	}
}

// SetPublisher sets the domain event publisher (optional dependency injection)
func (uc *FlagReconciliationUseCase) SetPublisher(publisher events.Publisher) {
	uc.publisher = publisher
}

func (uc *FlagReconciliationUseCase) SetClock(clock biztime.Clock) {
	uc.clock = clock
}

func (uc *FlagReconciliationUseCase) SetStorageTimeout(d time.Duration) {
	uc.storageTimeout = d
}

// Execute persists flag. It runs even when ctx has already expired, since the
// failure being flagged is often that very timeout.
func (uc *FlagReconciliationUseCase) Execute(ctx context.Context, flag reconciliation.Flag) (*reconciliation.Record, error) {
	metrics.ReconciliationFlagsTotal.WithLabelValues(string(flag.Stage)).Inc()

	record, err := reconciliation.NewRecord(flag, uc.clock.Now())
	if err != nil {
		uc.logFlagFailure(flag, err)
		return nil, err
	}

	storeCtx, cancel := db.WithStorageTimeout(context.WithoutCancel(ctx), uc.storageTimeout)
	defer cancel()

	stored, err := uc.reconciliationRepo.Flag(storeCtx, record)
	if err != nil {
		uc.logFlagFailure(flag, err)
		return nil, err
	}

	uc.logger.Warnw("payment flagged for reconciliation",
		"reconciliation_id", stored.ID(),
		"provider_payment_id", flag.ProviderPaymentID,
		"order_id", flag.OrderID,
		"user_id", flag.UserID,
		"plan_id", flag.PlanID,
		"stage", flag.Stage,
		"attempts", stored.Attempts(),
		"error", flag.Error,
	)

	if uc.publisher != nil {
		if err := uc.publisher.Publish(storeCtx, reconciliation.NewFlaggedEvent(stored)); err != nil {
			uc.logger.Warnw("failed to publish reconciliation flagged event",
				"reconciliation_id", stored.ID(),
				"error", err,
			)
		}
	}

	return stored, nil
}

// logFlagFailure is the last record of a payment that could not be flagged.
func (uc *FlagReconciliationUseCase) logFlagFailure(flag reconciliation.Flag, err error) {
	uc.logger.Errorw("failed to persist reconciliation flag",
		"provider_payment_id", flag.ProviderPaymentID,
		"order_id", flag.OrderID,
		"user_id", flag.UserID,
		"plan_id", flag.PlanID,
		"amount_minor_units", flag.AmountMinorUnits,
		"currency", flag.Currency,
		"event_type", flag.EventType,
		"stage", flag.Stage,
		"cause", flag.Error,
		"error", err,
	)
}
