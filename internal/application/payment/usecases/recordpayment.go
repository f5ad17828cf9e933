package usecases

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/opensox/paygate/internal/domain/payment"
	"github.com/opensox/paygate/internal/shared/biztime"
	"github.com/opensox/paygate/internal/shared/db"
	apperrors "github.com/opensox/paygate/internal/shared/errors"
	"github.com/opensox/paygate/internal/shared/logger"
)

const defaultStorageTimeout = 5 * time.Second

// RecordPaymentCommand carries a captured payment as reported by the provider.
type RecordPaymentCommand struct {
	UserID            string
	ProviderPaymentID string
	ProviderOrderID   string
	AmountMinorUnits  int64
	Currency          string
}

// RecordPaymentUseCase is the payment ledger. Recording the same provider
// payment any number of times, concurrently or not, stores exactly one row
// and always returns that row.
type RecordPaymentUseCase struct {
	paymentRepo    payment.Repository
	clock          biztime.Clock
	storageTimeout time.Duration
	logger         logger.Interface
}

func NewRecordPaymentUseCase(
	paymentRepo payment.Repository,
	logger logger.Interface,
) *RecordPaymentUseCase {
	return &RecordPaymentUseCase{
		paymentRepo:    paymentRepo,
		clock:          biztime.System(),
		storageTimeout: defaultStorageTimeout,
		logger:         logger,
	}
}

// SetClock overrides the time source (optional dependency injection)
func (uc *RecordPaymentUseCase) SetClock(clock biztime.Clock) {
	uc.clock = clock
}

// SetStorageTimeout bounds each storage call. Non-positive disables the bound.
func (uc *RecordPaymentUseCase) SetStorageTimeout(d time.Duration) {
	uc.storageTimeout = d
}

func (uc *RecordPaymentUseCase) Execute(ctx context.Context, cmd RecordPaymentCommand) (*payment.Record, error) {
	existing, err := uc.lookup(ctx, cmd.ProviderPaymentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		uc.checkRedelivery(existing, cmd)
		return existing, nil
	}

	record, err := payment.NewRecord(
		cmd.UserID,
		cmd.ProviderPaymentID,
		cmd.ProviderOrderID,
		cmd.AmountMinorUnits,
		cmd.Currency,
		uc.clock.Now(),
	)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid payment", err.Error())
	}

	createCtx, cancel := db.WithStorageTimeout(ctx, uc.storageTimeout)
	err = uc.paymentRepo.Create(createCtx, record)
	cancel()

	if err == nil {
		uc.logger.Infow("payment recorded",
			"payment_record_id", record.ID(),
			"provider_payment_id", record.ProviderPaymentID(),
			"order_id", record.ProviderOrderID(),
			"user_id", record.UserID(),
			"amount_minor_units", record.AmountMinorUnits(),
			"currency", record.Currency(),
		)
		return record, nil
	}

	if !apperrors.IsDuplicateError(err) {
		uc.logger.Errorw("failed to record payment",
			"provider_payment_id", cmd.ProviderPaymentID,
			"order_id", cmd.ProviderOrderID,
			"user_id", cmd.UserID,
			"error", err,
		)
		return nil, storageFailure(err)
	}

	// A concurrent delivery inserted first.
	winner, err := uc.lookup(ctx, cmd.ProviderPaymentID)
	if err != nil {
		return nil, err
	}
	if winner == nil {
		return nil, apperrors.NewInfrastructureError("payment storage unavailable",
			errors.New("duplicate payment record not readable"))
	}

	uc.logger.Debugw("payment already recorded by concurrent delivery",
		"provider_payment_id", cmd.ProviderPaymentID,
		"payment_record_id", winner.ID(),
	)
	uc.checkRedelivery(winner, cmd)
	return winner, nil
}

func (uc *RecordPaymentUseCase) lookup(ctx context.Context, providerPaymentID string) (*payment.Record, error) {
	lookupCtx, cancel := db.WithStorageTimeout(ctx, uc.storageTimeout)
	defer cancel()

	record, err := uc.paymentRepo.GetByProviderPaymentID(lookupCtx, providerPaymentID)
	if err != nil {
		uc.logger.Errorw("failed to look up payment record",
			"provider_payment_id", providerPaymentID,
			"error", err,
		)
		return nil, storageFailure(err)
	}
	return record, nil
}

// checkRedelivery logs deliveries whose content differs from the stored row.
// The stored row always wins.
func (uc *RecordPaymentUseCase) checkRedelivery(stored *payment.Record, cmd RecordPaymentCommand) {
	if stored.AmountMinorUnits() == cmd.AmountMinorUnits &&
		stored.Currency() == normalizeCurrency(cmd.Currency) &&
		stored.UserID() == cmd.UserID {
		return
	}
	uc.logger.Warnw("redelivered payment differs from stored record",
		"provider_payment_id", stored.ProviderPaymentID(),
		"stored_amount", stored.AmountMinorUnits(),
		"delivered_amount", cmd.AmountMinorUnits,
		"stored_currency", stored.Currency(),
		"delivered_currency", cmd.Currency,
		"stored_user_id", stored.UserID(),
		"delivered_user_id", cmd.UserID,
	)
}

func storageFailure(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewInfrastructureError("payment storage timed out", err)
	}
	return apperrors.NewInfrastructureError("payment storage unavailable", err)
}

func normalizeCurrency(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}
