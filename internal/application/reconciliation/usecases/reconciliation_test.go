package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paymentUsecases "github.com/opensox/paygate/internal/application/payment/usecases"
	subscriptionUsecases "github.com/opensox/paygate/internal/application/subscription/usecases"
	"github.com/opensox/paygate/internal/application/testutil"
	"github.com/opensox/paygate/internal/domain/payment"
	"github.com/opensox/paygate/internal/domain/reconciliation"
	"github.com/opensox/paygate/internal/domain/subscription"
	"github.com/opensox/paygate/internal/infrastructure/metrics"
	"github.com/opensox/paygate/internal/shared/biztime"
	"github.com/opensox/paygate/internal/shared/logger"
)

type recorderFunc func(ctx context.Context, cmd paymentUsecases.RecordPaymentCommand) (*payment.Record, error)

func (f recorderFunc) Execute(ctx context.Context, cmd paymentUsecases.RecordPaymentCommand) (*payment.Record, error) {
	return f(ctx, cmd)
}

type activatorFunc func(ctx context.Context, cmd subscriptionUsecases.ActivateSubscriptionCommand) (*subscription.Subscription, error)

func (f activatorFunc) Execute(ctx context.Context, cmd subscriptionUsecases.ActivateSubscriptionCommand) (*subscription.Subscription, error) {
	return f(ctx, cmd)
}

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func sampleFlag(stage reconciliation.Stage) reconciliation.Flag {
	return reconciliation.Flag{
		ProviderPaymentID: "pay_A",
		EventType:         "payment.captured",
		Stage:             stage,
		UserID:            "user-1",
		PlanID:            "pro",
		OrderID:           "order_A",
		AmountMinorUnits:  49900,
		Currency:          "INR",
		Error:             "payment storage timed out",
	}
}

func okRecorder() recorderFunc {
	return func(_ context.Context, cmd paymentUsecases.RecordPaymentCommand) (*payment.Record, error) {
		return payment.NewRecord(cmd.UserID, cmd.ProviderPaymentID, cmd.ProviderOrderID, cmd.AmountMinorUnits, cmd.Currency, now)
	}
}

func TestFlagReconciliation_PersistsAndPublishes(t *testing.T) {
	repo := testutil.NewMockReconciliationRepository()
	publisher := testutil.NewMockPublisher()
	uc := NewFlagReconciliationUseCase(repo, logger.NewNopLogger())
	uc.SetPublisher(publisher)
	uc.SetClock(biztime.NewManualClock(now))

	rec, err := uc.Execute(context.Background(), sampleFlag(reconciliation.StagePaymentRecord))
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Attempts())
	assert.Equal(t, []string{reconciliation.EventTypeFlagged}, publisher.Types())

	again, err := uc.Execute(context.Background(), sampleFlag(reconciliation.StagePaymentRecord))
	require.NoError(t, err)
	assert.Equal(t, 2, again.Attempts())
	assert.Equal(t, 1, repo.Len())
}

func TestFlagReconciliation_RunsAfterCallerDeadline(t *testing.T) {
	repo := testutil.NewMockReconciliationRepository()
	uc := NewFlagReconciliationUseCase(repo, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uc.Execute(ctx, sampleFlag(reconciliation.StageSubscriptionActivation))
	require.NoError(t, err)
	assert.NotNil(t, repo.Get("pay_A", reconciliation.StageSubscriptionActivation))
}

func TestFlagReconciliation_StorageFailure(t *testing.T) {
	repo := testutil.NewMockReconciliationRepository()
	repo.SetFlagError(errors.New("db down"))
	uc := NewFlagReconciliationUseCase(repo, logger.NewNopLogger())

	_, err := uc.Execute(context.Background(), sampleFlag(reconciliation.StagePaymentRecord))
	assert.Error(t, err)
}

func TestRetryReconciliation_ResolvesReplayedPayment(t *testing.T) {
	repo := testutil.NewMockReconciliationRepository()
	flagged, err := reconciliation.NewRecord(sampleFlag(reconciliation.StageSubscriptionActivation), now)
	require.NoError(t, err)
	_, err = repo.Flag(context.Background(), flagged)
	require.NoError(t, err)

	var activated subscriptionUsecases.ActivateSubscriptionCommand
	activator := activatorFunc(func(_ context.Context, cmd subscriptionUsecases.ActivateSubscriptionCommand) (*subscription.Subscription, error) {
		activated = cmd
		return nil, nil
	})

	uc := NewRetryReconciliationUseCase(repo, okRecorder(), activator, logger.NewNopLogger())
	uc.SetClock(biztime.NewManualClock(now.Add(time.Hour)))

	resolved, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, resolved)
	assert.Equal(t, "user-1", activated.UserID)
	assert.Equal(t, "pro", activated.PlanID)
	assert.NotEmpty(t, activated.PaymentRecordID)

	rec := repo.Get("pay_A", reconciliation.StageSubscriptionActivation)
	assert.Equal(t, reconciliation.StatusResolved, rec.Status())
	require.NotNil(t, rec.ResolvedAt())

	resolved, err = uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, resolved)
}

func TestRetryReconciliation_AbandonsAfterMaxAttempts(t *testing.T) {
	repo := testutil.NewMockReconciliationRepository()
	flagged, err := reconciliation.NewRecord(sampleFlag(reconciliation.StagePaymentRecord), now)
	require.NoError(t, err)
	_, err = repo.Flag(context.Background(), flagged)
	require.NoError(t, err)

	failing := recorderFunc(func(context.Context, paymentUsecases.RecordPaymentCommand) (*payment.Record, error) {
		return nil, errors.New("still down")
	})
	uc := NewRetryReconciliationUseCase(repo, failing, activatorFunc(nil), logger.NewNopLogger())
	uc.SetLimits(10, 3)

	for i := 0; i < 2; i++ {
		resolved, err := uc.Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, resolved)
	}

	rec := repo.Get("pay_A", reconciliation.StagePaymentRecord)
	assert.Equal(t, reconciliation.StatusAbandoned, rec.Status())
	assert.Equal(t, 3, rec.Attempts())
	assert.Contains(t, rec.Flag().Error, "still down")

	pending, err := repo.ListPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRetryReconciliation_RefreshesPendingGauge(t *testing.T) {
	repo := testutil.NewMockReconciliationRepository()
	for _, id := range []string{"pay_A", "pay_B"} {
		flag := sampleFlag(reconciliation.StagePaymentRecord)
		flag.ProviderPaymentID = id
		flagged, err := reconciliation.NewRecord(flag, now)
		require.NoError(t, err)
		_, err = repo.Flag(context.Background(), flagged)
		require.NoError(t, err)
	}

	failing := recorderFunc(func(context.Context, paymentUsecases.RecordPaymentCommand) (*payment.Record, error) {
		return nil, errors.New("still down")
	})
	uc := NewRetryReconciliationUseCase(repo, failing, activatorFunc(nil), logger.NewNopLogger())

	_, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2.0, promtestutil.ToFloat64(metrics.ReconciliationPending))

	uc = NewRetryReconciliationUseCase(repo, okRecorder(), activatorFunc(func(context.Context, subscriptionUsecases.ActivateSubscriptionCommand) (*subscription.Subscription, error) {
		return nil, nil
	}), logger.NewNopLogger())

	resolved, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, resolved)
	assert.Equal(t, 0.0, promtestutil.ToFloat64(metrics.ReconciliationPending))
}

func TestRetryReconciliation_ReplaysPaymentWithoutOrder(t *testing.T) {
	repo := testutil.NewMockReconciliationRepository()
	flag := sampleFlag(reconciliation.StagePaymentRecord)
	flag.OrderID = ""
	flagged, err := reconciliation.NewRecord(flag, now)
	require.NoError(t, err)
	_, err = repo.Flag(context.Background(), flagged)
	require.NoError(t, err)

	activator := activatorFunc(func(context.Context, subscriptionUsecases.ActivateSubscriptionCommand) (*subscription.Subscription, error) {
		return nil, nil
	})
	uc := NewRetryReconciliationUseCase(repo, okRecorder(), activator, logger.NewNopLogger())
	resolved, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, resolved)
	assert.Equal(t, reconciliation.StatusResolved, repo.Get("pay_A", reconciliation.StagePaymentRecord).Status())
}

func TestRetryReconciliation_IncompleteFlagFails(t *testing.T) {
	repo := testutil.NewMockReconciliationRepository()
	flag := sampleFlag(reconciliation.StagePaymentRecord)
	flag.PlanID = ""
	flagged, err := reconciliation.NewRecord(flag, now)
	require.NoError(t, err)
	_, err = repo.Flag(context.Background(), flagged)
	require.NoError(t, err)

	uc := NewRetryReconciliationUseCase(repo, okRecorder(), activatorFunc(nil), logger.NewNopLogger())
	resolved, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, resolved)
	assert.Equal(t, 2, repo.Get("pay_A", reconciliation.StagePaymentRecord).Attempts())
}
