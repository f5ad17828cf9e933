package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensox/paygate/internal/application/testutil"
	"github.com/opensox/paygate/internal/domain/subscription"
	vo "github.com/opensox/paygate/internal/domain/subscription/valueobjects"
	"github.com/opensox/paygate/internal/infrastructure/database/testdb"
	"github.com/opensox/paygate/internal/infrastructure/plancatalog"
	"github.com/opensox/paygate/internal/infrastructure/repository"
	"github.com/opensox/paygate/internal/shared/biztime"
	"github.com/opensox/paygate/internal/shared/config"
	"github.com/opensox/paygate/internal/shared/db"
	apperrors "github.com/opensox/paygate/internal/shared/errors"
	"github.com/opensox/paygate/internal/shared/logger"
)

const month = 30 * 24 * time.Hour

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type activatorFixture struct {
	uc        *ActivateSubscriptionUseCase
	repo      *repository.SubscriptionRepositoryImpl
	publisher *testutil.MockPublisher
	clock     *biztime.ManualClock
}

func newActivatorFixture(t *testing.T) *activatorFixture {
	t.Helper()

	gdb := testdb.New(t)
	repo := repository.NewSubscriptionRepository(gdb, logger.NewNopLogger())
	catalog, err := plancatalog.New([]config.PlanConfig{
		{ID: "pro", Name: "Pro", Duration: month, PriceMinor: 49900, Currency: "INR"},
		{ID: "pro-yearly", Name: "Pro yearly", Duration: 365 * 24 * time.Hour, PriceMinor: 499900, Currency: "INR"},
	})
	require.NoError(t, err)

	clock := biztime.NewManualClock(t0)
	publisher := testutil.NewMockPublisher()

	uc := NewActivateSubscriptionUseCase(repo, catalog, db.NewTransactionManager(gdb), logger.NewNopLogger())
	uc.SetClock(clock)
	uc.SetPublisher(publisher)

	return &activatorFixture{uc: uc, repo: repo, publisher: publisher, clock: clock}
}

func activate(userID, planID, paymentID string) ActivateSubscriptionCommand {
	return ActivateSubscriptionCommand{UserID: userID, PlanID: planID, PaymentRecordID: paymentID}
}

func TestActivateSubscription_CreatesNewSubscription(t *testing.T) {
	f := newActivatorFixture(t)

	sub, err := f.uc.Execute(context.Background(), activate("user-1", "pro", "pay_rec_1"))
	require.NoError(t, err)

	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.True(t, t0.Equal(sub.StartDate()))
	assert.True(t, t0.Add(month).Equal(sub.EndDate()))
	assert.Equal(t, "pay_rec_1", sub.OriginatingPaymentID())
	assert.Equal(t, []string{subscription.EventTypeActivated}, f.publisher.Types())

	claim, err := f.repo.GetActivationByPaymentRecordID(context.Background(), "pay_rec_1")
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.Equal(t, sub.ID(), claim.SubscriptionID)
	assert.Equal(t, vo.ActivationCreated, claim.Kind)
}

func TestActivateSubscription_ReplayIsNoOp(t *testing.T) {
	f := newActivatorFixture(t)
	ctx := context.Background()

	first, err := f.uc.Execute(ctx, activate("user-1", "pro", "pay_rec_1"))
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	again, err := f.uc.Execute(ctx, activate("user-1", "pro", "pay_rec_1"))
	require.NoError(t, err)

	assert.Equal(t, first.ID(), again.ID())
	assert.True(t, first.EndDate().Equal(again.EndDate()), "replay must not extend")
	assert.Equal(t, 1, again.Version())
	assert.Len(t, f.publisher.Types(), 1)
}

func TestActivateSubscription_RenewalExtendsSameRow(t *testing.T) {
	f := newActivatorFixture(t)
	ctx := context.Background()

	first, err := f.uc.Execute(ctx, activate("user-1", "pro", "pay_rec_1"))
	require.NoError(t, err)

	f.clock.Advance(10 * 24 * time.Hour)
	renewed, err := f.uc.Execute(ctx, activate("user-1", "pro", "pay_rec_2"))
	require.NoError(t, err)

	assert.Equal(t, first.ID(), renewed.ID())
	assert.True(t, t0.Add(2*month).Equal(renewed.EndDate()), "renewal stacks on the remaining term")
	assert.Equal(t, "pay_rec_2", renewed.OriginatingPaymentID())
	assert.Equal(t, 2, renewed.Version())

	// The first payment still resolves to the same subscription after repointing.
	replayed, err := f.uc.Execute(ctx, activate("user-1", "pro", "pay_rec_1"))
	require.NoError(t, err)
	assert.Equal(t, first.ID(), replayed.ID())
	assert.True(t, t0.Add(2*month).Equal(replayed.EndDate()))
}

func TestActivateSubscription_DifferentPlanSupersedes(t *testing.T) {
	f := newActivatorFixture(t)
	ctx := context.Background()

	monthly, err := f.uc.Execute(ctx, activate("user-1", "pro", "pay_rec_1"))
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	yearly, err := f.uc.Execute(ctx, activate("user-1", "pro-yearly", "pay_rec_2"))
	require.NoError(t, err)

	assert.NotEqual(t, monthly.ID(), yearly.ID())
	assert.Equal(t, "pro-yearly", yearly.PlanID())
	assert.True(t, f.clock.Now().Add(365*24*time.Hour).Equal(yearly.EndDate()))

	old, err := f.repo.GetByID(ctx, monthly.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.StatusExpired, old.Status())
	assert.True(t, f.clock.Now().Equal(old.EndDate()))

	current, err := f.repo.GetCurrentByUserID(ctx, "user-1", f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, yearly.ID(), current.ID())
}

func TestActivateSubscription_RejectPolicy(t *testing.T) {
	f := newActivatorFixture(t)
	f.uc.SetConflictPolicy(vo.ConflictReject)
	ctx := context.Background()

	_, err := f.uc.Execute(ctx, activate("user-1", "pro", "pay_rec_1"))
	require.NoError(t, err)

	_, err = f.uc.Execute(ctx, activate("user-1", "pro-yearly", "pay_rec_2"))
	require.Error(t, err)
	assert.True(t, apperrors.IsConflictError(err))

	claim, err := f.repo.GetActivationByPaymentRecordID(ctx, "pay_rec_2")
	require.NoError(t, err)
	assert.Nil(t, claim, "rejected payment must not be claimed")
}

func TestActivateSubscription_UnknownPlan(t *testing.T) {
	f := newActivatorFixture(t)

	_, err := f.uc.Execute(context.Background(), activate("user-1", "enterprise", "pay_rec_1"))
	assert.True(t, apperrors.IsValidationError(err))

	_, err = f.uc.Execute(context.Background(), activate("", "pro", "pay_rec_1"))
	assert.True(t, apperrors.IsValidationError(err))
}

func TestActivateSubscription_PublishFailureDoesNotFail(t *testing.T) {
	f := newActivatorFixture(t)
	f.publisher.SetError(errors.New("broker down"))

	sub, err := f.uc.Execute(context.Background(), activate("user-1", "pro", "pay_rec_1"))
	require.NoError(t, err)
	assert.NotNil(t, sub)
}

func TestActivateSubscription_ConcurrentSamePaymentAppliesOnce(t *testing.T) {
	f := newActivatorFixture(t)

	const n = 20
	var wg sync.WaitGroup
	ids := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub, err := f.uc.Execute(context.Background(), activate("user-1", "pro", "pay_rec_1"))
			errs[i] = err
			if sub != nil {
				ids[i] = sub.ID()
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	sub, err := f.repo.GetByID(context.Background(), ids[0])
	require.NoError(t, err)
	assert.True(t, t0.Add(month).Equal(sub.EndDate()))
	assert.Len(t, f.publisher.Types(), 1)
}

func TestActivateSubscription_ConcurrentDistinctPaymentsStack(t *testing.T) {
	f := newActivatorFixture(t)

	const n = 5
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.uc.Execute(context.Background(), activate("user-1", "pro", fmt.Sprintf("pay_rec_%d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	current, err := f.repo.GetCurrentByUserID(context.Background(), "user-1", t0)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.True(t, t0.Add(n*month).Equal(current.EndDate()))
	assert.Equal(t, n, current.Version())
}
