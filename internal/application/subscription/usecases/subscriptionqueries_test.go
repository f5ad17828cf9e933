package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/opensox/paygate/internal/domain/subscription/valueobjects"
	"github.com/opensox/paygate/internal/shared/logger"
)

func TestGetActiveSubscription(t *testing.T) {
	f := newActivatorFixture(t)
	ctx := context.Background()

	get := NewGetActiveSubscriptionUseCase(f.repo, logger.NewNopLogger())
	get.SetClock(f.clock)

	none, err := get.Execute(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, none)

	created, err := f.uc.Execute(ctx, activate("user-1", "pro", "pay_rec_1"))
	require.NoError(t, err)

	active, err := get.Execute(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, created.ID(), active.ID())

	f.clock.Advance(month + time.Second)
	lapsed, err := get.Execute(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, lapsed)
}

func TestExpireSubscriptions(t *testing.T) {
	f := newActivatorFixture(t)
	ctx := context.Background()

	old, err := f.uc.Execute(ctx, activate("user-1", "pro", "pay_rec_1"))
	require.NoError(t, err)
	_, err = f.uc.Execute(ctx, activate("user-2", "pro-yearly", "pay_rec_2"))
	require.NoError(t, err)

	expire := NewExpireSubscriptionsUseCase(f.repo, logger.NewNopLogger())
	expire.SetClock(f.clock)
	expire.SetLocks(f.uc.Locks())

	count, err := expire.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	f.clock.Advance(month + time.Hour)
	count, err = expire.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := f.repo.GetByID(ctx, old.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.StatusExpired, stored.Status())
	assert.True(t, old.EndDate().Equal(stored.EndDate()), "end date of a lapsed term is kept")

	count, err = expire.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
