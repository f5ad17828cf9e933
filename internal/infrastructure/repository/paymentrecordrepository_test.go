package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensox/paygate/internal/domain/payment"
	"github.com/opensox/paygate/internal/infrastructure/database/testdb"
	apperrors "github.com/opensox/paygate/internal/shared/errors"
)

func TestPaymentRecordRepository_CreateAndGet(t *testing.T) {
	repo := NewPaymentRecordRepository(testdb.New(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rec, err := payment.NewRecord("user-1", "pay_A", "order_A", 49900, "inr", now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, rec))

	got, err := repo.GetByProviderPaymentID(ctx, "pay_A")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.ID(), got.ID())
	assert.Equal(t, "user-1", got.UserID())
	assert.Equal(t, "order_A", got.ProviderOrderID())
	assert.Equal(t, int64(49900), got.AmountMinorUnits())
	assert.Equal(t, "INR", got.Currency())
	assert.True(t, now.Equal(got.CreatedAt()))
}

func TestPaymentRecordRepository_NotFound(t *testing.T) {
	repo := NewPaymentRecordRepository(testdb.New(t))

	got, err := repo.GetByProviderPaymentID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPaymentRecordRepository_DuplicateProviderPaymentID(t *testing.T) {
	repo := NewPaymentRecordRepository(testdb.New(t))
	ctx := context.Background()
	now := time.Now().UTC()

	first, err := payment.NewRecord("user-1", "pay_A", "order_A", 100, "INR", now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	second, err := payment.NewRecord("user-1", "pay_A", "order_A", 1, "INR", now)
	require.NoError(t, err)
	err = repo.Create(ctx, second)
	require.Error(t, err)
	assert.True(t, apperrors.IsDuplicateError(err))
}
