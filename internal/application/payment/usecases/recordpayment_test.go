package usecases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensox/paygate/internal/application/testutil"
	"github.com/opensox/paygate/internal/domain/payment"
	"github.com/opensox/paygate/internal/infrastructure/database/testdb"
	"github.com/opensox/paygate/internal/infrastructure/repository"
	"github.com/opensox/paygate/internal/shared/biztime"
	apperrors "github.com/opensox/paygate/internal/shared/errors"
	"github.com/opensox/paygate/internal/shared/logger"
)

func captured() RecordPaymentCommand {
	return RecordPaymentCommand{
		UserID:            "user-1",
		ProviderPaymentID: "pay_A",
		ProviderOrderID:   "order_A",
		AmountMinorUnits:  49900,
		Currency:          "INR",
	}
}

func newUseCase(repo payment.Repository) *RecordPaymentUseCase {
	uc := NewRecordPaymentUseCase(repo, logger.NewNopLogger())
	uc.SetClock(biztime.NewManualClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))
	return uc
}

func TestRecordPayment_SequentialIsIdempotent(t *testing.T) {
	repo := testutil.NewMockPaymentRepository()
	uc := newUseCase(repo)

	first, err := uc.Execute(context.Background(), captured())
	require.NoError(t, err)

	second, err := uc.Execute(context.Background(), captured())
	require.NoError(t, err)

	assert.Equal(t, first.ID(), second.ID())
	assert.Equal(t, 1, repo.Count())
	assert.Equal(t, 1, repo.CreateCalls(), "redelivery must not write")
}

func TestRecordPayment_TamperedRedeliveryReturnsStoredAmount(t *testing.T) {
	repo := testutil.NewMockPaymentRepository()
	uc := newUseCase(repo)

	original, err := uc.Execute(context.Background(), captured())
	require.NoError(t, err)

	tampered := captured()
	tampered.AmountMinorUnits = 1
	got, err := uc.Execute(context.Background(), tampered)
	require.NoError(t, err)

	assert.Equal(t, original.ID(), got.ID())
	assert.Equal(t, int64(49900), got.AmountMinorUnits())
}

func TestRecordPayment_ConcurrentDeliveriesStoreOneRow(t *testing.T) {
	repo := testutil.NewMockPaymentRepository()
	uc := newUseCase(repo)

	const n = 50
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		ids   = make([]string, n)
		errs  = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			rec, err := uc.Execute(context.Background(), captured())
			errs[i] = err
			if rec != nil {
				ids[i] = rec.ID()
			}
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, 1, repo.Count())
}

func TestRecordPayment_LosingInsertRereadsWinner(t *testing.T) {
	repo := testutil.NewMockPaymentRepository()
	uc := newUseCase(repo)

	winner, err := payment.NewRecord("user-1", "pay_A", "order_A", 49900, "INR", time.Now())
	require.NoError(t, err)
	// The winner lands between our lookup and our insert.
	repo.SetBeforeCreate(func() { repo.Add(winner) })

	got, err := uc.Execute(context.Background(), captured())
	require.NoError(t, err)
	assert.Equal(t, winner.ID(), got.ID())
}

func TestRecordPayment_StorageTimeoutIsInfrastructureFailure(t *testing.T) {
	repo := testutil.NewMockPaymentRepository()
	repo.SetBlockUntilDone(true)
	uc := newUseCase(repo)
	uc.SetStorageTimeout(20 * time.Millisecond)

	_, err := uc.Execute(context.Background(), captured())
	require.Error(t, err)
	assert.True(t, apperrors.IsInfrastructureError(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestRecordPayment_StorageErrors(t *testing.T) {
	t.Run("lookup", func(t *testing.T) {
		repo := testutil.NewMockPaymentRepository()
		repo.SetGetError(errors.New("connection refused"))

		_, err := newUseCase(repo).Execute(context.Background(), captured())
		assert.True(t, apperrors.IsInfrastructureError(err))
	})

	t.Run("insert", func(t *testing.T) {
		repo := testutil.NewMockPaymentRepository()
		repo.SetCreateError(errors.New("disk full"))

		_, err := newUseCase(repo).Execute(context.Background(), captured())
		assert.True(t, apperrors.IsInfrastructureError(err))
	})
}

func TestRecordPayment_InvalidPayment(t *testing.T) {
	cmd := captured()
	cmd.Currency = "RUPEES"

	_, err := newUseCase(testutil.NewMockPaymentRepository()).Execute(context.Background(), cmd)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestRecordPayment_ConcurrentAgainstDatabase(t *testing.T) {
	repo := repository.NewPaymentRecordRepository(testdb.New(t))
	uc := newUseCase(repo)

	const n = 10
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := uc.Execute(context.Background(), captured())
			if assert.NoError(t, err) {
				ids <- rec.ID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	unique := map[string]bool{}
	for id := range ids {
		unique[id] = true
	}
	assert.Len(t, unique, 1)
}
