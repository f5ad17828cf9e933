package reconciliation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	now := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)

	r, err := NewRecord(Flag{ProviderPaymentID: "pay_X", Stage: StageSubscriptionActivation}, now)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, r.Status())
	assert.Equal(t, 1, r.Attempts())

	_, err = NewRecord(Flag{ProviderPaymentID: "pay_X", Stage: "refund"}, now)
	assert.ErrorIs(t, err, ErrInvalidStage)

	_, err = NewRecord(Flag{Stage: StagePaymentRecord}, now)
	assert.Error(t, err)
}

func TestRecord_RecordFailure_AbandonsAtMaxAttempts(t *testing.T) {
	now := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	r, err := NewRecord(Flag{ProviderPaymentID: "pay_X", Stage: StagePaymentRecord}, now)
	require.NoError(t, err)

	r.RecordFailure("timeout", 3, now.Add(time.Minute))
	assert.Equal(t, StatusPending, r.Status())
	assert.Equal(t, 2, r.Attempts())

	r.RecordFailure("timeout again", 3, now.Add(2*time.Minute))
	assert.Equal(t, StatusAbandoned, r.Status())
	assert.Equal(t, "timeout again", r.Flag().Error)
}

func TestRecord_Resolve(t *testing.T) {
	now := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	r, err := NewRecord(Flag{ProviderPaymentID: "pay_X", Stage: StagePaymentRecord}, now)
	require.NoError(t, err)

	r.Resolve(now.Add(time.Hour))

	assert.Equal(t, StatusResolved, r.Status())
	require.NotNil(t, r.ResolvedAt())
	assert.Equal(t, now.Add(time.Hour), *r.ResolvedAt())
	assert.Equal(t, StagePaymentRecord, NewFlaggedEvent(r).Stage)
}
