package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensox/paygate/internal/shared/id"
)

func TestNewRecord(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("valid record", func(t *testing.T) {
		r, err := NewRecord("user_1", "pay_ABC", "order_1", 49900, "inr", now)
		require.NoError(t, err)

		assert.True(t, id.HasPrefix(r.ID(), id.PrefixPayment))
		assert.Equal(t, "INR", r.Currency())
		assert.Equal(t, int64(49900), r.AmountMinorUnits())
		assert.Equal(t, now, r.CreatedAt())
	})

	t.Run("payment without order", func(t *testing.T) {
		r, err := NewRecord("user_1", "pay_DEF", "", 100, "INR", now)
		require.NoError(t, err)
		assert.Empty(t, r.ProviderOrderID())
	})

	tests := []struct {
		name     string
		userID   string
		payID    string
		orderID  string
		amount   int64
		currency string
		wantErr  error
	}{
		{"missing user", "", "pay_1", "order_1", 100, "INR", ErrUserIDRequired},
		{"missing payment id", "user_1", "", "order_1", 100, "INR", ErrProviderPaymentIDRequired},
		{"negative amount", "user_1", "pay_1", "order_1", -1, "INR", ErrInvalidAmount},
		{"bad currency", "user_1", "pay_1", "order_1", 100, "RUPEE", ErrInvalidCurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRecord(tt.userID, tt.payID, tt.orderID, tt.amount, tt.currency, now)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
