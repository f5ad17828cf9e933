package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const capturedBody = `{
  "event": "payment.captured",
  "payload": {"payment": {"entity": {
    "id": "pay_ABC", "order_id": "order_1", "amount": 49900, "currency": "INR",
    "notes": {"user_id": "u1", "plan_id": "pro"}
  }}}
}`

func TestDecode_PaymentCaptured(t *testing.T) {
	ev, err := Decode([]byte(capturedBody), "deadbeef")
	require.NoError(t, err)

	captured, ok := ev.(PaymentCaptured)
	require.True(t, ok)
	assert.Equal(t, EventPaymentCaptured, captured.EventType())
	assert.Equal(t, "pay_ABC", captured.PaymentID)
	assert.Equal(t, "order_1", captured.OrderID)
	assert.Equal(t, int64(49900), captured.AmountMinorUnits)
	assert.Equal(t, "INR", captured.Currency)
	assert.Equal(t, "u1", captured.UserID)
	assert.Equal(t, "pro", captured.PlanID)
	assert.Equal(t, "deadbeef", captured.Signature)
}

func TestDecode_NumericNotes(t *testing.T) {
	body := `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"o","amount":0,"currency":"INR","notes":{"user_id":42,"plan_id":"pro"}}}}}`

	ev, err := Decode([]byte(body), "")
	require.NoError(t, err)
	assert.Equal(t, "42", ev.(PaymentCaptured).UserID)
	assert.Equal(t, int64(0), ev.(PaymentCaptured).AmountMinorUnits)
}

func TestDecode_PaymentWithoutOrder(t *testing.T) {
	for _, orderID := range []string{`null`, `""`} {
		body := `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":` + orderID + `,"amount":100,"currency":"INR","notes":{"user_id":"u1","plan_id":"pro"}}}}}`

		ev, err := Decode([]byte(body), "")
		require.NoError(t, err, orderID)
		assert.Empty(t, ev.(PaymentCaptured).OrderID)
		assert.Equal(t, "pay_1", ev.(PaymentCaptured).PaymentID)
	}
}

func TestDecode_UnhandledEvent(t *testing.T) {
	ev, err := Decode([]byte(`{"event":"refund.created","payload":{}}`), "sig")
	require.NoError(t, err)

	unhandled, ok := ev.(UnhandledEvent)
	require.True(t, ok)
	assert.Equal(t, "refund.created", unhandled.EventType())
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"not json", `{"event":`, ErrMalformedPayload},
		{"no event tag", `{"payload":{}}`, ErrMalformedPayload},
		{"no payload", `{"event":"payment.captured"}`, ErrMissingFields},
		{"empty notes array", `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"o","amount":100,"currency":"INR","notes":[]}}}}`, ErrMissingFields},
		{"missing plan", `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"o","amount":100,"currency":"INR","notes":{"user_id":"u1"}}}}}`, ErrMissingFields},
		{"missing amount", `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"o","currency":"INR","notes":{"user_id":"u1","plan_id":"pro"}}}}}`, ErrMissingFields},
		{"fractional amount", `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"o","amount":1.5,"currency":"INR","notes":{"user_id":"u1","plan_id":"pro"}}}}}`, ErrMalformedPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.body), "sig")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "499.00", FormatAmount(49900))
	assert.Equal(t, "0.05", FormatAmount(5))
	assert.Equal(t, "-1.20", FormatAmount(-120))
}
