package testutil

import (
	"encoding/json"
	"fmt"
)

// CapturedPayment describes a payment.captured delivery.
type CapturedPayment struct {
	PaymentID string
	OrderID   string
	Amount    int64
	Currency  string
	UserID    string
	PlanID    string
}

// DefaultCaptured returns a complete, valid delivery for user-1 on the "pro" plan.
func DefaultCaptured() CapturedPayment {
	return CapturedPayment{
		PaymentID: "pay_A",
		OrderID:   "order_A",
		Amount:    49900,
		Currency:  "INR",
		UserID:    "user-1",
		PlanID:    "pro",
	}
}

// Body renders the delivery the way the provider sends it.
func (p CapturedPayment) Body() []byte {
	body, err := json.Marshal(map[string]interface{}{
		"entity":     "event",
		"account_id": "acc_test",
		"event":      "payment.captured",
		"contains":   []string{"payment"},
		"payload": map[string]interface{}{
			"payment": map[string]interface{}{
				"entity": map[string]interface{}{
					"id":       p.PaymentID,
					"entity":   "payment",
					"order_id": p.OrderID,
					"amount":   p.Amount,
					"currency": p.Currency,
					"status":   "captured",
					"notes": map[string]string{
						"user_id": p.UserID,
						"plan_id": p.PlanID,
					},
				},
			},
		},
		"created_at": 1772359200,
	})
	if err != nil {
		panic(fmt.Sprintf("marshal captured payment: %v", err))
	}
	return body
}

// EventBody renders a delivery with an arbitrary event tag and an empty payload.
func EventBody(event string) []byte {
	return []byte(fmt.Sprintf(`{"entity":"event","event":%q,"payload":{}}`, event))
}
