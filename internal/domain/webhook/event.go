// Package webhook decodes payment provider notifications into typed events.
package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/opensox/paygate/internal/shared/utils"
)

const EventPaymentCaptured = "payment.captured"

var (
	// ErrMalformedPayload means the body is not a JSON object with an event tag.
	ErrMalformedPayload = errors.New("malformed webhook payload")
	// ErrMissingFields means a recognised event lacks fields required to act on it.
	ErrMissingFields = errors.New("webhook payload missing required fields")
)

// Event is one decoded delivery. Exactly one of the concrete variants below.
type Event interface {
	EventType() string
	isEvent()
}

// PaymentCaptured is the only variant that changes billing state.
type PaymentCaptured struct {
	PaymentID        string
	OrderID          string
	AmountMinorUnits int64
	Currency         string
	UserID           string
	PlanID           string
	Signature        string
}

func (PaymentCaptured) EventType() string { return EventPaymentCaptured }
func (PaymentCaptured) isEvent()          {}

// UnhandledEvent is any other tag. It is acknowledged without side effects.
type UnhandledEvent struct {
	Type string
}

func (e UnhandledEvent) EventType() string { return e.Type }
func (UnhandledEvent) isEvent()            {}

type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type capturedPayload struct {
	Payment struct {
		Entity paymentEntity `json:"entity"`
	} `json:"payment"`
}

type paymentEntity struct {
	ID       string       `json:"id" validate:"required"`
	OrderID  string       `json:"order_id"`
	Amount   *int64       `json:"amount" validate:"required,gte=0"`
	Currency string       `json:"currency" validate:"required,len=3"`
	Notes    paymentNotes `json:"notes"`
}

type paymentNotes struct {
	UserID string `json:"user_id" validate:"required"`
	PlanID string `json:"plan_id" validate:"required"`
}

// UnmarshalJSON accepts the provider's empty-notes encoding ("[]") and
// numeric ids alongside the usual object of strings.
func (n *paymentNotes) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || (len(trimmed) > 0 && trimmed[0] == '[') {
		*n = paymentNotes{}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	n.UserID = noteString(raw["user_id"])
	n.PlanID = noteString(raw["plan_id"])
	return nil
}

func noteString(v json.RawMessage) string {
	if len(v) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var num json.Number
	if err := json.Unmarshal(v, &num); err == nil {
		return num.String()
	}
	return ""
}

// Decode parses a verified body. It must only be called after the signature
// over the same bytes has been checked.
func Decode(body []byte, signature string) (Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("%w: event tag is empty", ErrMalformedPayload)
	}

	if env.Event != EventPaymentCaptured {
		return UnhandledEvent{Type: env.Event}, nil
	}

	var p capturedPayload
	if len(env.Payload) == 0 {
		return nil, fmt.Errorf("%w: payload is empty", ErrMissingFields)
	}
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := utils.ValidateStruct(p.Payment.Entity); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingFields, err)
	}

	entity := p.Payment.Entity
	return PaymentCaptured{
		PaymentID:        entity.ID,
		OrderID:          entity.OrderID,
		AmountMinorUnits: *entity.Amount,
		Currency:         entity.Currency,
		UserID:           entity.Notes.UserID,
		PlanID:           entity.Notes.PlanID,
		Signature:        signature,
	}, nil
}

// FormatAmount renders minor units for logs, e.g. 49900 -> "499.00".
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	frac := strconv.FormatInt(minor%100, 10)
	if len(frac) == 1 {
		frac = "0" + frac
	}
	return sign + strconv.FormatInt(minor/100, 10) + "." + frac
}
