package subscription

import (
	"time"

	vo "github.com/opensox/paygate/internal/domain/subscription/valueobjects"
)

// Activation records that a payment has been applied to subscription state.
// At most one exists per payment record.
type Activation struct {
	PaymentRecordID string
	SubscriptionID  string
	UserID          string
	PlanID          string
	Kind            vo.ActivationKind
	CreatedAt       time.Time
}
