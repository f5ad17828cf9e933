package usecases

import (
	"context"

	paymentUsecases "github.com/opensox/paygate/internal/application/payment/usecases"
	subscriptionUsecases "github.com/opensox/paygate/internal/application/subscription/usecases"
	"github.com/opensox/paygate/internal/domain/payment"
	"github.com/opensox/paygate/internal/domain/subscription"
)

// PaymentRecorder is the payment ledger.
type PaymentRecorder interface {
	Execute(ctx context.Context, cmd paymentUsecases.RecordPaymentCommand) (*payment.Record, error)
}

// SubscriptionActivator applies a recorded payment to subscription state.
type SubscriptionActivator interface {
	Execute(ctx context.Context, cmd subscriptionUsecases.ActivateSubscriptionCommand) (*subscription.Subscription, error)
}
