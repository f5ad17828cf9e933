package usecases

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	paymentUsecases "github.com/opensox/paygate/internal/application/payment/usecases"
	subscriptionUsecases "github.com/opensox/paygate/internal/application/subscription/usecases"
	"github.com/opensox/paygate/internal/domain/payment"
	"github.com/opensox/paygate/internal/domain/reconciliation"
	"github.com/opensox/paygate/internal/domain/subscription"
	"github.com/opensox/paygate/internal/domain/webhook"
	"github.com/opensox/paygate/internal/infrastructure/metrics"
	"github.com/opensox/paygate/internal/infrastructure/signature"
	"github.com/opensox/paygate/internal/shared/logger"
)

const defaultProcessingTimeout = 10 * time.Second

// State is a step of webhook processing. Deliveries move forward only and end
// in StateAcknowledged or StateRejected.
type State string

const (
	StateReceived              State = "received"
	StateSignatureVerified     State = "signature_verified"
	StateEventParsed           State = "event_parsed"
	StatePaymentRecorded       State = "payment_recorded"
	StateSubscriptionActivated State = "subscription_activated"
	StateAcknowledged          State = "acknowledged"
	StateRejected              State = "rejected"
)

const (
	MsgNotConfigured    = "webhook not configured"
	MsgMissingSignature = "missing signature"
	MsgInvalidSignature = "invalid signature"
	MsgMalformedPayload = "malformed payload"
	MsgMissingFields    = "missing required fields"
	MsgOK               = "ok"
)

// WebhookDelivery is one inbound notification. Body holds the exact bytes read off the wire.
type WebhookDelivery struct {
	Body          []byte
	Signature     string
	SourceAddress string
}

// Outcome is the terminal result of a delivery.
type Outcome struct {
	State      State
	StatusCode int
	Message    string
	// Violation asks the admission guard to count this delivery against its source.
	Violation bool
	// Reconciliation is set when the delivery was acknowledged but its effects did not complete.
	Reconciliation *reconciliation.Flag
}

// SignatureChecker authenticates raw webhook bodies.
type SignatureChecker interface {
	Configured() bool
	Check(rawBody []byte, supplied string) signature.Reason
}

type PaymentRecorder interface {
	Execute(ctx context.Context, cmd paymentUsecases.RecordPaymentCommand) (*payment.Record, error)
}

type SubscriptionActivator interface {
	Execute(ctx context.Context, cmd subscriptionUsecases.ActivateSubscriptionCommand) (*subscription.Subscription, error)
}

type ReconciliationFlagger interface {
	Execute(ctx context.Context, flag reconciliation.Flag) (*reconciliation.Record, error)
}

// HandleWebhookUseCase turns a signed payment notification into a recorded
// payment and an activated subscription. Once the signature is valid the
// provider always gets a 2xx for parseable events; failures past that point
// are flagged for reconciliation instead of being retried by the provider.
type HandleWebhookUseCase struct {
	verifier          SignatureChecker
	recordPayment     PaymentRecorder
	activate          SubscriptionActivator
	flagger           ReconciliationFlagger
	processingTimeout time.Duration
	logger            logger.Interface
}

func NewHandleWebhookUseCase(
	verifier SignatureChecker,
	recordPayment PaymentRecorder,
	activate SubscriptionActivator,
	flagger ReconciliationFlagger,
	logger logger.Interface,
) *HandleWebhookUseCase {
	return &HandleWebhookUseCase{
		verifier:          verifier,
		recordPayment:     recordPayment,
		activate:          activate,
		flagger:           flagger,
		processingTimeout: defaultProcessingTimeout,
		logger:            logger,
	}
}

// SetProcessingTimeout bounds everything after signature verification.
func (uc *HandleWebhookUseCase) SetProcessingTimeout(d time.Duration) {
	if d > 0 {
		uc.processingTimeout = d
	}
}

func (uc *HandleWebhookUseCase) Execute(ctx context.Context, delivery WebhookDelivery) Outcome {
	out := uc.process(ctx, delivery)
	metrics.WebhookDeliveriesTotal.WithLabelValues(string(out.State), strconv.Itoa(out.StatusCode)).Inc()
	return out
}

func (uc *HandleWebhookUseCase) process(ctx context.Context, delivery WebhookDelivery) Outcome {
	// received
	if !uc.verifier.Configured() {
		uc.logger.Errorw("webhook secret is not configured, rejecting delivery",
			"source", delivery.SourceAddress,
		)
		return rejected(http.StatusInternalServerError, MsgNotConfigured, false)
	}

	switch reason := uc.verifier.Check(delivery.Body, delivery.Signature); reason {
	case signature.ReasonValid:
	case signature.ReasonMissingSignature:
		uc.logger.Warnw("webhook delivery without signature", "source", delivery.SourceAddress)
		return rejected(http.StatusBadRequest, MsgMissingSignature, true)
	default:
		uc.logger.Warnw("webhook signature rejected",
			"source", delivery.SourceAddress,
			"reason", reason,
			"body_bytes", len(delivery.Body),
		)
		return rejected(http.StatusBadRequest, MsgInvalidSignature, true)
	}
	// signature_verified

	event, err := webhook.Decode(delivery.Body, delivery.Signature)
	if err != nil {
		msg := MsgMalformedPayload
		if errors.Is(err, webhook.ErrMissingFields) {
			msg = MsgMissingFields
		}
		uc.logger.Warnw("webhook payload rejected",
			"source", delivery.SourceAddress,
			"error", err,
		)
		return rejected(http.StatusBadRequest, msg, false)
	}
	// event_parsed

	captured, ok := event.(webhook.PaymentCaptured)
	if !ok {
		uc.logger.Infow("webhook event acknowledged without action", "event", event.EventType())
		return acknowledged()
	}

	procCtx, cancel := context.WithTimeout(ctx, uc.processingTimeout)
	defer cancel()

	record, err := uc.recordPayment.Execute(procCtx, paymentUsecases.RecordPaymentCommand{
		UserID:            captured.UserID,
		ProviderPaymentID: captured.PaymentID,
		ProviderOrderID:   captured.OrderID,
		AmountMinorUnits:  captured.AmountMinorUnits,
		Currency:          captured.Currency,
	})
	if err != nil {
		return uc.flag(ctx, captured, delivery, reconciliation.StagePaymentRecord, err)
	}
	// payment_recorded

	if _, err := uc.activate.Execute(procCtx, subscriptionUsecases.ActivateSubscriptionCommand{
		UserID:          record.UserID(),
		PlanID:          captured.PlanID,
		PaymentRecordID: record.ID(),
	}); err != nil {
		return uc.flag(ctx, captured, delivery, reconciliation.StageSubscriptionActivation, err)
	}
	// subscription_activated

	uc.logger.Infow("payment captured and applied",
		"provider_payment_id", captured.PaymentID,
		"order_id", captured.OrderID,
		"user_id", record.UserID(),
		"plan_id", captured.PlanID,
		"amount", webhook.FormatAmount(record.AmountMinorUnits()),
		"currency", record.Currency(),
	)
	return acknowledged()
}

// flag acknowledges the delivery and records it for reconciliation.
func (uc *HandleWebhookUseCase) flag(
	ctx context.Context,
	captured webhook.PaymentCaptured,
	delivery WebhookDelivery,
	stage reconciliation.Stage,
	cause error,
) Outcome {
	f := reconciliation.Flag{
		ProviderPaymentID: captured.PaymentID,
		EventType:         captured.EventType(),
		Stage:             stage,
		UserID:            captured.UserID,
		PlanID:            captured.PlanID,
		OrderID:           captured.OrderID,
		AmountMinorUnits:  captured.AmountMinorUnits,
		Currency:          captured.Currency,
		Error:             cause.Error(),
		RawEvent:          delivery.Body,
	}

	uc.logger.Errorw("webhook processing failed, flagging for reconciliation",
		"provider_payment_id", captured.PaymentID,
		"order_id", captured.OrderID,
		"user_id", captured.UserID,
		"plan_id", captured.PlanID,
		"stage", stage,
		"error", cause,
	)

	// The flagger logs its own failures with every identifier.
	_, _ = uc.flagger.Execute(ctx, f)

	out := acknowledged()
	out.Reconciliation = &f
	return out
}

func rejected(code int, msg string, violation bool) Outcome {
	return Outcome{State: StateRejected, StatusCode: code, Message: msg, Violation: violation}
}

func acknowledged() Outcome {
	return Outcome{State: StateAcknowledged, StatusCode: http.StatusOK, Message: MsgOK}
}
