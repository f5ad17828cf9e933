package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opensox/paygate/internal/domain/shared/events"
	"github.com/opensox/paygate/internal/domain/subscription"
	vo "github.com/opensox/paygate/internal/domain/subscription/valueobjects"
	"github.com/opensox/paygate/internal/infrastructure/metrics"
	"github.com/opensox/paygate/internal/shared/biztime"
	"github.com/opensox/paygate/internal/shared/db"
	apperrors "github.com/opensox/paygate/internal/shared/errors"
	"github.com/opensox/paygate/internal/shared/logger"
	"github.com/opensox/paygate/internal/shared/shardlock"
)

const defaultStorageTimeout = 5 * time.Second

type ActivateSubscriptionCommand struct {
	UserID          string
	PlanID          string
	PaymentRecordID string
}

// ActivateSubscriptionUseCase applies a recorded payment to the user's
// subscription. A payment is applied at most once; replays return the
// subscription it produced.
type ActivateSubscriptionUseCase struct {
	subscriptionRepo subscription.Repository
	planCatalog      subscription.PlanCatalog
	txRunner         db.Runner
	locks            *shardlock.Set
	policy           vo.ConflictPolicy
	publisher        events.Publisher // Optional
	clock            biztime.Clock
	storageTimeout   time.Duration
	logger           logger.Interface
}

func NewActivateSubscriptionUseCase(
	subscriptionRepo subscription.Repository,
	planCatalog subscription.PlanCatalog,
	txRunner db.Runner,
	logger logger.Interface,
) *ActivateSubscriptionUseCase {
	return &ActivateSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		planCatalog:      planCatalog,
		txRunner:         txRunner,
		locks:            shardlock.New(shardlock.DefaultShards),
		policy:           vo.ConflictSupersede,
		clock:            biztime.System(),
		storageTimeout:   defaultStorageTimeout,
		logger:           logger,
	}
}

// SetConflictPolicy decides what a payment for a different plan does to an active subscription.
func (uc *ActivateSubscriptionUseCase) SetConflictPolicy(policy vo.ConflictPolicy) {
	if policy.IsValid() {
		uc.policy = policy
	}
}

// SetPublisher sets the domain event publisher (optional dependency injection)
func (uc *ActivateSubscriptionUseCase) SetPublisher(publisher events.Publisher) {
	uc.publisher = publisher
}

func (uc *ActivateSubscriptionUseCase) SetClock(clock biztime.Clock) {
	uc.clock = clock
}

// SetStorageTimeout bounds the whole activation transaction.
func (uc *ActivateSubscriptionUseCase) SetStorageTimeout(d time.Duration) {
	uc.storageTimeout = d
}

// Locks exposes the per-user lock set so other writers of subscription state can share it.
func (uc *ActivateSubscriptionUseCase) Locks() *shardlock.Set {
	return uc.locks
}

func (uc *ActivateSubscriptionUseCase) Execute(ctx context.Context, cmd ActivateSubscriptionCommand) (*subscription.Subscription, error) {
	if cmd.UserID == "" || cmd.PlanID == "" || cmd.PaymentRecordID == "" {
		return nil, apperrors.NewValidationError("user, plan and payment record are required")
	}

	unlock := uc.locks.Lock(cmd.UserID)
	defer unlock()

	var (
		result     *subscription.Subscription
		activation *subscription.Activation
	)

	txCtx, cancel := db.WithStorageTimeout(ctx, uc.storageTimeout)
	err := uc.txRunner.RunInTransaction(txCtx, func(txCtx context.Context) error {
		var err error
		result, activation, err = uc.apply(txCtx, cmd)
		return err
	})
	cancel()

	if err != nil {
		if apperrors.IsDuplicateError(err) {
			// A concurrent transaction applied this payment first.
			return uc.replay(ctx, cmd)
		}
		return nil, uc.translate(cmd, err)
	}

	if activation == nil {
		uc.logger.Infow("payment already applied to subscription",
			"payment_record_id", cmd.PaymentRecordID,
			"subscription_id", result.ID(),
			"user_id", cmd.UserID,
		)
		metrics.SubscriptionActivationsTotal.WithLabelValues("duplicate").Inc()
		return result, nil
	}

	metrics.SubscriptionActivationsTotal.WithLabelValues(string(activation.Kind)).Inc()
	uc.logger.Infow("subscription activated",
		"subscription_id", result.ID(),
		"user_id", result.UserID(),
		"plan_id", result.PlanID(),
		"payment_record_id", activation.PaymentRecordID,
		"kind", activation.Kind,
		"end_date", result.EndDate(),
	)

	uc.publish(ctx, result, activation)
	return result, nil
}

// apply runs inside the transaction. A nil activation means the payment had
// already been applied and result is the subscription it produced.
func (uc *ActivateSubscriptionUseCase) apply(ctx context.Context, cmd ActivateSubscriptionCommand) (*subscription.Subscription, *subscription.Activation, error) {
	claimed, err := uc.subscriptionRepo.GetActivationByPaymentRecordID(ctx, cmd.PaymentRecordID)
	if err != nil {
		return nil, nil, err
	}
	if claimed != nil {
		sub, err := uc.loadClaimed(ctx, claimed)
		return sub, nil, err
	}

	plan, err := uc.planCatalog.GetPlan(ctx, cmd.PlanID)
	if err != nil {
		return nil, nil, err
	}

	now := uc.clock.Now()
	current, err := uc.subscriptionRepo.GetCurrentByUserID(ctx, cmd.UserID, now)
	if err != nil {
		return nil, nil, err
	}

	var (
		sub  *subscription.Subscription
		kind vo.ActivationKind
	)

	switch {
	case current == nil:
		if sub, err = uc.create(ctx, cmd, plan, now); err != nil {
			return nil, nil, err
		}
		kind = vo.ActivationCreated

	case current.PlanID() == plan.ID:
		if err := current.Extend(plan.Duration, cmd.PaymentRecordID, now); err != nil {
			return nil, nil, err
		}
		if err := uc.subscriptionRepo.Update(ctx, current); err != nil {
			return nil, nil, err
		}
		sub, kind = current, vo.ActivationRenewed

	case uc.policy == vo.ConflictReject:
		return nil, nil, fmt.Errorf("%w: active %s, paid %s", subscription.ErrPlanConflict, current.PlanID(), plan.ID)

	default:
		if err := current.MarkAsExpired(now); err != nil {
			return nil, nil, err
		}
		if err := uc.subscriptionRepo.Update(ctx, current); err != nil {
			return nil, nil, err
		}
		if sub, err = uc.create(ctx, cmd, plan, now); err != nil {
			return nil, nil, err
		}
		kind = vo.ActivationSuperseded
		uc.logger.Infow("subscription superseded by different plan",
			"user_id", cmd.UserID,
			"previous_subscription_id", current.ID(),
			"previous_plan_id", current.PlanID(),
			"plan_id", plan.ID,
		)
	}

	activation := &subscription.Activation{
		PaymentRecordID: cmd.PaymentRecordID,
		SubscriptionID:  sub.ID(),
		UserID:          cmd.UserID,
		PlanID:          plan.ID,
		Kind:            kind,
		CreatedAt:       now.UTC(),
	}
	if err := uc.subscriptionRepo.CreateActivation(ctx, activation); err != nil {
		return nil, nil, err
	}

	return sub, activation, nil
}

func (uc *ActivateSubscriptionUseCase) create(ctx context.Context, cmd ActivateSubscriptionCommand, plan subscription.Plan, now time.Time) (*subscription.Subscription, error) {
	sub, err := subscription.NewSubscription(cmd.UserID, plan, cmd.PaymentRecordID, now)
	if err != nil {
		return nil, err
	}
	if err := uc.subscriptionRepo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (uc *ActivateSubscriptionUseCase) loadClaimed(ctx context.Context, claimed *subscription.Activation) (*subscription.Subscription, error) {
	sub, err := uc.subscriptionRepo.GetByID(ctx, claimed.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("activation for payment %s points at %s: %w",
			claimed.PaymentRecordID, claimed.SubscriptionID, subscription.ErrSubscriptionNotFound)
	}
	return sub, nil
}

func (uc *ActivateSubscriptionUseCase) replay(ctx context.Context, cmd ActivateSubscriptionCommand) (*subscription.Subscription, error) {
	readCtx, cancel := db.WithStorageTimeout(ctx, uc.storageTimeout)
	defer cancel()

	claimed, err := uc.subscriptionRepo.GetActivationByPaymentRecordID(readCtx, cmd.PaymentRecordID)
	if err == nil && claimed == nil {
		err = errors.New("duplicate activation claim not readable")
	}
	if err != nil {
		return nil, uc.translate(cmd, err)
	}

	sub, err := uc.loadClaimed(readCtx, claimed)
	if err != nil {
		return nil, uc.translate(cmd, err)
	}
	metrics.SubscriptionActivationsTotal.WithLabelValues("duplicate").Inc()
	return sub, nil
}

func (uc *ActivateSubscriptionUseCase) translate(cmd ActivateSubscriptionCommand, err error) error {
	if apperrors.IsAppError(err) {
		return err
	}

	switch {
	case errors.Is(err, subscription.ErrPlanNotFound):
		return apperrors.NewValidationError("unknown plan", cmd.PlanID)
	case errors.Is(err, subscription.ErrPlanConflict):
		uc.logger.Warnw("payment rejected by plan conflict policy",
			"user_id", cmd.UserID,
			"plan_id", cmd.PlanID,
			"payment_record_id", cmd.PaymentRecordID,
			"error", err,
		)
		return apperrors.NewConflictError("user already has an active subscription on a different plan", err.Error())
	case errors.Is(err, subscription.ErrVersionConflict):
		return apperrors.NewConflictError("subscription was modified concurrently", err.Error())
	}

	uc.logger.Errorw("failed to activate subscription",
		"user_id", cmd.UserID,
		"plan_id", cmd.PlanID,
		"payment_record_id", cmd.PaymentRecordID,
		"error", err,
	)
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewInfrastructureError("subscription storage timed out", err)
	}
	return apperrors.NewInfrastructureError("subscription storage unavailable", err)
}

func (uc *ActivateSubscriptionUseCase) publish(ctx context.Context, sub *subscription.Subscription, activation *subscription.Activation) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, subscription.NewActivatedEvent(sub, activation)); err != nil {
		uc.logger.Warnw("failed to publish subscription activated event",
			"subscription_id", sub.ID(),
			"payment_record_id", activation.PaymentRecordID,
			"error", err,
		)
	}
}
