package http

import (
	"fmt"

	"gorm.io/gorm"

	communityUsecases "github.com/opensox/paygate/internal/application/community/usecases"
	paymentUsecases "github.com/opensox/paygate/internal/application/payment/usecases"
	reconciliationUsecases "github.com/opensox/paygate/internal/application/reconciliation/usecases"
	subscriptionUsecases "github.com/opensox/paygate/internal/application/subscription/usecases"
	webhookUsecases "github.com/opensox/paygate/internal/application/webhook/usecases"
	"github.com/opensox/paygate/internal/domain/shared/events"
	vo "github.com/opensox/paygate/internal/domain/subscription/valueobjects"
	"github.com/opensox/paygate/internal/infrastructure/config"
	"github.com/opensox/paygate/internal/infrastructure/plancatalog"
	"github.com/opensox/paygate/internal/infrastructure/repository"
	"github.com/opensox/paygate/internal/infrastructure/signature"
	"github.com/opensox/paygate/internal/shared/db"
	"github.com/opensox/paygate/internal/shared/logger"
)

// UseCases is the payment-state core shared by the server and worker commands.
type UseCases struct {
	RecordPayment         *paymentUsecases.RecordPaymentUseCase
	ActivateSubscription  *subscriptionUsecases.ActivateSubscriptionUseCase
	GetActiveSubscription *subscriptionUsecases.GetActiveSubscriptionUseCase
	ExpireSubscriptions   *subscriptionUsecases.ExpireSubscriptionsUseCase
	FlagReconciliation    *reconciliationUsecases.FlagReconciliationUseCase
	RetryReconciliation   *reconciliationUsecases.RetryReconciliationUseCase
	HandleWebhook         *webhookUsecases.HandleWebhookUseCase
	JoinCommunity         *communityUsecases.JoinCommunityUseCase
}

// NewUseCases wires repositories and use cases over gdb. publisher may be nil.
func NewUseCases(gdb *gorm.DB, cfg *config.Config, publisher events.Publisher, log logger.Interface) (*UseCases, error) {
	policy := vo.ConflictPolicy(cfg.Subscription.PlanConflictPolicy)
	if policy == "" {
		policy = vo.ConflictSupersede
	}
	if !policy.IsValid() {
		return nil, fmt.Errorf("invalid subscription.plan_conflict_policy %q", cfg.Subscription.PlanConflictPolicy)
	}

	catalog, err := plancatalog.New(cfg.Subscription.Plans)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan catalog: %w", err)
	}
	if len(catalog.IDs()) == 0 {
		log.Warnw("no subscription plans configured, every activation will be flagged")
	}

	paymentRepo := repository.NewPaymentRecordRepository(gdb)
	subscriptionRepo := repository.NewSubscriptionRepository(gdb, log)
	reconciliationRepo := repository.NewReconciliationRepository(gdb)
	txManager := db.NewTransactionManager(gdb)
	storageTimeout := cfg.Database.StorageTimeout()

	recordPaymentUC := paymentUsecases.NewRecordPaymentUseCase(paymentRepo, log)
	recordPaymentUC.SetStorageTimeout(storageTimeout)

	activateUC := subscriptionUsecases.NewActivateSubscriptionUseCase(subscriptionRepo, catalog, txManager, log)
	activateUC.SetConflictPolicy(policy)
	activateUC.SetStorageTimeout(storageTimeout)

	getActiveUC := subscriptionUsecases.NewGetActiveSubscriptionUseCase(subscriptionRepo, log)
	getActiveUC.SetStorageTimeout(storageTimeout)

	expireUC := subscriptionUsecases.NewExpireSubscriptionsUseCase(subscriptionRepo, log)
	expireUC.SetLocks(activateUC.Locks())

	flagUC := reconciliationUsecases.NewFlagReconciliationUseCase(reconciliationRepo, log)
	flagUC.SetStorageTimeout(storageTimeout)

	retryUC := reconciliationUsecases.NewRetryReconciliationUseCase(reconciliationRepo, recordPaymentUC, activateUC, log)
	retryUC.SetLimits(cfg.Reconciliation.BatchSize, cfg.Reconciliation.MaxAttempts)

	if publisher != nil {
		activateUC.SetPublisher(publisher)
		flagUC.SetPublisher(publisher)
	}

	webhookUC := webhookUsecases.NewHandleWebhookUseCase(
		signature.NewVerifier(cfg.Webhook.Secret),
		recordPaymentUC,
		activateUC,
		flagUC,
		log,
	)
	webhookUC.SetProcessingTimeout(cfg.Webhook.ProcessingTimeout())

	joinUC := communityUsecases.NewJoinCommunityUseCase(getActiveUC, cfg.Community.InviteURL, log)

	log.Infow("payment use cases initialized",
		"plans", catalog.IDs(),
		"plan_conflict_policy", policy,
		"webhook_configured", cfg.Webhook.Secret != "",
	)

	return &UseCases{
		RecordPayment:         recordPaymentUC,
		ActivateSubscription:  activateUC,
		GetActiveSubscription: getActiveUC,
		ExpireSubscriptions:   expireUC,
		FlagReconciliation:    flagUC,
		RetryReconciliation:   retryUC,
		HandleWebhook:         webhookUC,
		JoinCommunity:         joinUC,
	}, nil
}
