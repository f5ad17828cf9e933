package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/opensox/paygate/internal/domain/subscription"
	vo "github.com/opensox/paygate/internal/domain/subscription/valueobjects"
	"github.com/opensox/paygate/internal/infrastructure/persistence/mappers"
	"github.com/opensox/paygate/internal/infrastructure/persistence/models"
	"github.com/opensox/paygate/internal/shared/db"
	"github.com/opensox/paygate/internal/shared/logger"
)

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewSubscriptionRepository(db *gorm.DB, logger logger.Interface) *SubscriptionRepositoryImpl {
	return &SubscriptionRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, s *subscription.Subscription) error {
	model := mappers.SubscriptionToModel(s)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create subscription in database", "user_id", s.UserID(), "error", err)
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

// Update writes s only if the stored row is still at the previous version.
func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, s *subscription.Subscription) error {
	model := mappers.SubscriptionToModel(s)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.SubscriptionModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(map[string]interface{}{
			"plan_id":                model.PlanID,
			"status":                 model.Status,
			"start_date":             model.StartDate,
			"end_date":               model.EndDate,
			"originating_payment_id": model.OriginatingPaymentID,
			"version":                model.Version,
			"updated_at":             model.UpdatedAt,
		})

	if result.Error != nil {
		r.logger.Errorw("failed to update subscription", "subscription_id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("subscription %s: %w", model.ID, subscription.ErrVersionConflict)
	}

	return nil
}

func (r *SubscriptionRepositoryImpl) GetByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	if err := db.GetTxFromContext(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get subscription by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return mappers.SubscriptionToDomain(&model)
}

func (r *SubscriptionRepositoryImpl) GetCurrentByUserID(ctx context.Context, userID string, now time.Time) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("user_id = ? AND status = ? AND end_date > ?", userID, string(vo.StatusActive), now.UTC()).
		Order("end_date DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get current subscription", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get current subscription: %w", err)
	}

	return mappers.SubscriptionToDomain(&model)
}

func (r *SubscriptionRepositoryImpl) FindExpired(ctx context.Context, now time.Time, limit int) ([]*subscription.Subscription, error) {
	var ms []*models.SubscriptionModel

	query := db.GetTxFromContext(ctx, r.db).
		Where("status = ? AND end_date <= ?", string(vo.StatusActive), now.UTC()).
		Order("end_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&ms).Error; err != nil {
		r.logger.Errorw("failed to find expired subscriptions", "error", err)
		return nil, fmt.Errorf("failed to find expired subscriptions: %w", err)
	}

	return mappers.SubscriptionsToDomain(ms)
}

func (r *SubscriptionRepositoryImpl) CreateActivation(ctx context.Context, a *subscription.Activation) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(mappers.ActivationToModel(a)).Error; err != nil {
		return fmt.Errorf("failed to create subscription activation: %w", err)
	}
	return nil
}

func (r *SubscriptionRepositoryImpl) GetActivationByPaymentRecordID(ctx context.Context, paymentRecordID string) (*subscription.Activation, error) {
	var model models.SubscriptionActivationModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("payment_record_id = ?", paymentRecordID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription activation: %w", err)
	}

	return mappers.ActivationToDomain(&model), nil
}
