package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/opensox/paygate/internal/domain/reconciliation"
	"github.com/opensox/paygate/internal/infrastructure/persistence/mappers"
	"github.com/opensox/paygate/internal/infrastructure/persistence/models"
	"github.com/opensox/paygate/internal/shared/db"
	apperrors "github.com/opensox/paygate/internal/shared/errors"
)

type ReconciliationRepository struct {
	db *gorm.DB
}

func NewReconciliationRepository(db *gorm.DB) *ReconciliationRepository {
	return &ReconciliationRepository{db: db}
}

func (r *ReconciliationRepository) Flag(ctx context.Context, rec *reconciliation.Record) (*reconciliation.Record, error) {
	model := mappers.ReconciliationToModel(rec)
	tx := db.GetTxFromContext(ctx, r.db)

	err := tx.Create(model).Error
	if err == nil {
		return rec, nil
	}
	if !apperrors.IsDuplicateError(err) {
		return nil, fmt.Errorf("failed to create reconciliation record: %w", err)
	}

	// Same payment failed at the same stage again.
	if err := tx.Model(&models.ReconciliationRecordModel{}).
		Where("provider_payment_id = ? AND stage = ?", model.ProviderPaymentID, model.Stage).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"error":      model.Error,
			"status":     string(reconciliation.StatusPending),
			"updated_at": model.UpdatedAt,
		}).Error; err != nil {
		return nil, fmt.Errorf("failed to update reconciliation record: %w", err)
	}

	var stored models.ReconciliationRecordModel
	if err := tx.Where("provider_payment_id = ? AND stage = ?", model.ProviderPaymentID, model.Stage).
		First(&stored).Error; err != nil {
		return nil, fmt.Errorf("failed to reload reconciliation record: %w", err)
	}

	return mappers.ReconciliationToDomain(&stored), nil
}

func (r *ReconciliationRepository) ListPending(ctx context.Context, limit int) ([]*reconciliation.Record, error) {
	var ms []*models.ReconciliationRecordModel

	query := db.GetTxFromContext(ctx, r.db).
		Where("status = ?", string(reconciliation.StatusPending)).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending reconciliation records: %w", err)
	}

	out := make([]*reconciliation.Record, 0, len(ms))
	for _, m := range ms {
		out = append(out, mappers.ReconciliationToDomain(m))
	}
	return out, nil
}

func (r *ReconciliationRepository) Update(ctx context.Context, rec *reconciliation.Record) error {
	model := mappers.ReconciliationToModel(rec)

	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.ReconciliationRecordModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":      model.Status,
			"attempts":    model.Attempts,
			"error":       model.Error,
			"updated_at":  model.UpdatedAt,
			"resolved_at": model.ResolvedAt,
		}).Error; err != nil {
		return fmt.Errorf("failed to update reconciliation record: %w", err)
	}

	return nil
}

func (r *ReconciliationRepository) CountByStatus(ctx context.Context, status reconciliation.Status) (int64, error) {
	var count int64

	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.ReconciliationRecordModel{}).
		Where("status = ?", string(status)).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count reconciliation records: %w", err)
	}

	return count, nil
}
