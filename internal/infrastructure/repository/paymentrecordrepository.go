package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/opensox/paygate/internal/domain/payment"
	"github.com/opensox/paygate/internal/infrastructure/persistence/mappers"
	"github.com/opensox/paygate/internal/infrastructure/persistence/models"
	"github.com/opensox/paygate/internal/shared/db"
)

type PaymentRecordRepository struct {
	db *gorm.DB
}

func NewPaymentRecordRepository(db *gorm.DB) *PaymentRecordRepository {
	return &PaymentRecordRepository{db: db}
}

// Create inserts r. A second insert for the same provider payment id fails
// with the driver's duplicate-key error, wrapped.
func (r *PaymentRecordRepository) Create(ctx context.Context, record *payment.Record) error {
	model := mappers.PaymentRecordToModel(record)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create payment record: %w", err)
	}

	return nil
}

func (r *PaymentRecordRepository) GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*payment.Record, error) {
	var model models.PaymentRecordModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("provider_payment_id = ?", providerPaymentID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment record by provider_payment_id: %w", err)
	}

	return mappers.PaymentRecordToDomain(&model)
}
