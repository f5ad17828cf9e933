package mappers

import (
	"github.com/opensox/paygate/internal/domain/payment"
	"github.com/opensox/paygate/internal/infrastructure/persistence/models"
)

func PaymentRecordToModel(r *payment.Record) *models.PaymentRecordModel {
	return &models.PaymentRecordModel{
		ID:                r.ID(),
		UserID:            r.UserID(),
		ProviderPaymentID: r.ProviderPaymentID(),
		ProviderOrderID:   r.ProviderOrderID(),
		AmountMinorUnits:  r.AmountMinorUnits(),
		Currency:          r.Currency(),
		CreatedAt:         r.CreatedAt(),
	}
}

func PaymentRecordToDomain(model *models.PaymentRecordModel) (*payment.Record, error) {
	return payment.ReconstructRecord(
		model.ID,
		model.UserID,
		model.ProviderPaymentID,
		model.ProviderOrderID,
		model.AmountMinorUnits,
		model.Currency,
		model.CreatedAt.UTC(),
	)
}
