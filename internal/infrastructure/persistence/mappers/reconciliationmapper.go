package mappers

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/opensox/paygate/internal/domain/reconciliation"
	"github.com/opensox/paygate/internal/infrastructure/persistence/models"
)

func ReconciliationToModel(r *reconciliation.Record) *models.ReconciliationRecordModel {
	f := r.Flag()
	return &models.ReconciliationRecordModel{
		ID:                r.ID(),
		ProviderPaymentID: f.ProviderPaymentID,
		Stage:             string(f.Stage),
		EventType:         f.EventType,
		UserID:            f.UserID,
		PlanID:            f.PlanID,
		OrderID:           f.OrderID,
		AmountMinorUnits:  f.AmountMinorUnits,
		Currency:          f.Currency,
		Error:             f.Error,
		RawEvent:          rawEventToJSON(f.RawEvent),
		Status:            string(r.Status()),
		Attempts:          r.Attempts(),
		CreatedAt:         r.CreatedAt(),
		UpdatedAt:         r.UpdatedAt(),
		ResolvedAt:        r.ResolvedAt(),
	}
}

func ReconciliationToDomain(model *models.ReconciliationRecordModel) *reconciliation.Record {
	flag := reconciliation.Flag{
		ProviderPaymentID: model.ProviderPaymentID,
		EventType:         model.EventType,
		Stage:             reconciliation.Stage(model.Stage),
		UserID:            model.UserID,
		PlanID:            model.PlanID,
		OrderID:           model.OrderID,
		AmountMinorUnits:  model.AmountMinorUnits,
		Currency:          model.Currency,
		Error:             model.Error,
		RawEvent:          []byte(model.RawEvent),
	}
	resolvedAt := model.ResolvedAt
	if resolvedAt != nil {
		t := resolvedAt.UTC()
		resolvedAt = &t
	}
	return reconciliation.ReconstructRecord(
		model.ID,
		flag,
		reconciliation.Status(model.Status),
		model.Attempts,
		model.CreatedAt.UTC(),
		model.UpdatedAt.UTC(),
		resolvedAt,
	)
}

// rawEventToJSON keeps the column NULL for bodies that are not valid JSON.
func rawEventToJSON(raw []byte) datatypes.JSON {
	if len(raw) == 0 || !json.Valid(raw) {
		return nil
	}
	return datatypes.JSON(raw)
}
