package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/opensox/paygate/internal/shared/constants"
)

// ReconciliationRecordModel stores acknowledged payments whose effects did not complete.
type ReconciliationRecordModel struct {
	ID                string `gorm:"primaryKey;size:40"`
	ProviderPaymentID string `gorm:"not null;size:64;uniqueIndex:uk_reconciliation_payment_stage,priority:1"`
	Stage             string `gorm:"not null;size:32;uniqueIndex:uk_reconciliation_payment_stage,priority:2"`
	EventType         string `gorm:"not null;size:64"`
	UserID            string `gorm:"size:64"`
	PlanID            string `gorm:"size:64"`
	OrderID           string `gorm:"size:64"`
	AmountMinorUnits  int64
	Currency          string `gorm:"size:3"`
	Error             string `gorm:"type:text"`
	RawEvent          datatypes.JSON
	Status            string    `gorm:"not null;size:20;index:idx_reconciliation_status_created,priority:1"`
	Attempts          int       `gorm:"not null;default:1"`
	CreatedAt         time.Time `gorm:"index:idx_reconciliation_status_created,priority:2"`
	UpdatedAt         time.Time
	ResolvedAt        *time.Time
}

// TableName specifies the table name for GORM
func (ReconciliationRecordModel) TableName() string {
	return constants.TableReconciliationRecords
}
