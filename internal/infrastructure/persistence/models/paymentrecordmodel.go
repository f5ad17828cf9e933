package models

import (
	"time"

	"github.com/opensox/paygate/internal/shared/constants"
)

// PaymentRecordModel represents the database persistence model for captured payments.
// Rows are insert-only.
type PaymentRecordModel struct {
	ID                string    `gorm:"primaryKey;size:40"`
	UserID            string    `gorm:"not null;size:64;index:idx_payment_records_user"`
	ProviderPaymentID string    `gorm:"not null;size:64;uniqueIndex:uk_payment_records_provider_payment_id"`
	ProviderOrderID   string    `gorm:"not null;size:64;index:idx_payment_records_order"`
	AmountMinorUnits  int64     `gorm:"not null"`
	Currency          string    `gorm:"not null;size:3"`
	CreatedAt         time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (PaymentRecordModel) TableName() string {
	return constants.TablePaymentRecords
}
