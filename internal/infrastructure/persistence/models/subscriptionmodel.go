package models

import (
	"time"

	"github.com/opensox/paygate/internal/shared/constants"
)

// SubscriptionModel represents the database persistence model for subscriptions
// This is the anti-corruption layer between domain and database
type SubscriptionModel struct {
	ID                   string    `gorm:"primaryKey;size:40"`
	UserID               string    `gorm:"not null;size:64;index:idx_subscriptions_user_status,priority:1"`
	PlanID               string    `gorm:"not null;size:64"`
	Status               string    `gorm:"not null;size:20;index:idx_subscriptions_user_status,priority:2;index:idx_subscriptions_status_end,priority:1"`
	StartDate            time.Time `gorm:"not null"`
	EndDate              time.Time `gorm:"not null;index:idx_subscriptions_status_end,priority:2"`
	OriginatingPaymentID string    `gorm:"not null;size:40"`
	Version              int       `gorm:"not null;default:1"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}

// SubscriptionActivationModel is the idempotency claim for applying a payment.
type SubscriptionActivationModel struct {
	PaymentRecordID string    `gorm:"primaryKey;size:40"`
	SubscriptionID  string    `gorm:"not null;size:40;index:idx_subscription_activations_subscription"`
	UserID          string    `gorm:"not null;size:64"`
	PlanID          string    `gorm:"not null;size:64"`
	Kind            string    `gorm:"not null;size:20"`
	CreatedAt       time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (SubscriptionActivationModel) TableName() string {
	return constants.TableSubscriptionActivations
}
