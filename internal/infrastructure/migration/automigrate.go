package migration

import (
	"github.com/opensox/paygate/internal/infrastructure/persistence/models"
)

// AutoMigrateModels lists every persisted model, in dependency order.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.PaymentRecordModel{},
		&models.SubscriptionModel{},
		&models.SubscriptionActivationModel{},
		&models.ReconciliationRecordModel{},
	}
}
