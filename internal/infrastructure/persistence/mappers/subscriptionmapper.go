package mappers

import (
	"fmt"

	"github.com/opensox/paygate/internal/domain/subscription"
	vo "github.com/opensox/paygate/internal/domain/subscription/valueobjects"
	"github.com/opensox/paygate/internal/infrastructure/persistence/models"
)

func SubscriptionToModel(s *subscription.Subscription) *models.SubscriptionModel {
	return &models.SubscriptionModel{
		ID:                   s.ID(),
		UserID:               s.UserID(),
		PlanID:               s.PlanID(),
		Status:               s.Status().String(),
		StartDate:            s.StartDate(),
		EndDate:              s.EndDate(),
		OriginatingPaymentID: s.OriginatingPaymentID(),
		Version:              s.Version(),
		CreatedAt:            s.CreatedAt(),
		UpdatedAt:            s.UpdatedAt(),
	}
}

func SubscriptionToDomain(model *models.SubscriptionModel) (*subscription.Subscription, error) {
	s, err := subscription.ReconstructSubscription(
		model.ID,
		model.UserID,
		model.PlanID,
		vo.SubscriptionStatus(model.Status),
		model.StartDate.UTC(),
		model.EndDate.UTC(),
		model.OriginatingPaymentID,
		model.Version,
		model.CreatedAt.UTC(),
		model.UpdatedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to map subscription %s: %w", model.ID, err)
	}
	return s, nil
}

func SubscriptionsToDomain(ms []*models.SubscriptionModel) ([]*subscription.Subscription, error) {
	out := make([]*subscription.Subscription, 0, len(ms))
	for _, m := range ms {
		s, err := SubscriptionToDomain(m)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func ActivationToModel(a *subscription.Activation) *models.SubscriptionActivationModel {
	return &models.SubscriptionActivationModel{
		PaymentRecordID: a.PaymentRecordID,
		SubscriptionID:  a.SubscriptionID,
		UserID:          a.UserID,
		PlanID:          a.PlanID,
		Kind:            string(a.Kind),
		CreatedAt:       a.CreatedAt,
	}
}

func ActivationToDomain(model *models.SubscriptionActivationModel) *subscription.Activation {
	return &subscription.Activation{
		PaymentRecordID: model.PaymentRecordID,
		SubscriptionID:  model.SubscriptionID,
		UserID:          model.UserID,
		PlanID:          model.PlanID,
		Kind:            vo.ActivationKind(model.Kind),
		CreatedAt:       model.CreatedAt.UTC(),
	}
}
