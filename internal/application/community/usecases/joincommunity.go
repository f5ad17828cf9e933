package usecases

import (
	"context"

	"github.com/opensox/paygate/internal/domain/subscription"
	apperrors "github.com/opensox/paygate/internal/shared/errors"
	"github.com/opensox/paygate/internal/shared/logger"
)

const joinMessage = "Welcome! Use this link to join the community."

// ActiveSubscriptionQuery reports the user's current subscription, or nil.
type ActiveSubscriptionQuery interface {
	Execute(ctx context.Context, userID string) (*subscription.Subscription, error)
}

type JoinCommunityResult struct {
	InviteURL string `json:"invite_url"`
	Message   string `json:"message"`
}

// JoinCommunityUseCase hands out the community invite link to paying users.
type JoinCommunityUseCase struct {
	activeQuery ActiveSubscriptionQuery
	inviteURL   string
	logger      logger.Interface
}

func NewJoinCommunityUseCase(
	activeQuery ActiveSubscriptionQuery,
	inviteURL string,
	logger logger.Interface,
) *JoinCommunityUseCase {
	return &JoinCommunityUseCase{
		activeQuery: activeQuery,
		inviteURL:   inviteURL,
		logger:      logger,
	}
}

func (uc *JoinCommunityUseCase) Execute(ctx context.Context, userID string) (*JoinCommunityResult, error) {
	sub, err := uc.activeQuery.Execute(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		uc.logger.Infow("community access denied, no active subscription", "user_id", userID)
		return nil, apperrors.NewForbiddenError("an active subscription is required")
	}

	if uc.inviteURL == "" {
		uc.logger.Errorw("community invite url is not configured", "user_id", userID)
		return nil, apperrors.NewInternalError("community invite is unavailable")
	}

	uc.logger.Infow("community invite issued",
		"user_id", userID,
		"subscription_id", sub.ID(),
		"plan_id", sub.PlanID(),
	)
	return &JoinCommunityResult{InviteURL: uc.inviteURL, Message: joinMessage}, nil
}
