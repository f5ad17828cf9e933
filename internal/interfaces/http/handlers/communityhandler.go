package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	communityUsecases "github.com/opensox/paygate/internal/application/community/usecases"
	"github.com/opensox/paygate/internal/shared/constants"
	"github.com/opensox/paygate/internal/shared/logger"
	"github.com/opensox/paygate/internal/shared/utils"
)

type CommunityJoiner interface {
	Execute(ctx context.Context, userID string) (*communityUsecases.JoinCommunityResult, error)
}

type CommunityHandler struct {
	joinUC CommunityJoiner
	logger logger.Interface
}

func NewCommunityHandler(joinUC CommunityJoiner, logger logger.Interface) *CommunityHandler {
	return &CommunityHandler{
		joinUC: joinUC,
		logger: logger,
	}
}

// Join returns the community invite link for users with an active subscription.
func (h *CommunityHandler) Join(c *gin.Context) {
	userID := c.GetString(constants.ContextKeyUserID)
	if userID == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, constants.ErrMsgUnauthorized)
		return
	}

	result, err := h.joinUC.Execute(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
