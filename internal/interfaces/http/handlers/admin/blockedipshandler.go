package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opensox/paygate/internal/infrastructure/ipguard"
	"github.com/opensox/paygate/internal/shared/biztime"
	"github.com/opensox/paygate/internal/shared/logger"
	"github.com/opensox/paygate/internal/shared/utils"
)

// BanLister exposes the guard's ban table without mutating it.
type BanLister interface {
	ListBanned() []ipguard.BanRecord
}

type BlockedIPResponse struct {
	Address        string `json:"address"`
	ViolationCount int    `json:"violation_count"`
	BannedUntil    string `json:"banned_until"`
}

type BlockedIPsHandler struct {
	guard  BanLister
	logger logger.Interface
}

func NewBlockedIPsHandler(guard BanLister, logger logger.Interface) *BlockedIPsHandler {
	return &BlockedIPsHandler{guard: guard, logger: logger}
}

// List returns currently banned addresses, longest ban first.
func (h *BlockedIPsHandler) List(c *gin.Context) {
	records := h.guard.ListBanned()

	items := make([]BlockedIPResponse, 0, len(records))
	for _, r := range records {
		item := BlockedIPResponse{
			Address:        r.Address,
			ViolationCount: r.ViolationCount,
		}
		if r.BannedUntil != nil {
			item.BannedUntil = biztime.RFC3339(*r.BannedUntil)
		}
		items = append(items, item)
	}

	h.logger.Debugw("blocked ip list served", "count", len(items))
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"blocked_ips": items,
		"count":       len(items),
	})
}
