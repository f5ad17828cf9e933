package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	webhookUsecases "github.com/opensox/paygate/internal/application/webhook/usecases"
	"github.com/opensox/paygate/internal/interfaces/http/middleware"
	"github.com/opensox/paygate/internal/shared/logger"
	"github.com/opensox/paygate/internal/shared/utils"
)

const defaultWebhookBodyLimit = 1 << 20

// WebhookProcessor runs one delivery through the webhook state machine.
type WebhookProcessor interface {
	Execute(ctx context.Context, delivery webhookUsecases.WebhookDelivery) webhookUsecases.Outcome
}

type WebhookHandler struct {
	processor       WebhookProcessor
	signatureHeader string
	maxBodyBytes    int64
	logger          logger.Interface
}

func NewWebhookHandler(processor WebhookProcessor, signatureHeader string, maxBodyBytes int64, logger logger.Interface) *WebhookHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultWebhookBodyLimit
	}
	return &WebhookHandler{
		processor:       processor,
		signatureHeader: signatureHeader,
		maxBodyBytes:    maxBodyBytes,
		logger:          logger,
	}
}

// HandleRazorpay reads the raw body exactly as sent. The signature covers
// these bytes, so the body is never decoded before verification.
func (h *WebhookHandler) HandleRazorpay(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxBodyBytes+1))
	if err != nil {
		h.logger.Warnw("failed to read webhook body", "client_ip", c.ClientIP(), "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, webhookUsecases.MsgMalformedPayload)
		return
	}
	if int64(len(body)) > h.maxBodyBytes {
		h.logger.Warnw("webhook body exceeds limit",
			"client_ip", c.ClientIP(),
			"limit", h.maxBodyBytes,
		)
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	out := h.processor.Execute(c.Request.Context(), webhookUsecases.WebhookDelivery{
		Body:          body,
		Signature:     c.GetHeader(h.signatureHeader),
		SourceAddress: utils.NormalizeIP(c.ClientIP()),
	})

	if out.Violation {
		middleware.MarkViolation(c)
	}

	if out.State == webhookUsecases.StateRejected {
		utils.ErrorResponse(c, out.StatusCode, out.Message)
		return
	}
	c.JSON(out.StatusCode, gin.H{"status": out.Message})
}
