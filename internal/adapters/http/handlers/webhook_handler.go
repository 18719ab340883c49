// Package handlers - Webhook HTTP handler (§6 POST /wallet/webhook, §4.7).
package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/ficore/vaswallet/internal/adapters/http/common"
	domainerrors "github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/gin-gonic/gin"
)

// WebhookProcessor verifies and applies an inbound funding-provider callback.
type WebhookProcessor interface {
	Process(ctx context.Context, rawBody []byte, signatureHex string) error
}

// WebhookHandler serves the §6 /wallet/webhook route.
type WebhookHandler struct {
	processor WebhookProcessor
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(processor WebhookProcessor) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

// signatureHeader is the HMAC signature header the funding provider sends
// on every webhook callback (§4.7).
const signatureHeader = "monnify-signature"

// HandleWebhook handles POST /wallet/webhook. It must read the raw body
// before any JSON binding so the Processor can verify the HMAC signature
// against exactly the bytes the provider signed.
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		common.BadRequestResponse(c, "failed to read request body")
		return
	}

	signature := c.GetHeader(signatureHeader)

	err = h.processor.Process(c.Request.Context(), rawBody, signature)
	if err != nil {
		if domainerrors.IsDuplicateRequest(err) {
			// §7: InvalidWebhookIdempotent -> 200 ack, do not reprocess.
			common.Success(c, http.StatusOK, gin.H{"acknowledged": true})
			return
		}
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, gin.H{"acknowledged": true})
}

// RegisterRoutes registers the webhook route. This route is intentionally
// NOT behind the JWT auth middleware - it is authenticated instead by its
// own HMAC signature check (§4.7).
func (h *WebhookHandler) RegisterRoutes(public *gin.RouterGroup) {
	public.POST("/wallet/webhook", h.HandleWebhook)
}
