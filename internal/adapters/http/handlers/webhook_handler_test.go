package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	domainerrors "github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type mockWebhookProcessor struct {
	Fn func(ctx context.Context, rawBody []byte, signatureHex string) error
}

func (m *mockWebhookProcessor) Process(ctx context.Context, rawBody []byte, signatureHex string) error {
	return m.Fn(ctx, rawBody, signatureHex)
}

func setupWebhookTestRouter(handler *WebhookHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.RegisterRoutes(router.Group(""))
	return router
}

func TestWebhookHandler_HandleWebhook(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := NewWebhookHandler(&mockWebhookProcessor{Fn: func(ctx context.Context, rawBody []byte, signatureHex string) error {
			assert.Equal(t, "abc123", signatureHex)
			assert.Equal(t, `{"event":"funding.success"}`, string(rawBody))
			return nil
		}})
		router := setupWebhookTestRouter(handler)

		req := httptest.NewRequest(http.MethodPost, "/wallet/webhook", bytes.NewBufferString(`{"event":"funding.success"}`))
		req.Header.Set(signatureHeader, "abc123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("DuplicateIsAcknowledged", func(t *testing.T) {
		handler := NewWebhookHandler(&mockWebhookProcessor{Fn: func(ctx context.Context, rawBody []byte, signatureHex string) error {
			return &domainerrors.DuplicateRequestError{Reference: "ref-1", Recent: true}
		}})
		router := setupWebhookTestRouter(handler)

		req := httptest.NewRequest(http.MethodPost, "/wallet/webhook", bytes.NewBufferString(`{}`))
		req.Header.Set(signatureHeader, "sig")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("InvalidSignatureRejected", func(t *testing.T) {
		handler := NewWebhookHandler(&mockWebhookProcessor{Fn: func(ctx context.Context, rawBody []byte, signatureHex string) error {
			return &domainerrors.WebhookSignatureError{Reason: "mismatch"}
		}})
		router := setupWebhookTestRouter(handler)

		req := httptest.NewRequest(http.MethodPost, "/wallet/webhook", bytes.NewBufferString(`{}`))
		req.Header.Set(signatureHeader, "bad-sig")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
