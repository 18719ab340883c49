// Package handlers - Transaction HTTP handlers (§6: /wallet/transactions/all,
// /wallet/transactions/sync).
package handlers

import (
	"context"
	"net/http"

	"github.com/ficore/vaswallet/internal/adapters/http/common"
	"github.com/ficore/vaswallet/internal/adapters/http/middleware"
	"github.com/ficore/vaswallet/internal/application/dtos"
	"github.com/gin-gonic/gin"
)

// ============================================
// Use Case Interfaces
// ============================================

// ListTransactionsUseCase returns a page of a user's VAS transactions.
type ListTransactionsUseCase interface {
	Execute(ctx context.Context, query dtos.ListTransactionsQuery) (*dtos.VasTransactionListDTO, error)
}

// SyncTransactionsUseCase reconciles a client's known transaction refs
// against the server ledger.
type SyncTransactionsUseCase interface {
	Execute(ctx context.Context, cmd dtos.SyncTransactionsCommand) (*dtos.VasTransactionListDTO, error)
}

// ============================================
// Transaction Handler
// ============================================

// TransactionHandler serves the §6 /wallet/transactions/* routes.
type TransactionHandler struct {
	listTransactions ListTransactionsUseCase
	syncTransactions SyncTransactionsUseCase
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(listTransactions ListTransactionsUseCase, syncTransactions SyncTransactionsUseCase) *TransactionHandler {
	return &TransactionHandler{listTransactions: listTransactions, syncTransactions: syncTransactions}
}

type listTransactionsRequest struct {
	Type   *string `form:"type"`
	Status *string `form:"status"`
	Offset int     `form:"offset"`
	Limit  int     `form:"limit"`
}

// ListAll handles GET /wallet/transactions/all.
func (h *TransactionHandler) ListAll(c *gin.Context) {
	var req listTransactionsRequest
	if !BindQuery(c, &req) {
		return
	}

	userID := middleware.GetAuthUserID(c)
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	result, err := h.listTransactions.Execute(c.Request.Context(), dtos.ListTransactionsQuery{
		UserID: userID.String(),
		Type:   req.Type,
		Status: req.Status,
		Offset: req.Offset,
		Limit:  limit,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.SuccessWithMeta(c, http.StatusOK, result.Transactions, &common.APIMeta{
		Total: result.TotalCount,
	})
}

type syncTransactionsRequest struct {
	KnownTransactionRefs []string `json:"known_transaction_refs"`
}

// Sync handles POST /wallet/transactions/sync.
func (h *TransactionHandler) Sync(c *gin.Context) {
	var req syncTransactionsRequest
	if !BindJSON(c, &req) {
		return
	}

	userID := middleware.GetAuthUserID(c)

	result, err := h.syncTransactions.Execute(c.Request.Context(), dtos.SyncTransactionsCommand{
		UserID:               userID.String(),
		KnownTransactionRefs: req.KnownTransactionRefs,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// RegisterRoutes registers the transaction routes under an authenticated group.
func (h *TransactionHandler) RegisterRoutes(authenticated *gin.RouterGroup) {
	authenticated.GET("/wallet/transactions/all", h.ListAll)
	authenticated.POST("/wallet/transactions/sync", h.Sync)
}
