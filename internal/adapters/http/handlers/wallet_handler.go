// Package handlers - Wallet HTTP handlers (§6: /wallet/create, /wallet/balance,
// /wallet/balance/current, /wallet/pin/*, and the admin credit/debit routes).
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

// CreateWalletUseCase creates a reserved bank account for a user's wallet.
type CreateWalletUseCase interface {
	Execute(ctx context.Context, cmd dtos.CreateWalletCommand) (*dtos.WalletDTO, error)
}

// GetWalletUseCase returns the full wallet view (§6 GET /wallet/balance).
type GetWalletUseCase interface {
	Execute(ctx context.Context, query dtos.GetWalletBalanceQuery) (*dtos.WalletDTO, error)
}

// GetWalletBalanceUseCase returns the lightweight polling view (§6 GET
// /wallet/balance/current).
type GetWalletBalanceUseCase interface {
	Execute(ctx context.Context, query dtos.GetWalletBalanceQuery) (*dtos.WalletBalanceDTO, error)
}

// SetupPinUseCase sets a wallet's spending PIN for the first time.
type SetupPinUseCase interface {
	Execute(ctx context.Context, cmd dtos.SetupPinCommand) (*dtos.WalletDTO, error)
}

// ValidatePinUseCase checks a spending PIN; the attempt counter and any
// lockout it triggers are saved on the wallet.
type ValidatePinUseCase interface {
	Execute(ctx context.Context, cmd dtos.ValidatePinCommand) error
}

// ChangePinUseCase replaces a wallet's spending PIN.
type ChangePinUseCase interface {
	Execute(ctx context.Context, cmd dtos.ChangePinCommand) (*dtos.WalletDTO, error)
}

// AdminResetPinUseCase clears a locked-out or forgotten spending PIN.
type AdminResetPinUseCase interface {
	Execute(ctx context.Context, cmd dtos.AdminResetPinCommand) (*dtos.WalletDTO, error)
}

// AdminCreditWalletUseCase performs an administrative wallet credit.
type AdminCreditWalletUseCase interface {
	Execute(ctx context.Context, cmd dtos.AdminCreditCommand) (*dtos.WalletOperationDTO, error)
}

// AdminDebitWalletUseCase performs an administrative wallet debit.
type AdminDebitWalletUseCase interface {
	Execute(ctx context.Context, cmd dtos.AdminDebitCommand) (*dtos.WalletOperationDTO, error)
}

// ============================================
// Wallet Handler
// ============================================

// WalletHandler serves the §6 /wallet/* routes.
type WalletHandler struct {
	createWallet      CreateWalletUseCase
	getWallet         GetWalletUseCase
	getWalletBalance  GetWalletBalanceUseCase
	setupPin          SetupPinUseCase
	validatePin       ValidatePinUseCase
	changePin         ChangePinUseCase
	adminResetPin     AdminResetPinUseCase
	adminCreditWallet AdminCreditWalletUseCase
	adminDebitWallet  AdminDebitWalletUseCase
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(
	createWallet CreateWalletUseCase,
	getWallet GetWalletUseCase,
	getWalletBalance GetWalletBalanceUseCase,
	setupPin SetupPinUseCase,
	validatePin ValidatePinUseCase,
	changePin ChangePinUseCase,
	adminResetPin AdminResetPinUseCase,
	adminCreditWallet AdminCreditWalletUseCase,
	adminDebitWallet AdminDebitWalletUseCase,
) *WalletHandler {
	return &WalletHandler{
		createWallet:      createWallet,
		getWallet:         getWallet,
		getWalletBalance:  getWalletBalance,
		setupPin:          setupPin,
		validatePin:       validatePin,
		changePin:         changePin,
		adminResetPin:     adminResetPin,
		adminCreditWallet: adminCreditWallet,
		adminDebitWallet:  adminDebitWallet,
	}
}

// CreateWallet handles POST /wallet/create.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	userID := middleware.GetAuthUserID(c)
	if userID.String() == "" {
		common.UnauthorizedResponse(c, "missing authenticated user")
		return
	}

	wallet, err := h.createWallet.Execute(c.Request.Context(), dtos.CreateWalletCommand{UserID: userID.String()})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, wallet)
}

// GetBalance handles GET /wallet/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID := middleware.GetAuthUserID(c)

	wallet, err := h.getWallet.Execute(c.Request.Context(), dtos.GetWalletBalanceQuery{UserID: userID.String()})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, wallet)
}

// GetBalanceCurrent handles GET /wallet/balance/current - the lightweight
// 3-second polling variant (§6).
func (h *WalletHandler) GetBalanceCurrent(c *gin.Context) {
	userID := middleware.GetAuthUserID(c)

	balance, err := h.getWalletBalance.Execute(c.Request.Context(), dtos.GetWalletBalanceQuery{UserID: userID.String()})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, balance)
}

type setupPinRequest struct {
	WalletID string `json:"wallet_id" binding:"required,uuid"`
	Pin      string `json:"pin" binding:"required,len=4,numeric"`
}

// SetupPin handles POST /wallet/pin/setup.
func (h *WalletHandler) SetupPin(c *gin.Context) {
	var req setupPinRequest
	if !BindJSON(c, &req) {
		return
	}

	wallet, err := h.setupPin.Execute(c.Request.Context(), dtos.SetupPinCommand{WalletID: req.WalletID, Pin: req.Pin})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, wallet)
}

type validatePinRequest struct {
	WalletID string `json:"wallet_id" binding:"required,uuid"`
	Pin      string `json:"pin" binding:"required,len=4,numeric"`
}

// ValidatePin handles POST /wallet/pin/validate.
func (h *WalletHandler) ValidatePin(c *gin.Context) {
	var req validatePinRequest
	if !BindJSON(c, &req) {
		return
	}

	if err := h.validatePin.Execute(c.Request.Context(), dtos.ValidatePinCommand{WalletID: req.WalletID, Pin: req.Pin}); err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, gin.H{"valid": true})
}

type changePinRequest struct {
	WalletID   string `json:"wallet_id" binding:"required,uuid"`
	CurrentPin string `json:"current_pin" binding:"required,len=4,numeric"`
	NewPin     string `json:"new_pin" binding:"required,len=4,numeric"`
}

// ChangePin handles POST /wallet/pin/change.
func (h *WalletHandler) ChangePin(c *gin.Context) {
	var req changePinRequest
	if !BindJSON(c, &req) {
		return
	}

	wallet, err := h.changePin.Execute(c.Request.Context(), dtos.ChangePinCommand{
		WalletID:   req.WalletID,
		CurrentPin: req.CurrentPin,
		NewPin:     req.NewPin,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, wallet)
}

type adminResetPinRequest struct {
	WalletID string `json:"wallet_id" binding:"required,uuid"`
	Reason   string `json:"reason" binding:"required"`
}

// AdminResetPin handles POST /admin/wallet/pin/reset.
func (h *WalletHandler) AdminResetPin(c *gin.Context) {
	var req adminResetPinRequest
	if !BindJSON(c, &req) {
		return
	}
	adminID := middleware.GetAuthUserID(c)

	wallet, err := h.adminResetPin.Execute(c.Request.Context(), dtos.AdminResetPinCommand{
		WalletID: req.WalletID,
		AdminID:  adminID.String(),
		Reason:   req.Reason,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, wallet)
}

type adminCreditRequest struct {
	WalletID       string `json:"wallet_id" binding:"required,uuid"`
	Amount         string `json:"amount" binding:"required"`
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
	Reason         string `json:"reason" binding:"required"`
}

// AdminCredit handles POST /admin/wallet/credit.
func (h *WalletHandler) AdminCredit(c *gin.Context) {
	var req adminCreditRequest
	if !BindJSON(c, &req) {
		return
	}

	result, err := h.adminCreditWallet.Execute(c.Request.Context(), dtos.AdminCreditCommand{
		WalletID:       req.WalletID,
		Amount:         req.Amount,
		IdempotencyKey: req.IdempotencyKey,
		Reason:         req.Reason,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

type adminDebitRequest struct {
	WalletID       string `json:"wallet_id" binding:"required,uuid"`
	Amount         string `json:"amount" binding:"required"`
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
	Reason         string `json:"reason" binding:"required"`
}

// AdminDebit handles POST /admin/wallet/debit.
func (h *WalletHandler) AdminDebit(c *gin.Context) {
	var req adminDebitRequest
	if !BindJSON(c, &req) {
		return
	}

	result, err := h.adminDebitWallet.Execute(c.Request.Context(), dtos.AdminDebitCommand{
		WalletID:       req.WalletID,
		Amount:         req.Amount,
		IdempotencyKey: req.IdempotencyKey,
		Reason:         req.Reason,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// RegisterRoutes registers the wallet routes under an authenticated group
// and the admin routes under an admin-only group.
func (h *WalletHandler) RegisterRoutes(authenticated *gin.RouterGroup, admin *gin.RouterGroup) {
	authenticated.POST("/wallet/create", h.CreateWallet)
	authenticated.GET("/wallet/balance", h.GetBalance)
	authenticated.GET("/wallet/balance/current", h.GetBalanceCurrent)
	authenticated.POST("/wallet/pin/setup", h.SetupPin)
	authenticated.POST("/wallet/pin/validate", h.ValidatePin)
	authenticated.POST("/wallet/pin/change", h.ChangePin)

	admin.POST("/wallet/pin/reset", h.AdminResetPin)
	admin.POST("/wallet/credit", h.AdminCredit)
	admin.POST("/wallet/debit", h.AdminDebit)
}
