// Package handlers - Purchase HTTP handlers (§6: /purchase/buy-airtime,
// /purchase/buy-data, and the read-only browse endpoints).
package handlers

import (
	"context"
	"net/http"

	"github.com/ficore/vaswallet/internal/adapters/http/common"
	"github.com/ficore/vaswallet/internal/adapters/http/middleware"
	"github.com/ficore/vaswallet/internal/application/dtos"
	"github.com/ficore/vaswallet/internal/application/ports"
	"github.com/gin-gonic/gin"
)

// ============================================
// Use Case Interfaces
// ============================================

// BuyAirtimeUseCase executes the airtime purchase flow.
type BuyAirtimeUseCase interface {
	BuyAirtime(ctx context.Context, cmd dtos.BuyAirtimeCommand) (*dtos.PurchaseAcceptedDTO, error)
}

// BuyDataUseCase executes the data purchase flow.
type BuyDataUseCase interface {
	BuyData(ctx context.Context, cmd dtos.BuyDataCommand) (*dtos.PurchaseAcceptedDTO, error)
}

// CatalogUseCase serves the read-only network/plan browse endpoints.
type CatalogUseCase interface {
	ListNetworks(ctx context.Context, category ports.BillerCategory) ([]dtos.NetworkDTO, error)
	ListDataPlans(ctx context.Context, network string) ([]dtos.DataPlanDTO, error)
	ListDataPlanTypes(ctx context.Context, network string) ([]string, error)
}

// ============================================
// Purchase Handler
// ============================================

// PurchaseHandler serves the §6 /purchase/* routes.
type PurchaseHandler struct {
	buyAirtime BuyAirtimeUseCase
	buyData    BuyDataUseCase
	catalog    CatalogUseCase
}

// NewPurchaseHandler creates a new PurchaseHandler.
func NewPurchaseHandler(buyAirtime BuyAirtimeUseCase, buyData BuyDataUseCase, catalog CatalogUseCase) *PurchaseHandler {
	return &PurchaseHandler{buyAirtime: buyAirtime, buyData: buyData, catalog: catalog}
}

type buyAirtimeRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,e164"`
	Network     string `json:"network" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Pin         string `json:"pin" binding:"required,len=4,numeric"`
}

// BuyAirtime handles POST /purchase/buy-airtime.
func (h *PurchaseHandler) BuyAirtime(c *gin.Context) {
	var req buyAirtimeRequest
	if !BindJSON(c, &req) {
		return
	}

	userID := middleware.GetAuthUserID(c)
	result, err := h.buyAirtime.BuyAirtime(context.WithoutCancel(c.Request.Context()), dtos.BuyAirtimeCommand{
		UserID:      userID.String(),
		PhoneNumber: req.PhoneNumber,
		Network:     req.Network,
		Amount:      req.Amount,
		Pin:         req.Pin,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusAccepted, result)
}

type buyDataRequest struct {
	PhoneNumber  string `json:"phone_number" binding:"required,e164"`
	Network      string `json:"network" binding:"required"`
	DataPlanID   string `json:"data_plan_id" binding:"required"`
	DataPlanName string `json:"data_plan_name" binding:"required"`
	Amount       string `json:"amount" binding:"required"`
	PlanType     string `json:"plan_type" binding:"required"`
	Pin          string `json:"pin" binding:"required,len=4,numeric"`
}

// BuyData handles POST /purchase/buy-data.
func (h *PurchaseHandler) BuyData(c *gin.Context) {
	var req buyDataRequest
	if !BindJSON(c, &req) {
		return
	}

	userID := middleware.GetAuthUserID(c)
	result, err := h.buyData.BuyData(context.WithoutCancel(c.Request.Context()), dtos.BuyDataCommand{
		UserID:       userID.String(),
		PhoneNumber:  req.PhoneNumber,
		Network:      req.Network,
		DataPlanID:   req.DataPlanID,
		DataPlanName: req.DataPlanName,
		Amount:       req.Amount,
		PlanType:     req.PlanType,
		Pin:          req.Pin,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusAccepted, result)
}

// ListNetworks handles GET /purchase/networks/:category (airtime|data).
func (h *PurchaseHandler) ListNetworks(c *gin.Context) {
	category, ok := parseBillerCategory(c.Param("category"))
	if !ok {
		common.BadRequestResponse(c, "category must be one of: airtime, data")
		return
	}

	networks, err := h.catalog.ListNetworks(c.Request.Context(), category)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, networks)
}

// ListDataPlans handles GET /purchase/data-plans/:network.
func (h *PurchaseHandler) ListDataPlans(c *gin.Context) {
	network := c.Param("network")

	plans, err := h.catalog.ListDataPlans(c.Request.Context(), network)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, plans)
}

// ListDataPlanTypes handles GET /purchase/data-plan-types/:network.
func (h *PurchaseHandler) ListDataPlanTypes(c *gin.Context) {
	network := c.Param("network")

	types, err := h.catalog.ListDataPlanTypes(c.Request.Context(), network)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, types)
}

func parseBillerCategory(raw string) (ports.BillerCategory, bool) {
	switch raw {
	case "airtime":
		return ports.BillerCategoryAirtime, true
	case "data":
		return ports.BillerCategoryData, true
	default:
		return "", false
	}
}

// RegisterRoutes registers the purchase routes under an authenticated group.
func (h *PurchaseHandler) RegisterRoutes(authenticated *gin.RouterGroup) {
	authenticated.POST("/purchase/buy-airtime", h.BuyAirtime)
	authenticated.POST("/purchase/buy-data", h.BuyData)
	authenticated.GET("/purchase/networks/:category", h.ListNetworks)
	authenticated.GET("/purchase/data-plans/:network", h.ListDataPlans)
	authenticated.GET("/purchase/data-plan-types/:network", h.ListDataPlanTypes)
}
