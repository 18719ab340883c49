package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ficore/vaswallet/internal/application/dtos"
	"github.com/ficore/vaswallet/internal/application/ports"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type mockBuyAirtimeUseCase struct {
	Fn func(ctx context.Context, cmd dtos.BuyAirtimeCommand) (*dtos.PurchaseAcceptedDTO, error)
}

func (m *mockBuyAirtimeUseCase) BuyAirtime(ctx context.Context, cmd dtos.BuyAirtimeCommand) (*dtos.PurchaseAcceptedDTO, error) {
	return m.Fn(ctx, cmd)
}

type mockBuyDataUseCase struct {
	Fn func(ctx context.Context, cmd dtos.BuyDataCommand) (*dtos.PurchaseAcceptedDTO, error)
}

func (m *mockBuyDataUseCase) BuyData(ctx context.Context, cmd dtos.BuyDataCommand) (*dtos.PurchaseAcceptedDTO, error) {
	return m.Fn(ctx, cmd)
}

type mockCatalogUseCase struct {
	ListNetworksFn      func(ctx context.Context, category ports.BillerCategory) ([]dtos.NetworkDTO, error)
	ListDataPlansFn     func(ctx context.Context, network string) ([]dtos.DataPlanDTO, error)
	ListDataPlanTypesFn func(ctx context.Context, network string) ([]string, error)
}

func (m *mockCatalogUseCase) ListNetworks(ctx context.Context, category ports.BillerCategory) ([]dtos.NetworkDTO, error) {
	return m.ListNetworksFn(ctx, category)
}

func (m *mockCatalogUseCase) ListDataPlans(ctx context.Context, network string) ([]dtos.DataPlanDTO, error) {
	return m.ListDataPlansFn(ctx, network)
}

func (m *mockCatalogUseCase) ListDataPlanTypes(ctx context.Context, network string) ([]string, error) {
	return m.ListDataPlanTypesFn(ctx, network)
}

func setupPurchaseTestRouter(handler *PurchaseHandler, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	authenticated := router.Group("")
	authenticated.Use(authAs(userID))
	handler.RegisterRoutes(authenticated)
	return router
}

func TestPurchaseHandler_BuyAirtime(t *testing.T) {
	userID := uuid.New().String()

	t.Run("Success", func(t *testing.T) {
		handler := NewPurchaseHandler(
			&mockBuyAirtimeUseCase{Fn: func(ctx context.Context, cmd dtos.BuyAirtimeCommand) (*dtos.PurchaseAcceptedDTO, error) {
				assert.Equal(t, userID, cmd.UserID)
				assert.Equal(t, "MTN", cmd.Network)
				return &dtos.PurchaseAcceptedDTO{TransactionID: uuid.New().String(), ProcessingStatus: "QUEUED"}, nil
			}},
			nil, nil,
		)
		router := setupPurchaseTestRouter(handler, userID)

		w := doJSON(router, http.MethodPost, "/purchase/buy-airtime", map[string]string{
			"phone_number": "+2348012345678",
			"network":      "MTN",
			"amount":       "500.00",
			"pin":          "1234",
		})

		assert.Equal(t, http.StatusAccepted, w.Code)
	})

	t.Run("InvalidPhoneNumber", func(t *testing.T) {
		handler := NewPurchaseHandler(&mockBuyAirtimeUseCase{Fn: func(ctx context.Context, cmd dtos.BuyAirtimeCommand) (*dtos.PurchaseAcceptedDTO, error) {
			t.Fatal("use case should not be called")
			return nil, nil
		}}, nil, nil)
		router := setupPurchaseTestRouter(handler, userID)

		w := doJSON(router, http.MethodPost, "/purchase/buy-airtime", map[string]string{
			"phone_number": "not-a-phone",
			"network":      "MTN",
			"amount":       "500.00",
			"pin":          "1234",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPurchaseHandler_BuyData(t *testing.T) {
	userID := uuid.New().String()

	t.Run("Success", func(t *testing.T) {
		handler := NewPurchaseHandler(nil, &mockBuyDataUseCase{Fn: func(ctx context.Context, cmd dtos.BuyDataCommand) (*dtos.PurchaseAcceptedDTO, error) {
			assert.Equal(t, userID, cmd.UserID)
			return &dtos.PurchaseAcceptedDTO{TransactionID: uuid.New().String(), ProcessingStatus: "QUEUED"}, nil
		}}, nil)
		router := setupPurchaseTestRouter(handler, userID)

		w := doJSON(router, http.MethodPost, "/purchase/buy-data", map[string]string{
			"phone_number":   "+2348012345678",
			"network":        "MTN",
			"data_plan_id":   "plan-1",
			"data_plan_name": "1GB 30 Days",
			"amount":         "1000.00",
			"plan_type":      "SME",
			"pin":            "1234",
		})

		assert.Equal(t, http.StatusAccepted, w.Code)
	})
}

func TestPurchaseHandler_ListNetworks(t *testing.T) {
	userID := uuid.New().String()

	t.Run("Success", func(t *testing.T) {
		handler := NewPurchaseHandler(nil, nil, &mockCatalogUseCase{
			ListNetworksFn: func(ctx context.Context, category ports.BillerCategory) ([]dtos.NetworkDTO, error) {
				assert.Equal(t, ports.BillerCategoryAirtime, category)
				return []dtos.NetworkDTO{{Code: "MTN", Name: "MTN Nigeria"}}, nil
			},
		})
		router := setupPurchaseTestRouter(handler, userID)

		req := httptest.NewRequest(http.MethodGet, "/purchase/networks/airtime", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("InvalidCategory", func(t *testing.T) {
		handler := NewPurchaseHandler(nil, nil, &mockCatalogUseCase{})
		router := setupPurchaseTestRouter(handler, userID)

		req := httptest.NewRequest(http.MethodGet, "/purchase/networks/bogus", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
