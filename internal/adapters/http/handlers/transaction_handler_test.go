package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ficore/vaswallet/internal/application/dtos"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockListTransactionsUseCase struct {
	Fn func(ctx context.Context, query dtos.ListTransactionsQuery) (*dtos.VasTransactionListDTO, error)
}

func (m *mockListTransactionsUseCase) Execute(ctx context.Context, query dtos.ListTransactionsQuery) (*dtos.VasTransactionListDTO, error) {
	return m.Fn(ctx, query)
}

type mockSyncTransactionsUseCase struct {
	Fn func(ctx context.Context, cmd dtos.SyncTransactionsCommand) (*dtos.VasTransactionListDTO, error)
}

func (m *mockSyncTransactionsUseCase) Execute(ctx context.Context, cmd dtos.SyncTransactionsCommand) (*dtos.VasTransactionListDTO, error) {
	return m.Fn(ctx, cmd)
}

func setupTransactionTestRouter(handler *TransactionHandler, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	authenticated := router.Group("")
	authenticated.Use(authAs(userID))
	handler.RegisterRoutes(authenticated)
	return router
}

func TestTransactionHandler_ListAll(t *testing.T) {
	userID := uuid.New().String()

	t.Run("Success_DefaultsLimit", func(t *testing.T) {
		handler := NewTransactionHandler(&mockListTransactionsUseCase{Fn: func(ctx context.Context, query dtos.ListTransactionsQuery) (*dtos.VasTransactionListDTO, error) {
			assert.Equal(t, userID, query.UserID)
			assert.Equal(t, 20, query.Limit)
			return &dtos.VasTransactionListDTO{Transactions: []dtos.VasTransactionDTO{{ID: "tx-1"}}, TotalCount: 1}, nil
		}}, nil)
		router := setupTransactionTestRouter(handler, userID)

		req := httptest.NewRequest(http.MethodGet, "/wallet/transactions/all", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("FiltersByType", func(t *testing.T) {
		handler := NewTransactionHandler(&mockListTransactionsUseCase{Fn: func(ctx context.Context, query dtos.ListTransactionsQuery) (*dtos.VasTransactionListDTO, error) {
			require.NotNil(t, query.Type)
			assert.Equal(t, "AIRTIME", *query.Type)
			return &dtos.VasTransactionListDTO{}, nil
		}}, nil)
		router := setupTransactionTestRouter(handler, userID)

		req := httptest.NewRequest(http.MethodGet, "/wallet/transactions/all?type=AIRTIME", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
	})
}

func TestTransactionHandler_Sync(t *testing.T) {
	userID := uuid.New().String()

	t.Run("Success", func(t *testing.T) {
		handler := NewTransactionHandler(nil, &mockSyncTransactionsUseCase{Fn: func(ctx context.Context, cmd dtos.SyncTransactionsCommand) (*dtos.VasTransactionListDTO, error) {
			assert.Equal(t, userID, cmd.UserID)
			assert.Equal(t, []string{"ref-1"}, cmd.KnownTransactionRefs)
			return &dtos.VasTransactionListDTO{}, nil
		}})
		router := setupTransactionTestRouter(handler, userID)

		w := doJSON(router, http.MethodPost, "/wallet/transactions/sync", map[string]interface{}{
			"known_transaction_refs": []string{"ref-1"},
		})

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
