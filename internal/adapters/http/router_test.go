package http

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:         slog.Default(),
		Version:        "test",
		BuildTime:      "now",
		Environment:    "test",
		AllowedOrigins: []string{"*"},
	}
}

func TestRouterBuilder_Build_HealthRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouterBuilder(testRouterConfig()).Build()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterBuilder_Build_MetricsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouterBuilder(testRouterConfig()).Build()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterBuilder_Build_NotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouterBuilder(testRouterConfig()).Build()

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
