package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"taxengine-api/internal/handlers"
	"taxengine-api/internal/services"
)

func TestRoutesExposeNoShutdownEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	taxHandler = handlers.NewTaxHandler(nil)
	addressHandler = handlers.NewAddressHandler(nil)
	healthHandler = handlers.NewHealthHandler()
	webhookDispatcher = services.NewWebhookDispatcher(nil, nil, 1, 1)
	defer webhookDispatcher.Stop()

	router := gin.New()
	InitializeRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/shutdown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code,
		"process control must stay signal-driven, not reachable over HTTP")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
