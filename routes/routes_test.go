package routes

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shuttle/internal/handlers"
	"shuttle/internal/models"
	"shuttle/internal/repositories/memory"
	"shuttle/internal/services"
	"shuttle/internal/utils"
	"shuttle/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const (
	testSecret = "router-secret"
	testIssuer = "shuttle-test"
)

func newRouter(t *testing.T, health func() error) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewNop()
	settings := services.NewSettingsService(memory.NewSettingsRepository(memory.NewStore()), models.Settings{PaymentEnabled: true}, log)

	r, err := SetupRouter(&Handlers{
		Admin: handlers.NewAdminHandler(nil, nil, nil, settings, nil, nil, log),
	}, Options{
		JWTSecret:      testSecret,
		JWTIssuer:      testIssuer,
		AllowedOrigins: []string{"https://book.example.com"},
		Version:        "test",
		Health:         health,
	}, log)
	require.NoError(t, err)
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := serve(newRouter(t, nil), httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", gjson.Get(w.Body.String(), "status").String())
	assert.Equal(t, "test", gjson.Get(w.Body.String(), "version").String())

	down := newRouter(t, func() error { return errors.New("mongo unreachable") })
	w = serve(down, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "mongo unreachable", gjson.Get(w.Body.String(), "error").String())
}

func TestAdminRoutesRequireToken(t *testing.T) {
	r := newRouter(t, nil)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/admin/settings", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/settings", nil)
	req.Header.Set("Authorization", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	forged, err := utils.GenerateAdminToken("ops", "other-secret", testIssuer, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/settings", nil)
	req.Header.Set("Authorization", "Bearer "+forged.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	token, err := utils.GenerateAdminToken("ops", testSecret, testIssuer, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/settings", nil)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	w = serve(r, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, gjson.Get(w.Body.String(), "data.payment_enabled").Bool())
}

func TestMiddlewareChain(t *testing.T) {
	r := newRouter(t, nil)
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := serve(r, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", gjson.Get(w.Body.String(), "error.code").String())
	assert.Equal(t, w.Header().Get("X-Request-ID"), gjson.Get(w.Body.String(), "request_id").String())
	assert.NotEmpty(t, gjson.Get(w.Body.String(), "request_id").String())

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/bookings", nil)
	req.Header.Set("Origin", "https://book.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w = serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://book.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/bookings", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w = serve(r, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
