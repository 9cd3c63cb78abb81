package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/orders/internal/breaker"
	"github.com/allisson/orders/internal/metrics"
	ordersHTTP "github.com/allisson/orders/internal/orders/http"
	"github.com/allisson/orders/internal/orders/usecase/mocks"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServer(t *testing.T, config ServerConfig) *Server {
	t.Helper()

	gin.SetMode(gin.TestMode)
	logger := newTestLogger()
	handler := ordersHTTP.NewOrderHandler(&mocks.MockUseCase{}, logger)
	inventoryBreaker := breaker.New(breaker.Config{})

	return NewServer(config, handler, inventoryBreaker, nil, logger)
}

func TestServer_HealthEndpoints(t *testing.T) {
	server := newTestServer(t, ServerConfig{Host: "127.0.0.1", Port: 0})

	for _, path := range []string{"/health", "/ready"} {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		server.GetHandler().ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code, path)
	}
}

func TestServer_CircuitBreakerEndpoint(t *testing.T) {
	server := newTestServer(t, ServerConfig{Host: "127.0.0.1", Port: 0})

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/system/circuit-breaker", nil)
	server.GetHandler().ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"state":"closed"`)
	assert.Contains(t, recorder.Body.String(), `"failure_count":0`)
}

func TestServer_RequestIDHeader(t *testing.T) {
	server := newTestServer(t, ServerConfig{Host: "127.0.0.1", Port: 0})

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.GetHandler().ServeHTTP(recorder, req)

	assert.NotEmpty(t, recorder.Header().Get("X-Request-Id"))
}

func TestServer_RateLimit(t *testing.T) {
	server := newTestServer(t, ServerConfig{
		Host:                    "127.0.0.1",
		Port:                    0,
		RateLimitEnabled:        true,
		RateLimitRequestsPerSec: 1,
		RateLimitBurst:          2,
	})

	var lastStatus int
	for i := 0; i < 5; i++ {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		server.GetHandler().ServeHTTP(recorder, req)
		lastStatus = recorder.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, lastStatus)
}

func TestParseOrigins(t *testing.T) {
	assert.Nil(t, parseOrigins(""))
	assert.Equal(t, []string{"https://a.example"}, parseOrigins("https://a.example"))
	assert.Equal(t,
		[]string{"https://a.example", "https://b.example"},
		parseOrigins(" https://a.example , https://b.example ,"),
	)
}

func TestMetricsServer_ServesMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	provider, err := metrics.NewProvider("test_orders")
	require.NoError(t, err)

	server := NewMetricsServer("127.0.0.1", 0, newTestLogger(), provider)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	server.GetHandler().ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestServer_GracefulShutdown(t *testing.T) {
	server := newTestServer(t, ServerConfig{Host: "127.0.0.1", Port: 0})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.NoError(t, server.Shutdown(ctx))
}
