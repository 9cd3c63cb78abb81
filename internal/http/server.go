// Package http provides the HTTP API server and its middleware.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/allisson/orders/internal/breaker"
	"github.com/allisson/orders/internal/metrics"
	ordersHTTP "github.com/allisson/orders/internal/orders/http"
)

// ServerConfig holds the API server settings.
type ServerConfig struct {
	Host string
	Port int

	RateLimitEnabled        bool
	RateLimitRequestsPerSec float64
	RateLimitBurst          int

	CORSEnabled      bool
	CORSAllowOrigins string

	MetricsEnabled   bool
	MetricsNamespace string
}

// Server is the order API HTTP server.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer assembles the gin router with middleware and routes.
func NewServer(
	config ServerConfig,
	orderHandler *ordersHTTP.OrderHandler,
	inventoryBreaker *breaker.Breaker,
	metricsProvider *metrics.Provider,
	logger *slog.Logger,
) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))

	if cors := createCORSMiddleware(config.CORSEnabled, config.CORSAllowOrigins, logger); cors != nil {
		router.Use(cors)
	}

	if config.RateLimitEnabled {
		router.Use(RateLimitMiddleware(config.RateLimitRequestsPerSec, config.RateLimitBurst, logger))
	}

	if config.MetricsEnabled && metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), config.MetricsNamespace))
	}

	router.GET("/health", healthHandler)
	router.GET("/ready", readinessHandler)

	v1 := router.Group("/v1")
	orderHandler.RegisterRoutes(v1)
	v1.GET("/system/circuit-breaker", circuitBreakerHandler(inventoryBreaker))

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server, draining in-flight
// requests until the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports process liveness.
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports request-serving readiness.
func readinessHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// circuitBreakerHandler exposes the inventory breaker's observable state.
func circuitBreakerHandler(b *breaker.Breaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if b == nil {
			c.JSON(http.StatusOK, gin.H{"state": "unknown"})
			return
		}

		snapshot := b.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"state":           string(snapshot.State),
			"failure_count":   snapshot.FailureCount,
			"last_failure_at": formatTimeOrNull(snapshot.LastFailureAt),
			"next_attempt_at": formatTimeOrNull(snapshot.NextAttemptAt),
		})
	}
}

// formatTimeOrNull renders zero times as null in JSON output.
func formatTimeOrNull(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
