package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/allisson/orders/internal/app"
	"github.com/allisson/orders/internal/config"
)

// RunServer starts the HTTP API server together with the outbox publisher,
// the status consumer and (when enabled) the delivery simulator. Blocks
// until SIGINT/SIGTERM or a fatal server error; in-flight requests drain
// within the configured shutdown timeout.
func RunServer(ctx context.Context, version string) error {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on log level
	gin.SetMode(cfg.GetGinMode())

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Wire the status consumer onto the bus before anything publishes.
	consumer, err := container.StatusConsumer()
	if err != nil {
		return fmt.Errorf("failed to initialize status consumer: %w", err)
	}
	consumer.Register(container.EventBus())

	// Start the delivery simulator when enabled.
	if simulator := container.DeliverySimulator(); simulator != nil {
		simulator.Start(ctx)
	}

	// Start the outbox publisher.
	publisher, err := container.OutboxPublisher()
	if err != nil {
		return fmt.Errorf("failed to initialize outbox publisher: %w", err)
	}
	publisher.Start(ctx)

	// Get HTTP server from container (this initializes all dependencies)
	server, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	// Get Metrics server from container
	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	// Start servers in goroutines
	serverErr := make(chan error, 2)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErr <- fmt.Errorf("api server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				serverErr <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	// Wait for shutdown signal or server error
	var startupErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case startupErr = <-serverErr:
		logger.Error("server error, initiating shutdown", slog.Any("error", startupErr))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer shutdownCancel()

	var shutdownErrors []error
	if startupErr != nil {
		shutdownErrors = append(shutdownErrors, startupErr)
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		shutdownErrors = append(shutdownErrors, fmt.Errorf("api server shutdown: %w", err))
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Workers stop at their next safe boundary.
	publisher.Stop()
	if simulator := container.DeliverySimulator(); simulator != nil {
		simulator.Stop()
	}

	if len(shutdownErrors) > 0 {
		return errors.Join(shutdownErrors...)
	}

	return nil
}
