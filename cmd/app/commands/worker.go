package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/allisson/orders/internal/app"
	"github.com/allisson/orders/internal/config"
)

// RunWorker starts a standalone outbox publisher. Multiple workers may run
// against the same database; the skip-locked lease keeps them from
// processing the same rows. Blocks until SIGINT/SIGTERM.
func RunWorker(ctx context.Context, version string) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting outbox worker", slog.String("version", version))

	defer closeContainer(container, logger)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	publisher, err := container.OutboxPublisher()
	if err != nil {
		return fmt.Errorf("failed to initialize outbox publisher: %w", err)
	}

	publisher.Start(ctx)

	<-ctx.Done()
	logger.Info("shutdown signal received")
	publisher.Stop()

	return nil
}
