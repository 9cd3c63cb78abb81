// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/allisson/orders/internal/breaker"
	"github.com/allisson/orders/internal/config"
	"github.com/allisson/orders/internal/database"
	"github.com/allisson/orders/internal/delivery"
	"github.com/allisson/orders/internal/eventbus"
	httpServer "github.com/allisson/orders/internal/http"
	"github.com/allisson/orders/internal/inventory"
	"github.com/allisson/orders/internal/metrics"
	ordersConsumer "github.com/allisson/orders/internal/orders/consumer"
	ordersUsecase "github.com/allisson/orders/internal/orders/usecase"
	outboxUsecase "github.com/allisson/orders/internal/outbox/usecase"
)

// outboxRepository joins the order-service and publisher views of the outbox
// table; the concrete repositories implement both.
type outboxRepository interface {
	ordersUsecase.OutboxRepository
	outboxUsecase.OutboxRepository
}

// Container holds all application dependencies and provides methods to
// access them. It follows the lazy initialization pattern - components are
// created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	txManager       database.TxManager
	metricsProvider *metrics.Provider
	bus             *eventbus.InMemoryBus

	// Inventory collaborator
	inventoryBreaker *breaker.Breaker
	inventoryClient  *inventory.Client

	// Repositories
	orderRepo     ordersUsecase.OrderRepository
	processedRepo ordersUsecase.ProcessedEventRepository
	outboxRepo    outboxRepository

	// Use cases and workers
	orderUseCase      ordersUsecase.UseCase
	statusConsumer    *ordersConsumer.StatusConsumer
	publisher         *outboxUsecase.Publisher
	deliverySimulator *delivery.Simulator

	// Servers
	httpServer    *httpServer.Server
	metricsServer *httpServer.MetricsServer

	// Initialization guards
	loggerInit          sync.Once
	dbInit              sync.Once
	txManagerInit       sync.Once
	metricsProviderInit sync.Once
	busInit             sync.Once
	breakerInit         sync.Once
	inventoryClientInit sync.Once
	reposInit           sync.Once
	orderUseCaseInit    sync.Once
	consumerInit        sync.Once
	publisherInit       sync.Once
	simulatorInit       sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
	initErrorsMu        sync.Mutex
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// storeInitError records a component initialization failure.
func (c *Container) storeInitError(component string, err error) {
	c.initErrorsMu.Lock()
	defer c.initErrorsMu.Unlock()
	c.initErrors[component] = err
}

// initError retrieves a stored initialization failure.
func (c *Container) initError(component string) error {
	c.initErrorsMu.Lock()
	defer c.initErrorsMu.Unlock()
	return c.initErrors[component]
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := database.Connect(database.Config{
			Driver:             c.config.DBDriver,
			ConnectionString:   c.config.DBConnectionString,
			MaxOpenConnections: c.config.DBMaxOpenConnections,
			MaxIdleConnections: c.config.DBMaxIdleConnections,
			ConnMaxIdleTime:    c.config.DBConnMaxIdleTime,
			ConnMaxLifetime:    c.config.DBConnMaxLifetime,
			ConnectTimeout:     c.config.DBConnectTimeout,
		})
		if err != nil {
			c.storeInitError("db", err)
			return
		}
		c.db = db
	})
	if err := c.initError("db"); err != nil {
		return nil, err
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.storeInitError("txManager", fmt.Errorf("failed to get db for tx manager: %w", err))
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if err := c.initError("txManager"); err != nil {
		return nil, err
	}
	return c.txManager, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.storeInitError("metricsProvider", err)
			return
		}
		c.metricsProvider = provider
	})
	if err := c.initError("metricsProvider"); err != nil {
		return nil, err
	}
	return c.metricsProvider, nil
}

// EventBus returns the in-process event bus.
func (c *Container) EventBus() *eventbus.InMemoryBus {
	c.busInit.Do(func() {
		c.bus = eventbus.NewInMemoryBus(c.Logger())
	})
	return c.bus
}

// InventoryBreaker returns the circuit breaker guarding the inventory collaborator.
func (c *Container) InventoryBreaker() *breaker.Breaker {
	c.breakerInit.Do(func() {
		c.inventoryBreaker = breaker.New(breaker.Config{
			FailureThreshold: c.config.CircuitBreakerFailureThreshold,
			Timeout:          c.config.CircuitBreakerTimeout,
			ResetTimeout:     c.config.CircuitBreakerResetTimeout,
		})
	})
	return c.inventoryBreaker
}

// InventoryClient returns the breaker-guarded inventory client.
func (c *Container) InventoryClient() *inventory.Client {
	c.inventoryClientInit.Do(func() {
		var checker inventory.Checker
		switch c.config.InventoryProvider {
		case "http":
			checker = inventory.NewHTTPChecker(c.config.InventoryBaseURL, c.config.CircuitBreakerTimeout)
		default:
			checker = inventory.NewSimulatedChecker(c.config.InventoryFailureRatePercent)
		}

		c.inventoryClient = inventory.NewClient(checker, c.InventoryBreaker(), c.Logger())
	})
	return c.inventoryClient
}

// Shutdown closes all resources held by the container.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error

	if c.publisher != nil {
		c.publisher.Stop()
	}
	if c.deliverySimulator != nil {
		c.deliverySimulator.Stop()
	}
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("db close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container shutdown: %v", errs)
	}
	return nil
}

// initLogger builds the slog JSON logger from the configured level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}
