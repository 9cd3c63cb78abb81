package app

import (
	"fmt"

	"github.com/allisson/orders/internal/delivery"
	httpServer "github.com/allisson/orders/internal/http"
	"github.com/allisson/orders/internal/metrics"
	ordersConsumer "github.com/allisson/orders/internal/orders/consumer"
	ordersHTTP "github.com/allisson/orders/internal/orders/http"
	ordersRepository "github.com/allisson/orders/internal/orders/repository"
	ordersUsecase "github.com/allisson/orders/internal/orders/usecase"
	outboxRepositoryPkg "github.com/allisson/orders/internal/outbox/repository"
	outboxUsecase "github.com/allisson/orders/internal/outbox/usecase"
)

// initRepositories builds the driver-specific repositories.
func (c *Container) initRepositories() error {
	var initErr error
	c.reposInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			initErr = fmt.Errorf("failed to get db for repositories: %w", err)
			c.storeInitError("repos", initErr)
			return
		}

		if c.config.DBDriver == "mysql" {
			c.orderRepo = ordersRepository.NewMySQLOrderRepository(db)
			c.processedRepo = ordersRepository.NewMySQLProcessedEventRepository(db)
			c.outboxRepo = outboxRepositoryPkg.NewMySQLOutboxRepository(db)
			return
		}

		c.orderRepo = ordersRepository.NewPostgreSQLOrderRepository(db)
		c.processedRepo = ordersRepository.NewPostgreSQLProcessedEventRepository(db)
		c.outboxRepo = outboxRepositoryPkg.NewPostgreSQLOutboxRepository(db)
	})
	if initErr != nil {
		return initErr
	}
	return c.initError("repos")
}

// OrderUseCase returns the order service, decorated with metrics when enabled.
func (c *Container) OrderUseCase() (ordersUsecase.UseCase, error) {
	c.orderUseCaseInit.Do(func() {
		if err := c.initRepositories(); err != nil {
			c.storeInitError("orderUseCase", err)
			return
		}

		txManager, err := c.TxManager()
		if err != nil {
			c.storeInitError("orderUseCase", err)
			return
		}

		useCase := ordersUsecase.NewOrderUseCase(
			txManager,
			c.orderRepo,
			c.processedRepo,
			c.outboxRepo,
			c.InventoryClient(),
			c.Logger(),
		)

		provider, err := c.MetricsProvider()
		if err != nil {
			c.storeInitError("orderUseCase", err)
			return
		}
		if provider != nil {
			businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
			if err != nil {
				c.storeInitError("orderUseCase", err)
				return
			}
			useCase = ordersUsecase.NewOrderUseCaseWithMetrics(useCase, businessMetrics)
		}

		c.orderUseCase = useCase
	})
	if err := c.initError("orderUseCase"); err != nil {
		return nil, err
	}
	return c.orderUseCase, nil
}

// StatusConsumer returns the delivery-events consumer.
func (c *Container) StatusConsumer() (*ordersConsumer.StatusConsumer, error) {
	c.consumerInit.Do(func() {
		useCase, err := c.OrderUseCase()
		if err != nil {
			c.storeInitError("statusConsumer", err)
			return
		}
		c.statusConsumer = ordersConsumer.NewStatusConsumer(useCase, c.Logger())
	})
	if err := c.initError("statusConsumer"); err != nil {
		return nil, err
	}
	return c.statusConsumer, nil
}

// OutboxPublisher returns the outbox publisher worker.
func (c *Container) OutboxPublisher() (*outboxUsecase.Publisher, error) {
	c.publisherInit.Do(func() {
		if err := c.initRepositories(); err != nil {
			c.storeInitError("publisher", err)
			return
		}

		txManager, err := c.TxManager()
		if err != nil {
			c.storeInitError("publisher", err)
			return
		}

		var outboxMetrics metrics.OutboxMetrics
		provider, err := c.MetricsProvider()
		if err != nil {
			c.storeInitError("publisher", err)
			return
		}
		if provider != nil {
			outboxMetrics, err = metrics.NewOutboxMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
			if err != nil {
				c.storeInitError("publisher", err)
				return
			}
		}

		c.publisher = outboxUsecase.NewPublisher(
			outboxUsecase.Config{
				PollInterval: c.config.OutboxPollInterval,
				BatchSize:    c.config.OutboxBatchSize,
				MaxRetries:   c.config.OutboxMaxRetries,
				BaseDelay:    c.config.OutboxBaseDelay,
				MaxDelay:     c.config.OutboxMaxDelay,
			},
			txManager,
			c.outboxRepo,
			c.processedRepo,
			c.EventBus(),
			outboxMetrics,
			c.Logger(),
		)
	})
	if err := c.initError("publisher"); err != nil {
		return nil, err
	}
	return c.publisher, nil
}

// DeliverySimulator returns the delivery collaborator simulator, or nil when disabled.
func (c *Container) DeliverySimulator() *delivery.Simulator {
	c.simulatorInit.Do(func() {
		if !c.config.DeliverySimulatorEnabled {
			return
		}
		c.deliverySimulator = delivery.NewSimulator(
			delivery.Config{
				ShipDelay:    c.config.DeliveryShipDelay,
				DeliverDelay: c.config.DeliveryDeliverDelay,
			},
			c.EventBus(),
			c.Logger(),
		)
	})
	return c.deliverySimulator
}

// HTTPServer returns the API server with all its dependencies.
func (c *Container) HTTPServer() (*httpServer.Server, error) {
	c.httpServerInit.Do(func() {
		useCase, err := c.OrderUseCase()
		if err != nil {
			c.storeInitError("httpServer", err)
			return
		}

		provider, err := c.MetricsProvider()
		if err != nil {
			c.storeInitError("httpServer", err)
			return
		}

		handler := ordersHTTP.NewOrderHandler(useCase, c.Logger())
		c.httpServer = httpServer.NewServer(
			httpServer.ServerConfig{
				Host:                    c.config.ServerHost,
				Port:                    c.config.ServerPort,
				RateLimitEnabled:        c.config.RateLimitEnabled,
				RateLimitRequestsPerSec: c.config.RateLimitRequestsPerSec,
				RateLimitBurst:          c.config.RateLimitBurst,
				CORSEnabled:             c.config.CORSEnabled,
				CORSAllowOrigins:        c.config.CORSAllowOrigins,
				MetricsEnabled:          c.config.MetricsEnabled,
				MetricsNamespace:        c.config.MetricsNamespace,
			},
			handler,
			c.InventoryBreaker(),
			provider,
			c.Logger(),
		)
	})
	if err := c.initError("httpServer"); err != nil {
		return nil, err
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus metrics server, or nil when metrics
// are disabled.
func (c *Container) MetricsServer() (*httpServer.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.storeInitError("metricsServer", err)
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = httpServer.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if err := c.initError("metricsServer"); err != nil {
		return nil, err
	}
	return c.metricsServer, nil
}
