// Package delivery provides an in-process stand-in for the downstream
// delivery collaborator. It reacts to order.created events by emitting
// order.shipped and order.delivered events after configurable delays,
// closing the lifecycle loop without an external system.
package delivery

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/orders/internal/eventbus"
	"github.com/allisson/orders/internal/orders/domain"
)

// Config holds simulator settings.
type Config struct {
	// ShipDelay is the time between order.created and order.shipped.
	ShipDelay time.Duration
	// DeliverDelay is the time between order.shipped and order.delivered.
	DeliverDelay time.Duration
}

// Simulator emits delivery status events for accepted orders.
type Simulator struct {
	config Config
	bus    eventbus.Bus
	logger *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewSimulator creates a new Simulator.
func NewSimulator(config Config, bus eventbus.Bus, logger *slog.Logger) *Simulator {
	return &Simulator{
		config: config,
		bus:    bus,
		logger: logger,
	}
}

// Start subscribes to order-events. Calling Start on a running simulator is
// a no-op.
func (s *Simulator) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.bus.Subscribe(eventbus.TopicOrderEvents, s.handleOrderCreated)

	s.logger.Info("delivery simulator started",
		slog.Duration("ship_delay", s.config.ShipDelay),
		slog.Duration("deliver_delay", s.config.DeliverDelay),
	)
}

// Stop cancels pending deliveries and waits for in-flight emissions.
func (s *Simulator) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.started = false
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	s.wg.Wait()
	s.logger.Info("delivery simulator stopped")
}

// handleOrderCreated schedules the shipped/delivered sequence for one order.
func (s *Simulator) handleOrderCreated(ctx context.Context, event json.RawMessage) error {
	var created domain.OrderCreatedEvent
	if err := json.Unmarshal(event, &created); err != nil {
		s.logger.Warn("dropping malformed order event", slog.Any("error", err))
		return nil
	}
	if created.EventType != domain.EventTypeOrderCreated || created.OrderID == "" {
		return nil
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	simCtx := s.ctx
	s.wg.Add(1)
	s.mu.Unlock()

	go s.advance(simCtx, created.OrderID)
	return nil
}

// advance walks one order through shipped and delivered.
func (s *Simulator) advance(ctx context.Context, orderID string) {
	defer s.wg.Done()

	if !s.sleep(ctx, s.config.ShipDelay) {
		return
	}
	s.emit(ctx, domain.EventTypeOrderShipped, orderID)

	if !s.sleep(ctx, s.config.DeliverDelay) {
		return
	}
	s.emit(ctx, domain.EventTypeOrderDelivered, orderID)
}

// sleep waits for d unless the simulator shuts down first.
func (s *Simulator) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// emit publishes one delivery status event.
func (s *Simulator) emit(ctx context.Context, eventType, orderID string) {
	event := domain.DeliveryStatusEvent{
		EventID:   "delivery-" + uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		OrderID:   orderID,
	}

	if err := eventbus.PublishJSON(ctx, s.bus, eventbus.TopicDeliveryEvents, event); err != nil {
		s.logger.Error("failed to emit delivery event",
			slog.String("event_type", eventType),
			slog.String("order_id", orderID),
			slog.Any("error", err),
		)
		return
	}

	s.logger.Info("delivery event emitted",
		slog.String("event_type", eventType),
		slog.String("order_id", orderID),
	)
}
