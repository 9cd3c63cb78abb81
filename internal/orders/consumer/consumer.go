// Package consumer subscribes to delivery status events and drives order
// lifecycle transitions through the order use case.
package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	apperrors "github.com/allisson/orders/internal/errors"
	"github.com/allisson/orders/internal/eventbus"
	"github.com/allisson/orders/internal/orders/domain"
	"github.com/allisson/orders/internal/orders/usecase"
)

// StatusConsumer translates delivery-events into status updates. Lifecycle
// rejections (duplicate event, unknown order, invalid transition) are
// observations, not faults: the bus is at-least-once and the update is
// idempotent, so the consumer never retries.
type StatusConsumer struct {
	orderUseCase usecase.UseCase
	logger       *slog.Logger
}

// NewStatusConsumer creates a new StatusConsumer.
func NewStatusConsumer(orderUseCase usecase.UseCase, logger *slog.Logger) *StatusConsumer {
	return &StatusConsumer{
		orderUseCase: orderUseCase,
		logger:       logger,
	}
}

// Register subscribes the consumer to the delivery-events topic.
func (c *StatusConsumer) Register(bus eventbus.Bus) {
	bus.Subscribe(eventbus.TopicDeliveryEvents, c.Handle)
}

// Handle processes one delivery status event. Malformed events are logged
// and dropped; the in-process bus has no NACK.
func (c *StatusConsumer) Handle(ctx context.Context, event json.RawMessage) error {
	var statusEvent domain.DeliveryStatusEvent
	if err := json.Unmarshal(event, &statusEvent); err != nil {
		c.logger.Warn("dropping malformed delivery event", slog.Any("error", err))
		return nil
	}

	newStatus, ok := domain.StatusForEventType(statusEvent.EventType)
	if !ok {
		c.logger.Warn("dropping delivery event with unknown type",
			slog.String("event_type", statusEvent.EventType),
			slog.String("event_id", statusEvent.EventID),
		)
		return nil
	}

	if statusEvent.OrderID == "" || statusEvent.EventID == "" {
		c.logger.Warn("dropping delivery event with missing identifiers",
			slog.String("event_id", statusEvent.EventID),
			slog.String("order_id", statusEvent.OrderID),
		)
		return nil
	}

	orderID, err := uuid.Parse(statusEvent.OrderID)
	if err != nil {
		c.logger.Warn("dropping delivery event with invalid order id",
			slog.String("order_id", statusEvent.OrderID),
			slog.Any("error", err),
		)
		return nil
	}

	_, err = c.orderUseCase.UpdateOrderStatus(
		ctx,
		orderID,
		newStatus,
		statusEvent.EventID,
		statusEvent.CorrelationID,
	)
	if err != nil {
		c.observeFailure(statusEvent, newStatus, err)
		return nil
	}

	c.logger.Info("delivery event applied",
		slog.String("order_id", statusEvent.OrderID),
		slog.String("status", string(newStatus)),
		slog.String("event_id", statusEvent.EventID),
	)

	return nil
}

// observeFailure logs update rejections at the severity they deserve.
func (c *StatusConsumer) observeFailure(event domain.DeliveryStatusEvent, status domain.Status, err error) {
	attrs := []any{
		slog.String("order_id", event.OrderID),
		slog.String("status", string(status)),
		slog.String("event_id", event.EventID),
		slog.Any("error", err),
	}

	switch {
	case apperrors.Is(err, domain.ErrDuplicateEvent):
		// Idempotent success from the consumer's point of view.
		c.logger.Info("delivery event already applied", attrs...)
	case apperrors.Is(err, domain.ErrOrderNotFound),
		apperrors.Is(err, domain.ErrInvalidStatusTransition):
		c.logger.Warn("delivery event rejected", attrs...)
	default:
		c.logger.Error("delivery event failed", attrs...)
	}
}
