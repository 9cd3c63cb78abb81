package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/orders/internal/database"
	apperrors "github.com/allisson/orders/internal/errors"
	"github.com/allisson/orders/internal/inventory"
	"github.com/allisson/orders/internal/orders/domain"
	outboxDomain "github.com/allisson/orders/internal/outbox/domain"
)

// orderUseCase implements the UseCase interface.
type orderUseCase struct {
	txManager     database.TxManager
	orderRepo     OrderRepository
	processedRepo ProcessedEventRepository
	outboxRepo    OutboxRepository
	inventory     InventoryClient
	logger        *slog.Logger
}

// NewOrderUseCase creates a new order use case.
func NewOrderUseCase(
	txManager database.TxManager,
	orderRepo OrderRepository,
	processedRepo ProcessedEventRepository,
	outboxRepo OutboxRepository,
	inventoryClient InventoryClient,
	logger *slog.Logger,
) UseCase {
	return &orderUseCase{
		txManager:     txManager,
		orderRepo:     orderRepo,
		processedRepo: processedRepo,
		outboxRepo:    outboxRepo,
		inventory:     inventoryClient,
		logger:        logger,
	}
}

// CreateOrder accepts an order: replays on idempotency key, gates on the
// inventory collaborator, then writes the order and its order.created outbox
// record in one transaction. No partial acceptance takes place.
func (u *orderUseCase) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	// Idempotent replay: an existing order for the key is returned as-is,
	// without a fresh inventory check.
	if input.IdempotencyKey != nil {
		existing, err := u.orderRepo.GetByIdempotencyKey(ctx, *input.IdempotencyKey)
		if err == nil {
			u.logger.Info("order replayed from idempotency key",
				slog.String("order_id", existing.ID.String()),
				slog.String("correlation_id", input.CorrelationID),
			)
			return existing, nil
		}
		if !apperrors.Is(err, domain.ErrOrderNotFound) {
			return nil, err
		}
	}

	if err := u.checkInventory(ctx, input.Items); err != nil {
		return nil, err
	}

	order := domain.NewOrder(input.CustomerID, input.Items, input.IdempotencyKey)

	record, err := outboxDomain.NewOutboxRecord(
		domain.EventTypeOrderCreated,
		order.ID,
		domain.NewOrderCreatedEvent(order),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build order.created outbox record")
	}

	err = u.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := u.orderRepo.Create(txCtx, order); err != nil {
			return err
		}
		return u.outboxRepo.Create(txCtx, record)
	})
	if err != nil {
		// A concurrent request with the same idempotency key may have won the
		// insert race; return its order for the same success shape.
		if input.IdempotencyKey != nil && apperrors.Is(err, apperrors.ErrConflict) {
			if existing, lookupErr := u.orderRepo.GetByIdempotencyKey(ctx, *input.IdempotencyKey); lookupErr == nil {
				return existing, nil
			}
		}
		return nil, err
	}

	u.logger.Info("order created",
		slog.String("order_id", order.ID.String()),
		slog.String("customer_id", order.CustomerID),
		slog.String("total_amount", order.TotalAmount.StringFixed(2)),
		slog.String("correlation_id", input.CorrelationID),
	)

	return order, nil
}

// checkInventory asks the collaborator about every item in one batch and
// rejects the order when any line cannot be fully satisfied.
func (u *orderUseCase) checkInventory(ctx context.Context, items []domain.OrderItem) error {
	requests := make([]inventory.AvailabilityRequest, len(items))
	for i, item := range items {
		requests[i] = inventory.AvailabilityRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}

	results, err := u.inventory.CheckBatchAvailability(ctx, requests)
	if err != nil {
		return err
	}

	var shortfalls []domain.InventoryShortfall
	for i, result := range results {
		if !result.Available || result.AvailableQuantity < items[i].Quantity {
			shortfalls = append(shortfalls, domain.InventoryShortfall{
				ProductID: items[i].ProductID,
				Requested: items[i].Quantity,
				Available: result.AvailableQuantity,
			})
		}
	}

	if len(shortfalls) > 0 {
		return &domain.InsufficientInventoryError{Details: shortfalls}
	}

	return nil
}

// UpdateOrderStatus applies a status event exactly once: inside a single
// transaction it rejects already-processed event ids, locks the order row,
// checks the forward-only transition and records the processed-event marker.
func (u *orderUseCase) UpdateOrderStatus(
	ctx context.Context,
	orderID uuid.UUID,
	newStatus domain.Status,
	eventID string,
	correlationID string,
) (*domain.Order, error) {
	if !newStatus.Valid() {
		return nil, apperrors.Wrapf(domain.ErrInvalidStatusTransition, "unknown status %q", newStatus)
	}

	var order *domain.Order
	err := u.txManager.WithTx(ctx, func(txCtx context.Context) error {
		processed, err := u.processedRepo.Exists(txCtx, eventID)
		if err != nil {
			return err
		}
		if processed {
			return domain.ErrDuplicateEvent
		}

		order, err = u.orderRepo.GetByIDForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}

		if !order.Status.CanTransitionTo(newStatus) {
			return apperrors.Wrapf(
				domain.ErrInvalidStatusTransition,
				"cannot transition from %q to %q", order.Status, newStatus,
			)
		}

		now := time.Now().UTC()
		if err := u.orderRepo.UpdateStatus(txCtx, orderID, newStatus, now); err != nil {
			return err
		}

		// The unique event_id index closes the race between the Exists check
		// and this insert: the loser rolls back with a duplicate.
		if err := u.processedRepo.Create(txCtx, &domain.ProcessedEvent{
			EventID:     eventID,
			EventType:   newStatus.EventType(),
			ProcessedAt: now,
		}); err != nil {
			return err
		}

		order.Status = newStatus
		order.UpdatedAt = now
		return nil
	})
	if err != nil {
		u.logStatusUpdateFailure(orderID, newStatus, eventID, correlationID, err)
		return nil, err
	}

	u.logger.Info("order status updated",
		slog.String("order_id", orderID.String()),
		slog.String("status", string(newStatus)),
		slog.String("event_id", eventID),
		slog.String("correlation_id", correlationID),
	)

	return order, nil
}

// GetOrder retrieves an order by id.
func (u *orderUseCase) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return u.orderRepo.GetByID(ctx, id)
}

// ListOrders retrieves orders, optionally filtered by customer.
func (u *orderUseCase) ListOrders(
	ctx context.Context,
	customerID string,
	limit, offset int,
) ([]*domain.Order, error) {
	return u.orderRepo.List(ctx, customerID, limit, offset)
}

// logStatusUpdateFailure logs expected lifecycle rejections at warn and
// everything else at error.
func (u *orderUseCase) logStatusUpdateFailure(
	orderID uuid.UUID,
	newStatus domain.Status,
	eventID string,
	correlationID string,
	err error,
) {
	attrs := []any{
		slog.String("order_id", orderID.String()),
		slog.String("status", string(newStatus)),
		slog.String("event_id", eventID),
		slog.String("correlation_id", correlationID),
		slog.Any("error", err),
	}

	switch {
	case apperrors.Is(err, domain.ErrDuplicateEvent),
		apperrors.Is(err, domain.ErrInvalidStatusTransition),
		apperrors.Is(err, domain.ErrOrderNotFound):
		u.logger.Warn("order status update rejected", attrs...)
	default:
		u.logger.Error("order status update failed", attrs...)
	}
}
