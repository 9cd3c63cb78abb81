// Package usecase implements the order intake and lifecycle business logic.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/orders/internal/inventory"
	"github.com/allisson/orders/internal/orders/domain"
	outboxDomain "github.com/allisson/orders/internal/outbox/domain"
)

// OrderRepository defines order persistence operations.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status, updatedAt time.Time) error
	List(ctx context.Context, customerID string, limit, offset int) ([]*domain.Order, error)
}

// ProcessedEventRepository defines processed-event marker operations.
type ProcessedEventRepository interface {
	Create(ctx context.Context, marker *domain.ProcessedEvent) error
	Exists(ctx context.Context, eventID string) (bool, error)
}

// OutboxRepository defines the outbox operations the order service needs.
type OutboxRepository interface {
	Create(ctx context.Context, record *outboxDomain.OutboxRecord) error
}

// InventoryClient defines the batch availability check against the external
// inventory collaborator.
type InventoryClient interface {
	CheckBatchAvailability(
		ctx context.Context,
		items []inventory.AvailabilityRequest,
	) ([]inventory.AvailabilityResult, error)
}

// CreateOrderInput carries an order acceptance request. Input validation is
// the caller's responsibility; malformed input here is a programming error.
type CreateOrderInput struct {
	CustomerID     string
	Items          []domain.OrderItem
	IdempotencyKey *string
	CorrelationID  string
}

// UseCase defines the order service operations.
type UseCase interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error)
	UpdateOrderStatus(
		ctx context.Context,
		orderID uuid.UUID,
		newStatus domain.Status,
		eventID string,
		correlationID string,
	) (*domain.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, customerID string, limit, offset int) ([]*domain.Order, error)
}
