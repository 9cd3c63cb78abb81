package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/orders/internal/metrics"
	"github.com/allisson/orders/internal/orders/domain"
)

// orderUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type orderUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewOrderUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewOrderUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &orderUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// CreateOrder records metrics for order acceptance.
func (d *orderUseCaseWithMetrics) CreateOrder(
	ctx context.Context,
	input CreateOrderInput,
) (*domain.Order, error) {
	start := time.Now()
	order, err := d.next.CreateOrder(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "orders", "order_create", status)
	d.metrics.RecordDuration(ctx, "orders", "order_create", time.Since(start), status)

	return order, err
}

// UpdateOrderStatus records metrics for status updates.
func (d *orderUseCaseWithMetrics) UpdateOrderStatus(
	ctx context.Context,
	orderID uuid.UUID,
	newStatus domain.Status,
	eventID string,
	correlationID string,
) (*domain.Order, error) {
	start := time.Now()
	order, err := d.next.UpdateOrderStatus(ctx, orderID, newStatus, eventID, correlationID)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "orders", "order_update_status", status)
	d.metrics.RecordDuration(ctx, "orders", "order_update_status", time.Since(start), status)

	return order, err
}

// GetOrder records metrics for order retrieval.
func (d *orderUseCaseWithMetrics) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	start := time.Now()
	order, err := d.next.GetOrder(ctx, id)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "orders", "order_get", status)
	d.metrics.RecordDuration(ctx, "orders", "order_get", time.Since(start), status)

	return order, err
}

// ListOrders records metrics for order listing.
func (d *orderUseCaseWithMetrics) ListOrders(
	ctx context.Context,
	customerID string,
	limit, offset int,
) ([]*domain.Order, error) {
	start := time.Now()
	orders, err := d.next.ListOrders(ctx, customerID, limit, offset)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "orders", "order_list", status)
	d.metrics.RecordDuration(ctx, "orders", "order_list", time.Since(start), status)

	return orders, err
}
