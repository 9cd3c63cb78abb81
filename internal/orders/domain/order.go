// Package domain defines the core order entities, status lifecycle and event types.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of an order. Transitions are
// forward-only: Pending Shipment -> Shipped -> Delivered.
type Status string

const (
	StatusPendingShipment Status = "Pending Shipment"
	StatusShipped         Status = "Shipped"
	StatusDelivered       Status = "Delivered"
)

// Valid reports whether s is a known order status.
func (s Status) Valid() bool {
	switch s {
	case StatusPendingShipment, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

// CanTransitionTo reports whether the transition from s to next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPendingShipment:
		return next == StatusShipped
	case StatusShipped:
		return next == StatusDelivered
	}
	return false
}

// EventType derives the event type recorded in processed-event markers for a
// transition into this status: the status lowercased with spaces replaced by
// underscores, prefixed with "order." (e.g. "order.shipped").
func (s Status) EventType() string {
	out := make([]byte, 0, len(s)+6)
	out = append(out, "order."...)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ':
			out = append(out, '_')
		case c >= 'A' && c <= 'Z':
			out = append(out, c+('a'-'A'))
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

// OrderItem is a single line of an order.
type OrderItem struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Order is the aggregate root of the order intake domain. TotalAmount is
// fixed at creation time and never changes; only Status and UpdatedAt are
// mutated afterwards.
type Order struct {
	ID             uuid.UUID
	CustomerID     string
	Items          []OrderItem
	TotalAmount    decimal.Decimal
	Status         Status
	IdempotencyKey *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ComputeTotal sums quantity * unit price over the items without losing
// precision. The result carries two decimal places.
func ComputeTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total.Round(2)
}

// NewOrder builds an order in Pending Shipment with a fresh UUIDv7 identifier
// and the total computed from the items.
func NewOrder(customerID string, items []OrderItem, idempotencyKey *string) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:             uuid.Must(uuid.NewV7()),
		CustomerID:     customerID,
		Items:          items,
		TotalAmount:    ComputeTotal(items),
		Status:         StatusPendingShipment,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
