package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event types carried on the bus.
const (
	EventTypeOrderCreated   = "order.created"
	EventTypeOrderShipped   = "order.shipped"
	EventTypeOrderDelivered = "order.delivered"
	EventTypeDLQ            = "dlq.event"
)

// OrderItemPayload is the wire shape of a single order line.
type OrderItemPayload struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

// OrderCreatedEvent is published on the order-events topic for every
// accepted order. TotalAmount and prices are serialized as fixed-point
// decimal strings; timestamps are RFC3339 UTC.
type OrderCreatedEvent struct {
	EventID     string             `json:"eventId"`
	EventType   string             `json:"eventType"`
	Timestamp   string             `json:"timestamp"`
	OrderID     string             `json:"orderId"`
	CustomerID  string             `json:"customerId"`
	Items       []OrderItemPayload `json:"items"`
	TotalAmount string             `json:"totalAmount"`
	Status      string             `json:"status"`
	CreatedAt   string             `json:"createdAt"`
}

// NewOrderCreatedEvent builds the order.created payload for an order with a
// freshly generated v4 event id.
func NewOrderCreatedEvent(order *Order) OrderCreatedEvent {
	items := make([]OrderItemPayload, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemPayload{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.UnitPrice.StringFixed(2),
		}
	}

	return OrderCreatedEvent{
		EventID:     uuid.NewString(),
		EventType:   EventTypeOrderCreated,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		OrderID:     order.ID.String(),
		CustomerID:  order.CustomerID,
		Items:       items,
		TotalAmount: order.TotalAmount.StringFixed(2),
		Status:      string(order.Status),
		CreatedAt:   order.CreatedAt.Format(time.RFC3339),
	}
}

// DeliveryStatusEvent is consumed from (and, by the delivery simulator,
// produced onto) the delivery-events topic.
type DeliveryStatusEvent struct {
	EventID       string `json:"eventId"`
	EventType     string `json:"eventType"`
	Timestamp     string `json:"timestamp"`
	OrderID       string `json:"orderId"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// StatusForEventType maps a delivery event type to the order status it
// drives the order into. The second return is false for unknown types.
func StatusForEventType(eventType string) (Status, bool) {
	switch eventType {
	case EventTypeOrderShipped:
		return StatusShipped, true
	case EventTypeOrderDelivered:
		return StatusDelivered, true
	}
	return "", false
}
