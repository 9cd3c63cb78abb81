package dto

import (
	"time"

	"github.com/allisson/orders/internal/orders/domain"
)

// OrderItemResponse is one order line of an order response.
type OrderItemResponse struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// OrderResponse is the client-facing order representation. Amounts are JSON
// numbers at this boundary only; persistence and events carry decimals.
type OrderResponse struct {
	OrderID     string              `json:"orderId"`
	Status      string              `json:"status"`
	CustomerID  string              `json:"customerId"`
	Items       []OrderItemResponse `json:"items"`
	TotalAmount float64             `json:"totalAmount"`
	CreatedAt   string              `json:"createdAt"`
	UpdatedAt   string              `json:"updatedAt"`
}

// ListOrdersResponse is the paginated order listing.
type ListOrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// MapOrderToResponse converts a domain order to its response shape.
func MapOrderToResponse(order *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.UnitPrice.InexactFloat64(),
		}
	}

	return OrderResponse{
		OrderID:     order.ID.String(),
		Status:      string(order.Status),
		CustomerID:  order.CustomerID,
		Items:       items,
		TotalAmount: order.TotalAmount.InexactFloat64(),
		CreatedAt:   order.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   order.UpdatedAt.Format(time.RFC3339),
	}
}

// MapOrdersToListResponse converts a page of orders to the listing shape.
func MapOrdersToListResponse(orders []*domain.Order, limit, offset int) ListOrdersResponse {
	out := make([]OrderResponse, len(orders))
	for i, order := range orders {
		out[i] = MapOrderToResponse(order)
	}
	return ListOrdersResponse{Orders: out, Limit: limit, Offset: offset}
}
