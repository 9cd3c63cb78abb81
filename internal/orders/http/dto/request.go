// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"
	"github.com/shopspring/decimal"

	"github.com/allisson/orders/internal/orders/domain"
)

// OrderItemRequest is one order line of an acceptance request.
type OrderItemRequest struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Validate checks a single order line.
func (i OrderItemRequest) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ProductID, validation.Required, validation.Length(1, 0)),
		validation.Field(&i.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&i.Price, validation.Min(0.0)),
	)
}

// CreateOrderRequest contains the parameters for accepting an order.
type CreateOrderRequest struct {
	CustomerID string             `json:"customerId"`
	Items      []OrderItemRequest `json:"items"`
}

// Validate checks if the create order request is valid.
func (r *CreateOrderRequest) Validate() error {
	if err := validation.ValidateStruct(r,
		validation.Field(&r.CustomerID, validation.Required, validation.Length(1, 0)),
		validation.Field(&r.Items, validation.Required, validation.Length(1, 0)),
	); err != nil {
		return err
	}

	// Slice elements validate individually through their Validatable impl.
	return validation.Validate(r.Items)
}

// ToDomainItems converts request lines to domain order items. Prices enter
// as JSON numbers and are fixed to two decimal places here; everything past
// this boundary works on exact decimals.
func (r *CreateOrderRequest) ToDomainItems() []domain.OrderItem {
	items := make([]domain.OrderItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: decimal.NewFromFloat(item.Price).Round(2),
		}
	}
	return items
}
