package domain

import (
	"fmt"
	"strings"

	apperrors "github.com/allisson/orders/internal/errors"
)

// Code is the machine-readable error code surfaced to API clients.
type Code string

const (
	CodeInsufficientInventory   Code = "INSUFFICIENT_INVENTORY"
	CodeInventoryUnavailable    Code = "INVENTORY_SERVICE_UNAVAILABLE"
	CodeValidationError         Code = "VALIDATION_ERROR"
	CodeOrderNotFound           Code = "ORDER_NOT_FOUND"
	CodeInvalidStatusTransition Code = "INVALID_STATUS_TRANSITION"
	CodeDuplicateEvent          Code = "DUPLICATE_EVENT"
)

// Domain sentinels. Each wraps one of the shared application errors so the
// HTTP layer can map on either level.
var (
	// ErrOrderNotFound indicates the order does not exist.
	ErrOrderNotFound = apperrors.Wrap(apperrors.ErrNotFound, "order not found")

	// ErrDuplicateEvent indicates a processed-event marker already exists for
	// the event id; the event was applied before.
	ErrDuplicateEvent = apperrors.Wrap(apperrors.ErrConflict, "event already processed")

	// ErrInvalidStatusTransition indicates the requested status change breaks
	// the forward-only lifecycle.
	ErrInvalidStatusTransition = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid status transition")

	// ErrInventoryUnavailable indicates the inventory collaborator could not
	// be reached (circuit open, timeout, transport failure).
	ErrInventoryUnavailable = apperrors.Wrap(apperrors.ErrUnavailable, "inventory service unavailable")
)

// InventoryShortfall describes one rejected item of an insufficient
// inventory failure.
type InventoryShortfall struct {
	ProductID string `json:"productId"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// InsufficientInventoryError is returned by order acceptance when one or
// more items cannot be satisfied. No partial acceptance takes place.
type InsufficientInventoryError struct {
	Details []InventoryShortfall
}

// Error implements the error interface.
func (e *InsufficientInventoryError) Error() string {
	products := make([]string, len(e.Details))
	for i, d := range e.Details {
		products[i] = d.ProductID
	}
	return fmt.Sprintf("insufficient inventory for products: %s", strings.Join(products, ", "))
}

// CodeOf maps a domain error to its client-facing code. Unknown errors map
// to INVENTORY_SERVICE_UNAVAILABLE, the generic system failure code.
func CodeOf(err error) Code {
	var insufficientErr *InsufficientInventoryError

	switch {
	case apperrors.As(err, &insufficientErr):
		return CodeInsufficientInventory
	case apperrors.Is(err, ErrOrderNotFound):
		return CodeOrderNotFound
	case apperrors.Is(err, ErrDuplicateEvent):
		return CodeDuplicateEvent
	case apperrors.Is(err, ErrInvalidStatusTransition):
		return CodeInvalidStatusTransition
	case apperrors.Is(err, apperrors.ErrInvalidInput):
		return CodeValidationError
	default:
		return CodeInventoryUnavailable
	}
}
