// Package inventory provides the client for the external inventory
// collaborator and the collaborator implementations used by the service.
package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/orders/internal/breaker"
	ordersDomain "github.com/allisson/orders/internal/orders/domain"
)

// AvailabilityRequest is one line of a batch availability check.
type AvailabilityRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// AvailabilityResult is the collaborator's answer for one product.
type AvailabilityResult struct {
	ProductID         string `json:"productId"`
	Available         bool   `json:"available"`
	AvailableQuantity int    `json:"availableQuantity"`
}

// Checker is the RPC shape the external inventory collaborator must satisfy.
type Checker interface {
	CheckBatchAvailability(ctx context.Context, items []AvailabilityRequest) ([]AvailabilityResult, error)
}

// Client calls the inventory collaborator through a circuit breaker. Results
// are returned in input order; any failure, including an open circuit,
// surfaces as ErrInventoryUnavailable. Retrying is left to the caller.
type Client struct {
	checker Checker
	breaker *breaker.Breaker
	logger  *slog.Logger
}

// NewClient creates a new Client.
func NewClient(checker Checker, b *breaker.Breaker, logger *slog.Logger) *Client {
	return &Client{
		checker: checker,
		breaker: b,
		logger:  logger,
	}
}

// CheckBatchAvailability checks every item in one collaborator round trip.
func (c *Client) CheckBatchAvailability(
	ctx context.Context,
	items []AvailabilityRequest,
) ([]AvailabilityResult, error) {
	var results []AvailabilityResult

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var opErr error
		results, opErr = c.checker.CheckBatchAvailability(ctx, items)
		return opErr
	})
	if err != nil {
		if c.logger != nil {
			c.logger.Error("inventory check failed", slog.Any("error", err))
		}
		return nil, fmt.Errorf("%w: %w", ordersDomain.ErrInventoryUnavailable, err)
	}

	aligned, err := alignResults(items, results)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("inventory response malformed", slog.Any("error", err))
		}
		return nil, fmt.Errorf("%w: %w", ordersDomain.ErrInventoryUnavailable, err)
	}

	return aligned, nil
}

// Breaker exposes the guarding breaker for observability endpoints.
func (c *Client) Breaker() *breaker.Breaker {
	return c.breaker
}

// alignResults reorders the collaborator response to match the request order
// so callers can pair details[i] with items[i].
func alignResults(
	items []AvailabilityRequest,
	results []AvailabilityResult,
) ([]AvailabilityResult, error) {
	byProduct := make(map[string]AvailabilityResult, len(results))
	for _, result := range results {
		byProduct[result.ProductID] = result
	}

	aligned := make([]AvailabilityResult, len(items))
	for i, item := range items {
		result, ok := byProduct[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("response missing product %s", item.ProductID)
		}
		aligned[i] = result
	}

	return aligned, nil
}
