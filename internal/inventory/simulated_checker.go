package inventory

import (
	"context"
	"errors"
	"math/rand"
	"sync"
)

// ErrSimulatedFailure is the transient fault injected by the simulated
// collaborator according to its configured failure rate.
var ErrSimulatedFailure = errors.New("simulated inventory failure")

const defaultStockPerProduct = 100

// SimulatedChecker is an in-process stand-in for the external inventory
// collaborator. Unknown products report the default stock level; the
// failure rate percentage injects transient faults for resilience testing.
type SimulatedChecker struct {
	failureRatePercent int

	mu    sync.Mutex
	stock map[string]int
	randn func(n int) int
}

// SimulatedOption configures a SimulatedChecker.
type SimulatedOption func(*SimulatedChecker)

// WithStock seeds explicit stock levels per product.
func WithStock(stock map[string]int) SimulatedOption {
	return func(c *SimulatedChecker) {
		for productID, quantity := range stock {
			c.stock[productID] = quantity
		}
	}
}

// WithRand injects the random source used for failure injection.
func WithRand(randn func(n int) int) SimulatedOption {
	return func(c *SimulatedChecker) {
		c.randn = randn
	}
}

// NewSimulatedChecker creates a SimulatedChecker with the given failure rate
// percentage (0 disables fault injection).
func NewSimulatedChecker(failureRatePercent int, opts ...SimulatedOption) *SimulatedChecker {
	c := &SimulatedChecker{
		failureRatePercent: failureRatePercent,
		stock:              make(map[string]int),
		randn:              rand.Intn,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckBatchAvailability answers in input order.
func (c *SimulatedChecker) CheckBatchAvailability(
	ctx context.Context,
	items []AvailabilityRequest,
) ([]AvailabilityResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failureRatePercent > 0 && c.randn(100) < c.failureRatePercent {
		return nil, ErrSimulatedFailure
	}

	results := make([]AvailabilityResult, len(items))
	for i, item := range items {
		available, ok := c.stock[item.ProductID]
		if !ok {
			available = defaultStockPerProduct
		}

		results[i] = AvailabilityResult{
			ProductID:         item.ProductID,
			Available:         available >= item.Quantity,
			AvailableQuantity: available,
		}
	}

	return results, nil
}

// SetStock adjusts the stock level of a product.
func (c *SimulatedChecker) SetStock(productID string, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stock[productID] = quantity
}
