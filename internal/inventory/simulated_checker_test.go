package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedChecker_DefaultStock(t *testing.T) {
	checker := NewSimulatedChecker(0)

	results, err := checker.CheckBatchAvailability(context.Background(), []AvailabilityRequest{
		{ProductID: "p-1", Quantity: 2},
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Available)
	assert.Equal(t, defaultStockPerProduct, results[0].AvailableQuantity)
}

func TestSimulatedChecker_SeededStock(t *testing.T) {
	checker := NewSimulatedChecker(0, WithStock(map[string]int{"p-1": 1}))

	results, err := checker.CheckBatchAvailability(context.Background(), []AvailabilityRequest{
		{ProductID: "p-1", Quantity: 5},
	})

	require.NoError(t, err)
	assert.False(t, results[0].Available)
	assert.Equal(t, 1, results[0].AvailableQuantity)
}

func TestSimulatedChecker_PreservesInputOrder(t *testing.T) {
	checker := NewSimulatedChecker(0, WithStock(map[string]int{"p-1": 10, "p-2": 0, "p-3": 3}))

	results, err := checker.CheckBatchAvailability(context.Background(), []AvailabilityRequest{
		{ProductID: "p-3", Quantity: 1},
		{ProductID: "p-1", Quantity: 1},
		{ProductID: "p-2", Quantity: 1},
	})

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "p-3", results[0].ProductID)
	assert.Equal(t, "p-1", results[1].ProductID)
	assert.Equal(t, "p-2", results[2].ProductID)
	assert.False(t, results[2].Available)
}

func TestSimulatedChecker_FailureInjection(t *testing.T) {
	// randn always below the failure rate: every call fails.
	checker := NewSimulatedChecker(10, WithRand(func(n int) int { return 0 }))

	_, err := checker.CheckBatchAvailability(context.Background(), []AvailabilityRequest{
		{ProductID: "p-1", Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrSimulatedFailure)

	// randn always at or above the failure rate: calls succeed.
	checker = NewSimulatedChecker(10, WithRand(func(n int) int { return 10 }))
	_, err = checker.CheckBatchAvailability(context.Background(), []AvailabilityRequest{
		{ProductID: "p-1", Quantity: 1},
	})
	assert.NoError(t, err)
}

func TestSimulatedChecker_SetStock(t *testing.T) {
	checker := NewSimulatedChecker(0)
	checker.SetStock("p-1", 0)

	results, err := checker.CheckBatchAvailability(context.Background(), []AvailabilityRequest{
		{ProductID: "p-1", Quantity: 1},
	})

	require.NoError(t, err)
	assert.False(t, results[0].Available)
	assert.Equal(t, 0, results[0].AvailableQuantity)
}

func TestSimulatedChecker_CancelledContext(t *testing.T) {
	checker := NewSimulatedChecker(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := checker.CheckBatchAvailability(ctx, []AvailabilityRequest{
		{ProductID: "p-1", Quantity: 1},
	})
	assert.ErrorIs(t, err, context.Canceled)
}
