// Package mocks provides mock implementations for testing the order use case.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/orders/internal/inventory"
	"github.com/allisson/orders/internal/orders/domain"
	outboxDomain "github.com/allisson/orders/internal/outbox/domain"
)

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// GetByID mocks the GetByID method.
func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

// GetByIDForUpdate mocks the GetByIDForUpdate method.
func (m *MockOrderRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

// GetByIdempotencyKey mocks the GetByIdempotencyKey method.
func (m *MockOrderRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

// UpdateStatus mocks the UpdateStatus method.
func (m *MockOrderRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.Status,
	updatedAt time.Time,
) error {
	args := m.Called(ctx, id, status, updatedAt)
	return args.Error(0)
}

// List mocks the List method.
func (m *MockOrderRepository) List(
	ctx context.Context,
	customerID string,
	limit, offset int,
) ([]*domain.Order, error) {
	args := m.Called(ctx, customerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Order), args.Error(1)
}

// MockProcessedEventRepository is a mock implementation of ProcessedEventRepository.
type MockProcessedEventRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockProcessedEventRepository) Create(ctx context.Context, marker *domain.ProcessedEvent) error {
	args := m.Called(ctx, marker)
	return args.Error(0)
}

// Exists mocks the Exists method.
func (m *MockProcessedEventRepository) Exists(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockOutboxRepository) Create(ctx context.Context, record *outboxDomain.OutboxRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// MockInventoryClient is a mock implementation of InventoryClient.
type MockInventoryClient struct {
	mock.Mock
}

// CheckBatchAvailability mocks the CheckBatchAvailability method.
func (m *MockInventoryClient) CheckBatchAvailability(
	ctx context.Context,
	items []inventory.AvailabilityRequest,
) ([]inventory.AvailabilityResult, error) {
	args := m.Called(ctx, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.AvailabilityResult), args.Error(1)
}
