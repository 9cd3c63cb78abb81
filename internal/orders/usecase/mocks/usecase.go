package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/orders/internal/orders/domain"
	"github.com/allisson/orders/internal/orders/usecase"
)

// MockUseCase is a mock implementation of the order UseCase.
type MockUseCase struct {
	mock.Mock
}

// CreateOrder mocks the CreateOrder method.
func (m *MockUseCase) CreateOrder(ctx context.Context, input usecase.CreateOrderInput) (*domain.Order, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

// UpdateOrderStatus mocks the UpdateOrderStatus method.
func (m *MockUseCase) UpdateOrderStatus(
	ctx context.Context,
	orderID uuid.UUID,
	newStatus domain.Status,
	eventID string,
	correlationID string,
) (*domain.Order, error) {
	args := m.Called(ctx, orderID, newStatus, eventID, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

// GetOrder mocks the GetOrder method.
func (m *MockUseCase) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

// ListOrders mocks the ListOrders method.
func (m *MockUseCase) ListOrders(
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
