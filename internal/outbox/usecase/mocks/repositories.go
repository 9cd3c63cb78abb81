// Package mocks provides mock implementations for testing the outbox publisher.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	ordersDomain "github.com/allisson/orders/internal/orders/domain"
	"github.com/allisson/orders/internal/outbox/domain"
)

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mock.Mock
}

// LeaseBatch mocks the LeaseBatch method.
func (m *MockOutboxRepository) LeaseBatch(
	ctx context.Context,
	limit int,
	maxRetries int,
	now time.Time,
) ([]*domain.OutboxRecord, error) {
	args := m.Called(ctx, limit, maxRetries, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OutboxRecord), args.Error(1)
}

// MarkPublished mocks the MarkPublished method.
func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error {
	args := m.Called(ctx, id, publishedAt)
	return args.Error(0)
}

// ScheduleRetry mocks the ScheduleRetry method.
func (m *MockOutboxRepository) ScheduleRetry(
	ctx context.Context,
	id uuid.UUID,
	retryCount int,
	nextRetryAt time.Time,
) error {
	args := m.Called(ctx, id, retryCount, nextRetryAt)
	return args.Error(0)
}

// MockProcessedEventRepository is a mock implementation of ProcessedEventRepository.
type MockProcessedEventRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockProcessedEventRepository) Create(ctx context.Context, marker *ordersDomain.ProcessedEvent) error {
	args := m.Called(ctx, marker)
	return args.Error(0)
}

// Exists mocks the Exists method.
func (m *MockProcessedEventRepository) Exists(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}
