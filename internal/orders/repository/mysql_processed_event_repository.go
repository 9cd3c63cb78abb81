package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/orders/internal/database"
	apperrors "github.com/allisson/orders/internal/errors"
	"github.com/allisson/orders/internal/orders/domain"
)

// MySQLProcessedEventRepository persists processed-event markers for MySQL.
type MySQLProcessedEventRepository struct {
	db *sql.DB
}

// NewMySQLProcessedEventRepository creates a new MySQL ProcessedEvent repository.
func NewMySQLProcessedEventRepository(db *sql.DB) *MySQLProcessedEventRepository {
	return &MySQLProcessedEventRepository{db: db}
}

// Create inserts a processed-event marker.
func (r *MySQLProcessedEventRepository) Create(ctx context.Context, marker *domain.ProcessedEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO processed_events (event_id, event_type, processed_at) VALUES (?, ?, ?)`

	_, err := querier.ExecContext(ctx, query, marker.EventID, marker.EventType, marker.ProcessedAt)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrDuplicateEvent
		}
		return apperrors.Wrap(err, "failed to create processed event marker")
	}
	return nil
}

// Exists reports whether a marker for the event id is present.
func (r *MySQLProcessedEventRepository) Exists(ctx context.Context, eventID string) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT EXISTS (SELECT 1 FROM processed_events WHERE event_id = ?)`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, eventID).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check processed event marker")
	}
	return exists, nil
}
