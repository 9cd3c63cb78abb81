package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/orders/internal/database"
	apperrors "github.com/allisson/orders/internal/errors"
	"github.com/allisson/orders/internal/orders/domain"
)

// PostgreSQLProcessedEventRepository persists processed-event markers for
// PostgreSQL. The unique event_id index is the idempotency barrier: a second
// insert for the same event id fails and surfaces as ErrDuplicateEvent.
type PostgreSQLProcessedEventRepository struct {
	db *sql.DB
}

// NewPostgreSQLProcessedEventRepository creates a new PostgreSQL ProcessedEvent repository.
func NewPostgreSQLProcessedEventRepository(db *sql.DB) *PostgreSQLProcessedEventRepository {
	return &PostgreSQLProcessedEventRepository{db: db}
}

// Create inserts a processed-event marker.
func (r *PostgreSQLProcessedEventRepository) Create(ctx context.Context, marker *domain.ProcessedEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO processed_events (event_id, event_type, processed_at) VALUES ($1, $2, $3)`

	_, err := querier.ExecContext(ctx, query, marker.EventID, marker.EventType, marker.ProcessedAt)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrDuplicateEvent
		}
		return apperrors.Wrap(err, "failed to create processed event marker")
	}
	return nil
}

// Exists reports whether a marker for the event id is present.
func (r *PostgreSQLProcessedEventRepository) Exists(ctx context.Context, eventID string) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT EXISTS (SELECT 1 FROM processed_events WHERE event_id = $1)`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, eventID).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check processed event marker")
	}
	return exists, nil
}
