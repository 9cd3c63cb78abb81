package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/orders/internal/database"
	apperrors "github.com/allisson/orders/internal/errors"
	"github.com/allisson/orders/internal/outbox/domain"
)

// MySQLOutboxRepository handles outbox record persistence for MySQL.
// Identifiers are stored as BINARY(16). MySQL 8 supports the same
// FOR UPDATE SKIP LOCKED lease as PostgreSQL.
type MySQLOutboxRepository struct {
	db *sql.DB
}

// NewMySQLOutboxRepository creates a new MySQLOutboxRepository.
func NewMySQLOutboxRepository(db *sql.DB) *MySQLOutboxRepository {
	return &MySQLOutboxRepository{db: db}
}

// Create inserts a new outbox record.
func (r *MySQLOutboxRepository) Create(ctx context.Context, record *domain.OutboxRecord) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := record.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	aggBytes, err := record.AggregateID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `INSERT INTO outbox_events (id, event_type, aggregate_id, payload, published, retry_count, next_retry_at, created_at, published_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
		record.EventType,
		aggBytes,
		[]byte(record.Payload),
		record.Published,
		record.RetryCount,
		record.NextRetryAt,
		record.CreatedAt,
		record.PublishedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create outbox record")
	}
	return nil
}

// LeaseBatch selects due unpublished records oldest first, locking each
// selected row and skipping rows already locked by a concurrent worker. Must
// run inside a transaction; the lease lasts until that transaction ends.
func (r *MySQLOutboxRepository) LeaseBatch(
	ctx context.Context,
	limit int,
	maxRetries int,
	now time.Time,
) ([]*domain.OutboxRecord, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, event_type, aggregate_id, payload, published, retry_count, next_retry_at, created_at, published_at
			  FROM outbox_events
			  WHERE published = false
			    AND retry_count <= ?
			    AND (next_retry_at IS NULL OR next_retry_at <= ?)
			  ORDER BY created_at ASC
			  LIMIT ?
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, maxRetries, now, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to lease outbox batch")
	}
	defer rows.Close() //nolint:errcheck

	return scanOutboxRecords(rows)
}

// MarkPublished flags a record as delivered.
func (r *MySQLOutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `UPDATE outbox_events SET published = true, published_at = ? WHERE id = ?`

	_, err = querier.ExecContext(ctx, query, publishedAt, idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to mark outbox record published")
	}
	return nil
}

// ScheduleRetry stores the new retry count and the next attempt time.
func (r *MySQLOutboxRepository) ScheduleRetry(
	ctx context.Context,
	id uuid.UUID,
	retryCount int,
	nextRetryAt time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `UPDATE outbox_events SET retry_count = ?, next_retry_at = ? WHERE id = ?`

	_, err = querier.ExecContext(ctx, query, retryCount, nextRetryAt, idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to schedule outbox retry")
	}
	return nil
}
