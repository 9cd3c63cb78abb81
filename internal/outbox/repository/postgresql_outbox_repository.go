// Package repository provides data persistence implementations for outbox records.
//
// The lease query relies on the database's row-level lock acquisition with
// SKIP LOCKED so concurrent publisher workers drain the outbox without
// contending on the same rows. Locks are held until the enclosing
// transaction completes.
package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/orders/internal/database"
	apperrors "github.com/allisson/orders/internal/errors"
	"github.com/allisson/orders/internal/outbox/domain"
)

// PostgreSQLOutboxRepository handles outbox record persistence for PostgreSQL.
type PostgreSQLOutboxRepository struct {
	db *sql.DB
}

// NewPostgreSQLOutboxRepository creates a new PostgreSQLOutboxRepository.
func NewPostgreSQLOutboxRepository(db *sql.DB) *PostgreSQLOutboxRepository {
	return &PostgreSQLOutboxRepository{db: db}
}

// Create inserts a new outbox record.
func (r *PostgreSQLOutboxRepository) Create(ctx context.Context, record *domain.OutboxRecord) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO outbox_events (id, event_type, aggregate_id, payload, published, retry_count, next_retry_at, created_at, published_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		record.ID,
		record.EventType,
		record.AggregateID,
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
func (r *PostgreSQLOutboxRepository) LeaseBatch(
	ctx context.Context,
	limit int,
	maxRetries int,
	now time.Time,
) ([]*domain.OutboxRecord, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, event_type, aggregate_id, payload, published, retry_count, next_retry_at, created_at, published_at
			  FROM outbox_events
			  WHERE published = false
			    AND retry_count <= $1
			    AND (next_retry_at IS NULL OR next_retry_at <= $2)
			  ORDER BY created_at ASC
			  LIMIT $3
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, maxRetries, now, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to lease outbox batch")
	}
	defer rows.Close() //nolint:errcheck

	return scanOutboxRecords(rows)
}

// MarkPublished flags a record as delivered.
func (r *PostgreSQLOutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_events SET published = true, published_at = $1 WHERE id = $2`

	_, err := querier.ExecContext(ctx, query, publishedAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to mark outbox record published")
	}
	return nil
}

// ScheduleRetry stores the new retry count and the next attempt time.
func (r *PostgreSQLOutboxRepository) ScheduleRetry(
	ctx context.Context,
	id uuid.UUID,
	retryCount int,
	nextRetryAt time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_events SET retry_count = $1, next_retry_at = $2 WHERE id = $3`

	_, err := querier.ExecContext(ctx, query, retryCount, nextRetryAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to schedule outbox retry")
	}
	return nil
}

// scanOutboxRecords reads a record list from a query result. Shared by the
// PostgreSQL and MySQL implementations; MySQL stores ids as BINARY(16), which
// uuid.UUID scans from via its sql.Scanner only for 16-byte values, so both
// layouts decode through scanOutboxID.
func scanOutboxRecords(rows *sql.Rows) ([]*domain.OutboxRecord, error) {
	var records []*domain.OutboxRecord
	for rows.Next() {
		var (
			record  domain.OutboxRecord
			id      []byte
			aggID   []byte
			payload []byte
		)

		err := rows.Scan(
			&id,
			&record.EventType,
			&aggID,
			&payload,
			&record.Published,
			&record.RetryCount,
			&record.NextRetryAt,
			&record.CreatedAt,
			&record.PublishedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan outbox record")
		}

		if record.ID, err = scanOutboxID(id); err != nil {
			return nil, err
		}
		if record.AggregateID, err = scanOutboxID(aggID); err != nil {
			return nil, err
		}
		record.Payload = payload

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate outbox records")
	}

	return records, nil
}

// scanOutboxID decodes a UUID from either its textual (PostgreSQL) or binary
// (MySQL) column representation.
func scanOutboxID(data []byte) (uuid.UUID, error) {
	if len(data) == 16 {
		var id uuid.UUID
		if err := id.UnmarshalBinary(data); err != nil {
			return uuid.Nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		return id, nil
	}

	id, err := uuid.Parse(strings.TrimSpace(string(data)))
	if err != nil {
		return uuid.Nil, apperrors.Wrap(err, "failed to parse UUID")
	}
	return id, nil
}
