package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/orders/internal/outbox/domain"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db, mock
}

func testRecord(t *testing.T) *domain.OutboxRecord {
	t.Helper()

	record, err := domain.NewOutboxRecord(
		"order.created",
		uuid.Must(uuid.NewV7()),
		map[string]string{"eventId": "e-1"},
	)
	require.NoError(t, err)
	return record
}

func outboxColumns() []string {
	return []string{
		"id", "event_type", "aggregate_id", "payload", "published",
		"retry_count", "next_retry_at", "created_at", "published_at",
	}
}

func TestPostgreSQLOutboxRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLOutboxRepository(db)
	record := testRecord(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO outbox_events`)).
		WithArgs(
			record.ID,
			record.EventType,
			record.AggregateID,
			[]byte(record.Payload),
			false,
			0,
			nil,
			record.CreatedAt,
			nil,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), record)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLOutboxRepository_LeaseBatch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLOutboxRepository(db)
	record := testRecord(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(outboxColumns()).AddRow(
		record.ID.String(),
		record.EventType,
		record.AggregateID.String(),
		[]byte(record.Payload),
		false,
		0,
		nil,
		record.CreatedAt,
		nil,
	)

	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE SKIP LOCKED`)).
		WithArgs(5, now, 50).
		WillReturnRows(rows)

	records, err := repo.LeaseBatch(context.Background(), 50, 5, now)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, record.AggregateID, got.AggregateID)
	assert.Equal(t, "order.created", got.EventType)
	assert.False(t, got.Published)
	assert.JSONEq(t, string(record.Payload), string(got.Payload))
}

func TestPostgreSQLOutboxRepository_LeaseBatch_Predicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLOutboxRepository(db)
	now := time.Now().UTC()

	// The lease predicate selects unpublished rows within the retry budget
	// whose next attempt is due, oldest first.
	expected := `WHERE published = false
			    AND retry_count <= $1
			    AND (next_retry_at IS NULL OR next_retry_at <= $2)
			  ORDER BY created_at ASC
			  LIMIT $3
			  FOR UPDATE SKIP LOCKED`

	mock.ExpectQuery(regexp.QuoteMeta(expected)).
		WithArgs(5, now, 10).
		WillReturnRows(sqlmock.NewRows(outboxColumns()))

	records, err := repo.LeaseBatch(context.Background(), 10, 5, now)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLOutboxRepository_LeaseBatch_NullableFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLOutboxRepository(db)
	record := testRecord(t)
	now := time.Now().UTC()
	nextRetry := now.Add(200 * time.Millisecond)

	rows := sqlmock.NewRows(outboxColumns()).AddRow(
		record.ID.String(),
		record.EventType,
		record.AggregateID.String(),
		[]byte(record.Payload),
		false,
		2,
		nextRetry,
		record.CreatedAt,
		nil,
	)

	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE SKIP LOCKED`)).
		WillReturnRows(rows)

	records, err := repo.LeaseBatch(context.Background(), 50, 5, now)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].RetryCount)
	require.NotNil(t, records[0].NextRetryAt)
	assert.WithinDuration(t, nextRetry, *records[0].NextRetryAt, time.Millisecond)
	assert.Nil(t, records[0].PublishedAt)
}

func TestPostgreSQLOutboxRepository_MarkPublished(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLOutboxRepository(db)
	id := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE outbox_events SET published = true, published_at = $1 WHERE id = $2`)).
		WithArgs(now, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkPublished(context.Background(), id, now)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLOutboxRepository_ScheduleRetry(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLOutboxRepository(db)
	id := uuid.Must(uuid.NewV7())
	nextRetryAt := time.Now().UTC().Add(400 * time.Millisecond)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE outbox_events SET retry_count = $1, next_retry_at = $2 WHERE id = $3`)).
		WithArgs(3, nextRetryAt, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ScheduleRetry(context.Background(), id, 3, nextRetryAt)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanOutboxID(t *testing.T) {
	id := uuid.Must(uuid.NewV7())

	// Textual representation (PostgreSQL).
	got, err := scanOutboxID([]byte(id.String()))
	require.NoError(t, err)
	assert.Equal(t, id, got)

	// Binary representation (MySQL BINARY(16)).
	idBytes, err := id.MarshalBinary()
	require.NoError(t, err)
	got, err = scanOutboxID(idBytes)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	// Garbage.
	_, err = scanOutboxID([]byte("not-a-uuid"))
	assert.Error(t, err)
}

func TestMySQLOutboxRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLOutboxRepository(db)
	record := testRecord(t)

	idBytes, err := record.ID.MarshalBinary()
	require.NoError(t, err)
	aggBytes, err := record.AggregateID.MarshalBinary()
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO outbox_events`)).
		WithArgs(
			idBytes,
			record.EventType,
			aggBytes,
			[]byte(record.Payload),
			false,
			0,
			nil,
			record.CreatedAt,
			nil,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Create(context.Background(), record)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLOutboxRepository_LeaseBatch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLOutboxRepository(db)
	record := testRecord(t)
	now := time.Now().UTC()

	idBytes, err := record.ID.MarshalBinary()
	require.NoError(t, err)
	aggBytes, err := record.AggregateID.MarshalBinary()
	require.NoError(t, err)

	rows := sqlmock.NewRows(outboxColumns()).AddRow(
		idBytes,
		record.EventType,
		aggBytes,
		[]byte(record.Payload),
		false,
		0,
		nil,
		record.CreatedAt,
		nil,
	)

	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE SKIP LOCKED`)).
		WithArgs(5, now, 50).
		WillReturnRows(rows)

	records, err := repo.LeaseBatch(context.Background(), 50, 5, now)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, record.ID, records[0].ID)
	assert.Equal(t, record.AggregateID, records[0].AggregateID)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(records[0].Payload, &payload))
	assert.Equal(t, "e-1", payload["eventId"])
}
