// Package domain defines the transactional outbox entities.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxRecord is a persisted domain event awaiting delivery to the bus. It
// is inserted in the same transaction as the aggregate write that produced
// it and mutated only by the publisher. Rows are never deleted: published
// ones stay behind as an audit trail.
type OutboxRecord struct {
	ID          uuid.UUID       `json:"id"`
	EventType   string          `json:"eventType"`
	AggregateID uuid.UUID       `json:"aggregateId"`
	Payload     json.RawMessage `json:"payload"`
	Published   bool            `json:"published"`
	RetryCount  int             `json:"retryCount"`
	NextRetryAt *time.Time      `json:"nextRetryAt"`
	CreatedAt   time.Time       `json:"createdAt"`
	PublishedAt *time.Time      `json:"publishedAt"`
}

// NewOutboxRecord builds a pending outbox record with the payload marshaled
// as it will appear on the bus.
func NewOutboxRecord(eventType string, aggregateID uuid.UUID, payload any) (*OutboxRecord, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &OutboxRecord{
		ID:          uuid.Must(uuid.NewV7()),
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     data,
		Published:   false,
		RetryCount:  0,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// PayloadEventID extracts the payload-level event id, the idempotency key
// downstream consumers deduplicate on. Empty when the payload carries none.
func (r *OutboxRecord) PayloadEventID() string {
	var envelope struct {
		EventID string `json:"eventId"`
	}
	if err := json.Unmarshal(r.Payload, &envelope); err != nil {
		return ""
	}
	return envelope.EventID
}

// DLQEvent is published on the dead-letter-queue topic when a record
// exhausts its retries. OriginalEvent is the outbox row snapshot at the
// moment of abandonment.
type DLQEvent struct {
	EventID       string        `json:"eventId"`
	EventType     string        `json:"eventType"`
	Timestamp     string        `json:"timestamp"`
	OriginalEvent *OutboxRecord `json:"originalEvent"`
	Reason        string        `json:"reason"`
}

// NewDLQEvent wraps an abandoned record. The event id carries a "dlq-"
// prefix for debugging; consumers treat it as opaque.
func NewDLQEvent(record *OutboxRecord, reason string) DLQEvent {
	return DLQEvent{
		EventID:       "dlq-" + uuid.NewString(),
		EventType:     "dlq.event",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		OriginalEvent: record,
		Reason:        reason,
	}
}
