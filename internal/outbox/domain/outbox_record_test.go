package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOutboxRecord(t *testing.T) {
	aggregateID := uuid.Must(uuid.NewV7())
	payload := map[string]string{"eventId": "e-1", "eventType": "order.created"}

	record, err := NewOutboxRecord("order.created", aggregateID, payload)
	require.NoError(t, err)

	assert.Equal(t, "order.created", record.EventType)
	assert.Equal(t, aggregateID, record.AggregateID)
	assert.False(t, record.Published)
	assert.Equal(t, 0, record.RetryCount)
	assert.Nil(t, record.NextRetryAt)
	assert.Nil(t, record.PublishedAt)
	assert.False(t, record.CreatedAt.IsZero())

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(record.Payload, &decoded))
	assert.Equal(t, "e-1", decoded["eventId"])
}

func TestNewOutboxRecord_MarshalError(t *testing.T) {
	_, err := NewOutboxRecord("order.created", uuid.Must(uuid.NewV7()), make(chan int))
	assert.Error(t, err)
}

func TestOutboxRecord_PayloadEventID(t *testing.T) {
	record := &OutboxRecord{Payload: json.RawMessage(`{"eventId":"e-42","orderId":"o-1"}`)}
	assert.Equal(t, "e-42", record.PayloadEventID())

	record = &OutboxRecord{Payload: json.RawMessage(`{"orderId":"o-1"}`)}
	assert.Equal(t, "", record.PayloadEventID())

	record = &OutboxRecord{Payload: json.RawMessage(`not json`)}
	assert.Equal(t, "", record.PayloadEventID())
}

func TestNewDLQEvent(t *testing.T) {
	record := &OutboxRecord{
		ID:         uuid.Must(uuid.NewV7()),
		EventType:  "order.created",
		RetryCount: 5,
		CreatedAt:  time.Now().UTC(),
		Payload:    json.RawMessage(`{"eventId":"e-1"}`),
	}

	event := NewDLQEvent(record, "Max retries exceeded")

	assert.True(t, strings.HasPrefix(event.EventID, "dlq-"))
	assert.Equal(t, "dlq.event", event.EventType)
	assert.Equal(t, "Max retries exceeded", event.Reason)
	assert.Same(t, record, event.OriginalEvent)

	_, err := time.Parse(time.RFC3339, event.Timestamp)
	assert.NoError(t, err)
}
