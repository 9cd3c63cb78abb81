package domain

import "time"

// ProcessedEvent is the idempotency marker keyed by the payload-level event
// id. The publisher inserts one on successful publish and the order service
// inserts one when applying an inbound status event; its presence blocks a
// second application of the same event.
type ProcessedEvent struct {
	EventID     string
	EventType   string
	ProcessedAt time.Time
}
