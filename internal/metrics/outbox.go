package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OutboxMetrics defines the interface for recording outbox publisher metrics.
type OutboxMetrics interface {
	// RecordPublished counts a record successfully delivered to the bus.
	RecordPublished(ctx context.Context, eventType string)

	// RecordRetryScheduled counts a failed publish attempt rescheduled for retry.
	RecordRetryScheduled(ctx context.Context, eventType string)

	// RecordDeadLettered counts a record abandoned to the dead-letter queue.
	RecordDeadLettered(ctx context.Context, eventType string)
}

// outboxMetrics implements OutboxMetrics using OpenTelemetry metrics.
type outboxMetrics struct {
	publishedCounter    metric.Int64Counter
	retryCounter        metric.Int64Counter
	deadLetteredCounter metric.Int64Counter
}

// NewOutboxMetrics creates a new OutboxMetrics implementation using the provided meter provider.
func NewOutboxMetrics(meterProvider metric.MeterProvider, namespace string) (OutboxMetrics, error) {
	meter := meterProvider.Meter(namespace)

	publishedCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_outbox_published_total", namespace),
		metric.WithDescription("Total number of outbox records published to the bus"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create published counter: %w", err)
	}

	retryCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_outbox_retries_total", namespace),
		metric.WithDescription("Total number of outbox publish retries scheduled"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry counter: %w", err)
	}

	deadLetteredCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_outbox_dead_lettered_total", namespace),
		metric.WithDescription("Total number of outbox records routed to the dead-letter queue"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dead-lettered counter: %w", err)
	}

	return &outboxMetrics{
		publishedCounter:    publishedCounter,
		retryCounter:        retryCounter,
		deadLetteredCounter: deadLetteredCounter,
	}, nil
}

// RecordPublished increments the published counter with the event_type label.
func (o *outboxMetrics) RecordPublished(ctx context.Context, eventType string) {
	o.publishedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", eventType)))
}

// RecordRetryScheduled increments the retry counter with the event_type label.
func (o *outboxMetrics) RecordRetryScheduled(ctx context.Context, eventType string) {
	o.retryCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", eventType)))
}

// RecordDeadLettered increments the dead-lettered counter with the event_type label.
func (o *outboxMetrics) RecordDeadLettered(ctx context.Context, eventType string) {
	o.deadLetteredCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", eventType)))
}

// NoOpOutboxMetrics is a no-op implementation of OutboxMetrics for when metrics are disabled.
type NoOpOutboxMetrics struct{}

// NewNoOpOutboxMetrics creates a no-op OutboxMetrics implementation.
func NewNoOpOutboxMetrics() OutboxMetrics {
	return &NoOpOutboxMetrics{}
}

// RecordPublished does nothing when metrics are disabled.
func (n *NoOpOutboxMetrics) RecordPublished(ctx context.Context, eventType string) {
	// No-op
}

// RecordRetryScheduled does nothing when metrics are disabled.
func (n *NoOpOutboxMetrics) RecordRetryScheduled(ctx context.Context, eventType string) {
	// No-op
}

// RecordDeadLettered does nothing when metrics are disabled.
func (n *NoOpOutboxMetrics) RecordDeadLettered(ctx context.Context, eventType string) {
	// No-op
}
