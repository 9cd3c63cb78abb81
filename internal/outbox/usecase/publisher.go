// Package usecase implements the transactional outbox publisher.
//
// The publisher leases batches of unpublished records under a skip-locked
// row lease, publishes every leased record to the in-process bus in
// parallel, and writes each outcome (published, retry scheduled, or
// dead-lettered) back inside the leasing transaction. Multiple workers can
// drain the same outbox without coordination: the lease guarantees a row is
// held by at most one worker per poll cycle.
package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/orders/internal/database"
	"github.com/allisson/orders/internal/eventbus"
	"github.com/allisson/orders/internal/metrics"
	ordersDomain "github.com/allisson/orders/internal/orders/domain"
	"github.com/allisson/orders/internal/outbox/domain"
)

// Config holds publisher configuration.
type Config struct {
	PollInterval time.Duration
	BatchSize    int
	MaxRetries   int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
}

// applyDefaults fills zero values with the standard settings.
func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 1600 * time.Millisecond
	}
}

// OutboxRepository defines the outbox operations the publisher needs.
type OutboxRepository interface {
	LeaseBatch(ctx context.Context, limit int, maxRetries int, now time.Time) ([]*domain.OutboxRecord, error)
	MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error
	ScheduleRetry(ctx context.Context, id uuid.UUID, retryCount int, nextRetryAt time.Time) error
}

// ProcessedEventRepository defines the marker operations the publisher needs.
type ProcessedEventRepository interface {
	Create(ctx context.Context, marker *ordersDomain.ProcessedEvent) error
	Exists(ctx context.Context, eventID string) (bool, error)
}

// Publisher drains the outbox onto the event bus.
type Publisher struct {
	config        Config
	txManager     database.TxManager
	outboxRepo    OutboxRepository
	processedRepo ProcessedEventRepository
	bus           eventbus.Bus
	metrics       metrics.OutboxMetrics
	logger        *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// now is injectable for tests.
	now func() time.Time
}

// NewPublisher creates a new Publisher.
func NewPublisher(
	config Config,
	txManager database.TxManager,
	outboxRepo OutboxRepository,
	processedRepo ProcessedEventRepository,
	bus eventbus.Bus,
	outboxMetrics metrics.OutboxMetrics,
	logger *slog.Logger,
) *Publisher {
	config.applyDefaults()
	if outboxMetrics == nil {
		outboxMetrics = metrics.NewNoOpOutboxMetrics()
	}

	return &Publisher{
		config:        config,
		txManager:     txManager,
		outboxRepo:    outboxRepo,
		processedRepo: processedRepo,
		bus:           bus,
		metrics:       outboxMetrics,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Start launches the poll loop. Calling Start on a running publisher is a
// no-op. A single worker never runs two batches concurrently; overlapping
// ticks are dropped by the ticker.
func (p *Publisher) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	p.logger.Info("starting outbox publisher",
		slog.Duration("poll_interval", p.config.PollInterval),
		slog.Int("batch_size", p.config.BatchSize),
		slog.Int("max_retries", p.config.MaxRetries),
	)

	go p.run(loopCtx, p.done)
}

// Stop cancels in-flight work at its next transaction boundary and waits for
// the loop to exit. Stopping a stopped publisher is a no-op.
func (p *Publisher) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
	p.logger.Info("outbox publisher stopped")
}

// run is the poll loop.
func (p *Publisher) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.ProcessBatch(ctx); err != nil {
				// A loop-level fault (the lease query itself failed) is logged
				// and the next tick retries.
				if ctx.Err() == nil {
					p.logger.Error("outbox batch failed", slog.Any("error", err))
				}
			}
		}
	}
}

// ProcessBatch leases one batch and publishes every record in parallel. The
// lease is held until this method's transaction commits or rolls back; the
// per-record outcome writes ride in the same transaction.
func (p *Publisher) ProcessBatch(ctx context.Context) error {
	return p.txManager.WithTx(ctx, func(txCtx context.Context) error {
		now := p.now()

		records, err := p.outboxRepo.LeaseBatch(txCtx, p.config.BatchSize, p.config.MaxRetries, now)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		p.logger.Info("processing outbox batch", slog.Int("count", len(records)))

		// Publish to the bus in parallel; a single record's failure must not
		// abort the batch, so outcomes are gathered instead of returned.
		publishErrs := make([]error, len(records))
		var g errgroup.Group
		for i, record := range records {
			g.Go(func() error {
				publishErrs[i] = p.publishRecord(ctx, record)
				return nil
			})
		}
		_ = g.Wait()

		// Write the outcomes serially on the transaction.
		for i, record := range records {
			if publishErrs[i] == nil {
				err = p.handlePublished(txCtx, record, now)
			} else {
				err = p.handleFailure(txCtx, ctx, record, publishErrs[i], now)
			}
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// publishRecord routes the record payload to its topic.
func (p *Publisher) publishRecord(ctx context.Context, record *domain.OutboxRecord) error {
	topic := topicFor(record.EventType)

	if err := p.bus.Publish(ctx, topic, record.Payload); err != nil {
		p.logger.Error("failed to publish outbox record",
			slog.String("record_id", record.ID.String()),
			slog.String("event_type", record.EventType),
			slog.String("topic", topic),
			slog.Any("error", err),
		)
		return err
	}

	return nil
}

// handlePublished marks the record published and inserts the processed-event
// marker keyed by the payload event id. The marker may already exist when a
// previous cycle published the record but failed before committing the mark;
// the record is then simply marked and downstream deduplication holds.
func (p *Publisher) handlePublished(txCtx context.Context, record *domain.OutboxRecord, now time.Time) error {
	if err := p.outboxRepo.MarkPublished(txCtx, record.ID, now); err != nil {
		return err
	}

	eventID := record.PayloadEventID()
	if eventID != "" {
		exists, err := p.processedRepo.Exists(txCtx, eventID)
		if err != nil {
			return err
		}
		if !exists {
			err = p.processedRepo.Create(txCtx, &ordersDomain.ProcessedEvent{
				EventID:     eventID,
				EventType:   record.EventType,
				ProcessedAt: now,
			})
			if err != nil {
				return err
			}
		}
	}

	p.metrics.RecordPublished(txCtx, record.EventType)
	p.logger.Info("outbox record published",
		slog.String("record_id", record.ID.String()),
		slog.String("event_type", record.EventType),
	)

	return nil
}

// handleFailure schedules a retry with exponential backoff, or dead-letters
// the record once the failure count reaches the retry budget.
func (p *Publisher) handleFailure(
	txCtx context.Context,
	busCtx context.Context,
	record *domain.OutboxRecord,
	publishErr error,
	now time.Time,
) error {
	newRetryCount := record.RetryCount + 1

	if newRetryCount >= p.config.MaxRetries {
		return p.deadLetter(txCtx, busCtx, record, newRetryCount, now)
	}

	nextRetryAt := now.Add(p.backoffDelay(newRetryCount))
	if err := p.outboxRepo.ScheduleRetry(txCtx, record.ID, newRetryCount, nextRetryAt); err != nil {
		return err
	}

	p.metrics.RecordRetryScheduled(txCtx, record.EventType)
	p.logger.Warn("outbox publish retry scheduled",
		slog.String("record_id", record.ID.String()),
		slog.Int("retry_count", newRetryCount),
		slog.Time("next_retry_at", nextRetryAt),
		slog.Any("error", publishErr),
	)

	return nil
}

// deadLetter abandons the record: it is marked published without a marker
// and a DLQ event carrying the row snapshot is emitted. The mark precedes
// the DLQ publish, so a DLQ bus failure loses the DLQ event, not the mark;
// that loss is logged.
func (p *Publisher) deadLetter(
	txCtx context.Context,
	busCtx context.Context,
	record *domain.OutboxRecord,
	finalRetryCount int,
	now time.Time,
) error {
	if err := p.outboxRepo.MarkPublished(txCtx, record.ID, now); err != nil {
		return err
	}

	snapshot := *record
	snapshot.RetryCount = finalRetryCount
	snapshot.Published = true
	snapshot.PublishedAt = &now

	dlqEvent := domain.NewDLQEvent(&snapshot, "Max retries exceeded")
	if err := eventbus.PublishJSON(busCtx, p.bus, eventbus.TopicDeadLetterQueue, dlqEvent); err != nil {
		p.logger.Error("failed to publish DLQ event, event lost",
			slog.String("record_id", record.ID.String()),
			slog.Any("error", err),
		)
	}

	p.metrics.RecordDeadLettered(txCtx, record.EventType)
	p.logger.Error("outbox record dead-lettered",
		slog.String("record_id", record.ID.String()),
		slog.String("event_type", record.EventType),
		slog.Int("retry_count", finalRetryCount),
	)

	return nil
}

// backoffDelay returns min(maxDelay, baseDelay * 2^(retryCount-1)).
func (p *Publisher) backoffDelay(retryCount int) time.Duration {
	delay := p.config.BaseDelay
	for i := 1; i < retryCount; i++ {
		delay *= 2
		if delay >= p.config.MaxDelay {
			return p.config.MaxDelay
		}
	}
	if delay > p.config.MaxDelay {
		return p.config.MaxDelay
	}
	return delay
}

// topicFor routes an event type to its bus topic.
func topicFor(eventType string) string {
	switch eventType {
	case ordersDomain.EventTypeOrderCreated:
		return eventbus.TopicOrderEvents
	case ordersDomain.EventTypeOrderShipped, ordersDomain.EventTypeOrderDelivered:
		return eventbus.TopicDeliveryEvents
	default:
		return eventbus.TopicUnknownEvents
	}
}
