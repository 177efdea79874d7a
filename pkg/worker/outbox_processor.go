package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/pkg/logger"
	"github.com/jwalitptl/vetbook-api/pkg/metrics"
	"github.com/jwalitptl/vetbook-api/pkg/realtime"
	"github.com/jwalitptl/vetbook-api/pkg/repository"
)

// OutboxProcessorConfig tunes delivery. RetryAttempts and RetryDelay bound the
// in-process retries of one delivery round; MaxDeliveries bounds how many
// rounds an event gets before it is marked FAILED. Between rounds the event
// waits RetryBackoff, doubled per round and capped at MaxRetryBackoff.
type OutboxProcessorConfig struct {
	BatchSize       int
	PollInterval    time.Duration
	RetryAttempts   int
	RetryDelay      time.Duration
	MaxDeliveries   int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
}

func (c OutboxProcessorConfig) withDefaults() OutboxProcessorConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 500 * time.Millisecond
	}
	if c.MaxDeliveries <= 0 {
		c.MaxDeliveries = 10
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 5 * time.Second
	}
	if c.MaxRetryBackoff <= 0 {
		c.MaxRetryBackoff = 5 * time.Minute
	}
	if c.MaxRetryBackoff < c.RetryBackoff {
		c.MaxRetryBackoff = c.RetryBackoff
	}
	return c
}

// Publisher is the write half of a realtime feed.
type Publisher interface {
	Publish(ctx context.Context, change realtime.Change) error
}

// OutboxProcessor drains pending outbox rows onto the change feed.
type OutboxProcessor struct {
	repo    repository.OutboxReader
	feed    Publisher
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOutboxProcessor(
	repo repository.OutboxReader,
	feed Publisher,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxProcessor {
	return &OutboxProcessor{
		repo:    repo,
		feed:    feed,
		config:  config.withDefaults(),
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox processor")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error(err, "Failed to process events")
			}
		}
	}
}

// ProcessBatch claims one batch of due events, publishes them and returns how
// many were delivered. A failed event goes back to RETRY until it has used
// MaxDeliveries rounds.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) (int, error) {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.GetPendingEventsWithLock(ctx, p.config.BatchSize)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "error").Inc()
		return 0, fmt.Errorf("failed to get pending events: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "success").Inc()

	delivered := 0
	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.Error(err, "Failed to process event",
				"event_id", event.ID.String(),
				"table", event.TableName,
				"event_type", event.EventType)
			continue
		}
		delivered++
	}
	return delivered, nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	change := ToChange(event)

	attempt := 0
	err := retry(ctx, p.config.RetryAttempts, p.config.RetryDelay, func() error {
		if attempt > 0 {
			p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
		}
		attempt++
		return p.feed.Publish(ctx, change)
	})

	if err != nil {
		errStr := err.Error()
		if event.RetryCount < p.config.MaxDeliveries {
			retryAt := p.now().UTC().Add(p.backoff(event.RetryCount))
			if updateErr := p.repo.ScheduleRetry(ctx, event.ID, errStr, retryAt); updateErr != nil {
				p.logger.Error(updateErr, "Failed to schedule event retry", "event_id", event.ID.String())
			}
			return err
		}
		p.metrics.OutboxEventsFailed.Inc()
		if updateErr := p.repo.UpdateStatus(ctx, event.ID, model.OutboxStatusFailed, &errStr); updateErr != nil {
			p.logger.Error(updateErr, "Failed to update event status", "event_id", event.ID.String())
		}
		return err
	}

	p.metrics.OutboxEventsProcessed.Inc()
	if err := p.repo.UpdateStatus(ctx, event.ID, model.OutboxStatusProcessed, nil); err != nil {
		p.logger.Error(err, "Failed to update event status", "event_id", event.ID.String())
		return err
	}

	return nil
}

// backoff is the wait before delivery round n+1, doubling from RetryBackoff.
func (p *OutboxProcessor) backoff(round int) time.Duration {
	d := p.config.RetryBackoff
	for i := 1; i < round && d < p.config.MaxRetryBackoff; i++ {
		d *= 2
	}
	if d > p.config.MaxRetryBackoff {
		d = p.config.MaxRetryBackoff
	}
	return d
}

// ToChange converts a stored outbox row into the change it announces.
func ToChange(event *model.OutboxEvent) realtime.Change {
	return realtime.Change{
		Table:     event.TableName,
		Type:      realtime.ChangeType(event.EventType),
		Record:    rawOrNil(event.Payload),
		OldRecord: rawOrNil(event.OldPayload),
		At:        event.CreatedAt,
	}
}

func rawOrNil(b []byte) []byte {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	return b
}

func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return err
}
