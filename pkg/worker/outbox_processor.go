package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/smiledesk/admin-api/internal/model"
	"github.com/smiledesk/admin-api/internal/repository"
	"github.com/smiledesk/admin-api/pkg/logger"
	"github.com/smiledesk/admin-api/pkg/messaging"
	"github.com/smiledesk/admin-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	// Retention bounds how long processed rows are kept before cleanup.
	Retention time.Duration
}

// OutboxProcessor drains the transactional outbox: pending rows are locked
// in batches, published to the broker on the event-type channel and marked
// processed. Failed publishes are marked for retry on a later poll.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	log *logger.Logger,
	m *metrics.Metrics,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  log,
		metrics: m,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutting down outbox processor")
			return
		case <-ticker.C:
			if err := p.processEvents(ctx); err != nil {
				p.logger.Error(err, "failed to process outbox batch")
			}
		}
	}
}

func (p *OutboxProcessor) processEvents(ctx context.Context) error {
	events, err := p.repo.GetPendingWithLock(ctx, p.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending events: %w", err)
	}

	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			p.metrics.OutboxEventsFailed.Inc()
			p.logger.Error(err, "failed to process event",
				"event_id", event.ID.String(),
				"event_type", event.EventType)
			continue
		}
		p.metrics.OutboxEventsProcessed.Inc()
	}

	pending, err := p.repo.CountPending(ctx)
	if err == nil {
		p.metrics.OutboxQueueSize.Set(float64(pending))
	}

	return nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	if err := p.broker.Publish(ctx, event.EventType, event.Payload); err != nil {
		if markErr := p.repo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
			p.logger.Error(markErr, "failed to mark event failed", "event_id", event.ID.String())
		}
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if err := p.repo.MarkProcessed(ctx, event.ID); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

// Cleanup deletes processed rows older than the retention window. Meant to
// run on a slow cadence from the worker binary.
func (p *OutboxProcessor) Cleanup(ctx context.Context) error {
	if p.config.Retention <= 0 {
		return nil
	}

	deleted, err := p.repo.DeleteProcessedBefore(ctx, time.Now().Add(-p.config.Retention))
	if err != nil {
		return fmt.Errorf("failed to clean up outbox: %w", err)
	}
	if deleted > 0 {
		p.logger.Info("cleaned up processed outbox events", "deleted", deleted)
	}
	return nil
}
