package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository"
	"github.com/mediconnect/mediconnect-api/pkg/logger"
	"github.com/mediconnect/mediconnect-api/pkg/messaging"
	"github.com/mediconnect/mediconnect-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	// MaxRetries is the number of delivery attempts per event before
	// it moves to the dead-letter table.
	MaxRetries int
	RetryDelay time.Duration
	Retention  time.Duration
}

// OutboxProcessor ships events written by the services to the broker.
// Claims are atomic, so any number of processors can run side by side.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(repo repository.OutboxRepository, broker messaging.Broker,
	config OutboxProcessorConfig, logger *logger.Logger, m *metrics.Metrics) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 5
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 30 * time.Second
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: m,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	cleanup := time.NewTicker(time.Hour)
	defer cleanup.Stop()

	p.logger.Info("starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutting down outbox processor")
			return
		case <-cleanup.C:
			p.deleteExpired(ctx)
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Error(err, "failed to process outbox batch")
			}
		}
	}
}

func (p *OutboxProcessor) processBatch(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.ClaimPending(ctx, p.config.BatchSize)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("claim_pending", "error").Inc()
		return fmt.Errorf("failed to claim pending events: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("claim_pending", "success").Inc()

	for _, event := range events {
		p.processEvent(ctx, event)
	}
	return nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) {
	err := p.broker.Publish(ctx, event.EventType, event.Payload)
	if err == nil {
		p.metrics.OutboxEventsProcessed.Inc()
		if err := p.repo.MarkProcessed(ctx, event.ID); err != nil {
			p.logger.Error(err, "failed to mark event processed", "event_id", event.ID.String())
		}
		return
	}

	p.metrics.OutboxEventsFailed.Inc()
	p.logger.Error(err, "failed to publish event",
		"event_id", event.ID.String(),
		"event_type", event.EventType,
		"retry_count", event.RetryCount)

	if event.RetryCount+1 >= p.config.MaxRetries {
		p.metrics.OutboxEventsDeadLetter.Inc()
		if dlErr := p.repo.MoveToDeadLetter(ctx, event); dlErr != nil {
			p.logger.Error(dlErr, "failed to dead-letter event", "event_id", event.ID.String())
		}
		return
	}

	// Exponential backoff keyed to how often this event already failed.
	retryAt := time.Now().Add(p.config.RetryDelay * time.Duration(1<<event.RetryCount))
	if markErr := p.repo.MarkFailed(ctx, event.ID, err.Error(), &retryAt); markErr != nil {
		p.logger.Error(markErr, "failed to mark event for retry", "event_id", event.ID.String())
	}
}

func (p *OutboxProcessor) deleteExpired(ctx context.Context) {
	if p.config.Retention <= 0 {
		return
	}
	n, err := p.repo.DeleteProcessedBefore(ctx, time.Now().Add(-p.config.Retention))
	if err != nil {
		p.logger.Error(err, "failed to prune processed events")
		return
	}
	if n > 0 {
		p.logger.Info("pruned processed outbox events", "count", n)
	}
}
