package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository"
)

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		return insertOutboxEvent(ctx, tx, event)
	})
}

// ClaimPending flips due events to processing and returns them in one
// statement. SKIP LOCKED keeps concurrent processors from claiming the
// same batch.
func (r *outboxRepository) ClaimPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	query := `
		UPDATE outbox_events
		SET status = $1, updated_at = now()
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE status IN ($2, $3)
			AND (retry_at IS NULL OR retry_at <= now())
			ORDER BY created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT $4
		)
		RETURNING id, event_type, payload, status, error_message,
			retry_count, retry_at, processed_at, created_at, updated_at
	`
	var events []*model.OutboxEvent
	err := r.db.SelectContext(ctx, &events, query,
		model.OutboxStatusProcessing,
		model.OutboxStatusPending,
		model.OutboxStatusRetry,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE outbox_events
		SET status = $1, processed_at = now(), updated_at = now()
		WHERE id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, model.OutboxStatusProcessed, id); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error {
	status := model.OutboxStatusFailed
	if retryAt != nil {
		status = model.OutboxStatusRetry
	}

	query := `
		UPDATE outbox_events
		SET status = $1, error_message = $2, retry_count = retry_count + 1,
			retry_at = $3, updated_at = now()
		WHERE id = $4
	`
	if _, err := r.db.ExecContext(ctx, query, status, errMsg, retryAt, id); err != nil {
		return fmt.Errorf("failed to mark event failed: %w", err)
	}
	return nil
}

func (r *outboxRepository) MoveToDeadLetter(ctx context.Context, event *model.OutboxEvent) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO outbox_events_deadletter (
				event_id, event_type, payload, error_message, retry_count, created_at
			) VALUES ($1, $2, $3, $4, $5, now())
		`, event.ID, event.EventType, event.Payload, event.ErrorMessage, event.RetryCount)
		if err != nil {
			return fmt.Errorf("failed to insert dead letter: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM outbox_events WHERE id = $1`, event.ID); err != nil {
			return fmt.Errorf("failed to delete dead-lettered event: %w", err)
		}
		return nil
	})
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM outbox_events
		WHERE status = $1 AND processed_at < $2
	`
	result, err := r.db.ExecContext(ctx, query, model.OutboxStatusProcessed, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}
	return result.RowsAffected()
}
