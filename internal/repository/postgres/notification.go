package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository"
)

type notificationRepository struct {
	BaseRepository
}

func NewNotificationRepository(base BaseRepository) repository.NotificationRepository {
	return &notificationRepository{base}
}

const notificationColumns = `
	id, user_id, channel, subject, content, recipient, status,
	retry_count, last_error, sent_at, read_at, created_at, updated_at
`

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (
			id, user_id, channel, subject, content, recipient, status,
			retry_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now()
	n.UpdatedAt = time.Now()
	if n.Status == "" {
		n.Status = model.NotificationStatusPending
	}

	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.UserID,
		n.Channel,
		n.Subject,
		n.Content,
		n.Recipient,
		n.Status,
		n.RetryCount,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) Update(ctx context.Context, n *model.Notification) error {
	query := `
		UPDATE notifications
		SET status = $1, retry_count = $2, last_error = $3, sent_at = $4, updated_at = $5
		WHERE id = $6
	`
	n.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		n.Status,
		n.RetryCount,
		n.LastError,
		n.SentAt,
		n.UpdatedAt,
		n.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*model.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1 AND channel = $2
	`
	if unreadOnly {
		query += " AND read_at IS NULL"
	}
	query += " ORDER BY created_at DESC"

	var notifications []*model.Notification
	err := r.db.SelectContext(ctx, &notifications, query, userID, model.ChannelInApp)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET read_at = now(), updated_at = now()
		WHERE id = $1 AND user_id = $2 AND read_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET read_at = now(), updated_at = now()
		WHERE user_id = $1 AND read_at IS NULL
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
