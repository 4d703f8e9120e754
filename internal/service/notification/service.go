package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mediconnect/mediconnect-api/internal/email"
	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository"
	apperrors "github.com/mediconnect/mediconnect-api/pkg/errors"
	"github.com/mediconnect/mediconnect-api/pkg/logger"
	"github.com/mediconnect/mediconnect-api/pkg/metrics"
)

var ErrNotificationNotFound = apperrors.NotFound("notification")

type Service struct {
	repo    repository.NotificationRepository
	sender  email.Sender
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewService(repo repository.NotificationRepository, sender email.Sender,
	m *metrics.Metrics, logger *logger.Logger) *Service {
	return &Service{repo: repo, sender: sender, metrics: m, logger: logger}
}

// Deliver records the notification and, for the email channel, pushes
// it out through SMTP. In-app notifications are delivered by the act of
// storing them. The stored row keeps the failure trail.
func (s *Service) Deliver(ctx context.Context, channel string, payload model.NotificationPayload) error {
	n := &model.Notification{
		Base:      model.Base{ID: uuid.New()},
		UserID:    payload.UserID,
		Channel:   channel,
		Subject:   payload.Subject,
		Content:   payload.Content,
		Recipient: payload.Recipient,
		Status:    model.NotificationStatusPending,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return apperrors.Internal(err)
	}

	if channel == model.ChannelEmail {
		if err := s.sender.Send(n.Recipient, n.Subject, n.Content); err != nil {
			msg := err.Error()
			n.Status = model.NotificationStatusFailed
			n.LastError = &msg
			n.RetryCount++
			s.metrics.NotificationsFailed.WithLabelValues(channel).Inc()
			if updateErr := s.repo.Update(ctx, n); updateErr != nil {
				s.logger.Error(updateErr, "failed to record notification failure", "notification_id", n.ID.String())
			}
			return err
		}
	}

	now := time.Now()
	n.Status = model.NotificationStatusSent
	n.SentAt = &now
	if err := s.repo.Update(ctx, n); err != nil {
		return apperrors.Internal(err)
	}

	s.metrics.NotificationsDelivered.WithLabelValues(channel).Inc()
	return nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*model.Notification, error) {
	out, err := s.repo.ListForUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return out, nil
}

func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return apperrors.Internal(err)
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}
