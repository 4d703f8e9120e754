package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository"
	"github.com/mediconnect/mediconnect-api/pkg/logger"
	"github.com/mediconnect/mediconnect-api/pkg/metrics"
)

// Collectors register globally, so the package shares one instance
// across tests.
var testMetrics = metrics.New("notification_service_test")

type fakeNotificationRepo struct {
	rows []*model.Notification
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	copied := *n
	f.rows = append(f.rows, &copied)
	return nil
}

func (f *fakeNotificationRepo) Update(_ context.Context, n *model.Notification) error {
	for i, existing := range f.rows {
		if existing.ID == n.ID {
			copied := *n
			f.rows[i] = &copied
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeNotificationRepo) ListForUser(_ context.Context, userID uuid.UUID, unreadOnly bool) ([]*model.Notification, error) {
	var out []*model.Notification
	for _, n := range f.rows {
		if n.UserID != userID || n.Channel != model.ChannelInApp {
			continue
		}
		if unreadOnly && n.ReadAt != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id, userID uuid.UUID) error {
	for _, n := range f.rows {
		if n.ID == id && n.UserID == userID && n.ReadAt == nil {
			read := n.CreatedAt
			n.ReadAt = &read
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, userID uuid.UUID) error {
	for _, n := range f.rows {
		if n.UserID == userID && n.ReadAt == nil {
			read := n.CreatedAt
			n.ReadAt = &read
		}
	}
	return nil
}

type sentMail struct {
	to, subject, body string
}

type fakeSender struct {
	fail bool
	sent []sentMail
}

func (f *fakeSender) Send(to, subject, body string) error {
	if f.fail {
		return errors.New("smtp: connection refused")
	}
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

func newService(sender *fakeSender) (*Service, *fakeNotificationRepo) {
	repo := &fakeNotificationRepo{}
	return NewService(repo, sender, testMetrics, logger.NewLogger(nil)), repo
}

func payloadFor(userID uuid.UUID) model.NotificationPayload {
	return model.NotificationPayload{
		UserID:    userID,
		Recipient: "ada@example.com",
		Subject:   "Appointment confirmed",
		Content:   "See you Monday at 09:30.",
	}
}

func TestDeliverEmailSendsAndMarksSent(t *testing.T) {
	sender := &fakeSender{}
	svc, repo := newService(sender)

	err := svc.Deliver(context.Background(), model.ChannelEmail, payloadFor(uuid.New()))

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ada@example.com", sender.sent[0].to)
	assert.Equal(t, "Appointment confirmed", sender.sent[0].subject)

	require.Len(t, repo.rows, 1)
	assert.Equal(t, model.NotificationStatusSent, repo.rows[0].Status)
	assert.NotNil(t, repo.rows[0].SentAt)
}

func TestDeliverEmailFailureKeepsTrail(t *testing.T) {
	sender := &fakeSender{fail: true}
	svc, repo := newService(sender)

	err := svc.Deliver(context.Background(), model.ChannelEmail, payloadFor(uuid.New()))

	require.Error(t, err)
	require.Len(t, repo.rows, 1)
	row := repo.rows[0]
	assert.Equal(t, model.NotificationStatusFailed, row.Status)
	assert.Equal(t, 1, row.RetryCount)
	require.NotNil(t, row.LastError)
	assert.Contains(t, *row.LastError, "connection refused")
	assert.Nil(t, row.SentAt)
}

func TestDeliverInAppStoresWithoutSMTP(t *testing.T) {
	sender := &fakeSender{fail: true}
	svc, repo := newService(sender)

	err := svc.Deliver(context.Background(), model.ChannelInApp, payloadFor(uuid.New()))

	require.NoError(t, err)
	assert.Empty(t, sender.sent)
	require.Len(t, repo.rows, 1)
	assert.Equal(t, model.NotificationStatusSent, repo.rows[0].Status)
}

func TestListForUserUnreadFilter(t *testing.T) {
	sender := &fakeSender{}
	svc, repo := newService(sender)
	userID := uuid.New()

	require.NoError(t, svc.Deliver(context.Background(), model.ChannelInApp, payloadFor(userID)))
	require.NoError(t, svc.Deliver(context.Background(), model.ChannelInApp, payloadFor(userID)))
	require.NoError(t, svc.MarkRead(context.Background(), repo.rows[0].ID, userID))

	unread, err := svc.ListForUser(context.Background(), userID, true)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	all, err := svc.ListForUser(context.Background(), userID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMarkReadUnknownNotification(t *testing.T) {
	sender := &fakeSender{}
	svc, _ := newService(sender)

	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())

	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestMarkAllRead(t *testing.T) {
	sender := &fakeSender{}
	svc, _ := newService(sender)
	userID := uuid.New()

	require.NoError(t, svc.Deliver(context.Background(), model.ChannelInApp, payloadFor(userID)))
	require.NoError(t, svc.Deliver(context.Background(), model.ChannelInApp, payloadFor(userID)))
	require.NoError(t, svc.MarkAllRead(context.Background(), userID))

	unread, err := svc.ListForUser(context.Background(), userID, true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}
