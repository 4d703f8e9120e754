package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/pkg/logger"
	"github.com/mediconnect/mediconnect-api/pkg/metrics"
)

// Single registration; prometheus collectors cannot be registered twice.
var testMetrics = metrics.New("outbox_processor_test")

type fakeOutboxRepo struct {
	pending []*model.OutboxEvent

	processed  []uuid.UUID
	failed     []uuid.UUID
	deadletter []uuid.UUID
	retryAts   []time.Time
}

func (f *fakeOutboxRepo) Create(_ context.Context, _ *model.OutboxEvent) error { return nil }

func (f *fakeOutboxRepo) ClaimPending(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeOutboxRepo) MarkProcessed(_ context.Context, id uuid.UUID) error {
	f.processed = append(f.processed, id)
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(_ context.Context, id uuid.UUID, _ string, retryAt *time.Time) error {
	f.failed = append(f.failed, id)
	if retryAt != nil {
		f.retryAts = append(f.retryAts, *retryAt)
	}
	return nil
}

func (f *fakeOutboxRepo) MoveToDeadLetter(_ context.Context, event *model.OutboxEvent) error {
	f.deadletter = append(f.deadletter, event.ID)
	return nil
}

func (f *fakeOutboxRepo) DeleteProcessedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type fakeBroker struct {
	err       error
	published []string
}

func (b *fakeBroker) Publish(_ context.Context, channel string, _ interface{}) error {
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, channel)
	return nil
}

func (b *fakeBroker) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	return nil, nil
}

func (b *fakeBroker) Close() error { return nil }

func event(retries int) *model.OutboxEvent {
	return &model.OutboxEvent{
		ID:         uuid.New(),
		EventType:  model.TopicEmailNotifications,
		Payload:    []byte(`{"content":"hello"}`),
		Status:     model.OutboxStatusPending,
		RetryCount: retries,
	}
}

func newProcessor(repo *fakeOutboxRepo, broker *fakeBroker) *OutboxProcessor {
	return NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		BatchSize:    10,
		PollInterval: time.Millisecond,
		MaxRetries:   3,
		RetryDelay:   time.Second,
	}, logger.NewLogger(nil), testMetrics)
}

func TestProcessBatchPublishesAndMarksProcessed(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []*model.OutboxEvent{event(0), event(0)}}
	broker := &fakeBroker{}
	p := newProcessor(repo, broker)

	require.NoError(t, p.processBatch(context.Background()))

	assert.Len(t, broker.published, 2)
	assert.Len(t, repo.processed, 2)
	assert.Empty(t, repo.failed)
}

func TestPublishFailureSchedulesRetryWithBackoff(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []*model.OutboxEvent{event(1)}}
	broker := &fakeBroker{err: errors.New("broker down")}
	p := newProcessor(repo, broker)

	require.NoError(t, p.processBatch(context.Background()))

	require.Len(t, repo.failed, 1)
	require.Len(t, repo.retryAts, 1)
	// Second failure backs off at least 2x the base delay.
	assert.True(t, repo.retryAts[0].After(time.Now().Add(1500*time.Millisecond)))
	assert.Empty(t, repo.deadletter)
}

func TestExhaustedRetriesDeadLetter(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []*model.OutboxEvent{event(2)}}
	broker := &fakeBroker{err: errors.New("broker down")}
	p := newProcessor(repo, broker)

	require.NoError(t, p.processBatch(context.Background()))

	assert.Len(t, repo.deadletter, 1)
	assert.Empty(t, repo.failed)
}

func TestClaimRespectsBatchSize(t *testing.T) {
	repo := &fakeOutboxRepo{}
	for i := 0; i < 25; i++ {
		repo.pending = append(repo.pending, event(0))
	}
	broker := &fakeBroker{}
	p := newProcessor(repo, broker)

	require.NoError(t, p.processBatch(context.Background()))

	assert.Len(t, repo.processed, 10)
}
