package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository/fake"
	"github.com/jwalitptl/vetbook-api/pkg/logger"
	"github.com/jwalitptl/vetbook-api/pkg/metrics"
	"github.com/jwalitptl/vetbook-api/pkg/realtime"
)

// failingOutbox is an outbox store whose claim query always fails.
type failingOutbox struct {
	*fake.Outbox
	fetchErr error
}

func (f *failingOutbox) GetPendingEventsWithLock(context.Context, int) ([]*model.OutboxEvent, error) {
	return nil, f.fetchErr
}

func seed(t *testing.T, events ...*model.OutboxEvent) *fake.Outbox {
	t.Helper()
	repo := fake.NewOutbox()
	for _, e := range events {
		require.NoError(t, repo.Create(context.Background(), e))
	}
	return repo
}

type flakyFeed struct {
	failures  int
	calls     int
	published []realtime.Change
}

func (f *flakyFeed) Publish(_ context.Context, c realtime.Change) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, c)
	return nil
}

func newEvent(table string) *model.OutboxEvent {
	payload, _ := json.Marshal(map[string]string{"id": "a1", "owner_id": "u1"})
	return &model.OutboxEvent{
		TableName:  table,
		EventType:  "INSERT",
		Payload:    payload,
		OldPayload: json.RawMessage("null"),
	}
}

func testConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
		MaxDeliveries: 5,
		RetryBackoff:  time.Second,
	}
}

func TestOutboxProcessor_PublishesAndMarksProcessed(t *testing.T) {
	ev := newEvent("appointments")
	repo := seed(t, ev)
	feed := &flakyFeed{}
	p := NewOutboxProcessor(repo, feed, testConfig(), logger.Nop(), metrics.New("test"))

	n, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, feed.published, 1)
	assert.Equal(t, "appointments", feed.published[0].Table)
	assert.Equal(t, realtime.Insert, feed.published[0].Type)
	assert.Nil(t, feed.published[0].OldRecord)
	assert.Equal(t, model.OutboxStatusProcessed, ev.Status)
}

func TestOutboxProcessor_RetriesThenSucceeds(t *testing.T) {
	ev := newEvent("appointments")
	repo := seed(t, ev)
	feed := &flakyFeed{failures: 2}
	p := NewOutboxProcessor(repo, feed, testConfig(), logger.Nop(), metrics.New("test"))

	n, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, feed.calls)
	assert.Equal(t, model.OutboxStatusProcessed, ev.Status)
}

func TestOutboxProcessor_FailedRoundSchedulesRetry(t *testing.T) {
	ev := newEvent("appointments")
	repo := seed(t, ev)
	feed := &flakyFeed{failures: 10}
	p := NewOutboxProcessor(repo, feed, testConfig(), logger.Nop(), metrics.New("test"))
	now := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	n, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 3, feed.calls)
	assert.Equal(t, model.OutboxStatusRetry, ev.Status)
	require.NotNil(t, ev.RetryAt)
	assert.Equal(t, now.Add(time.Second), *ev.RetryAt)
	require.NotNil(t, ev.ErrorMessage)
	assert.Equal(t, "broker unavailable", *ev.ErrorMessage)
}

func TestOutboxProcessor_RedeliversAfterOutage(t *testing.T) {
	ev := newEvent("appointments")
	repo := seed(t, ev)
	feed := &flakyFeed{failures: 3}
	p := NewOutboxProcessor(repo, feed, testConfig(), logger.Nop(), metrics.New("test"))
	now := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }
	repo.SetNow(now)

	n, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// Not due yet.
	n, err = p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 3, feed.calls)

	repo.SetNow(now.Add(2 * time.Second))
	n, err = p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, feed.published, 1)
	assert.Equal(t, model.OutboxStatusProcessed, ev.Status)
	assert.Equal(t, 2, ev.RetryCount)
}

func TestOutboxProcessor_MarksFailedAfterMaxDeliveries(t *testing.T) {
	ev := newEvent("appointments")
	repo := seed(t, ev)
	feed := &flakyFeed{failures: 100}
	cfg := testConfig()
	cfg.MaxDeliveries = 2
	p := NewOutboxProcessor(repo, feed, cfg, logger.Nop(), metrics.New("test"))
	now := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	repo.SetNow(now)
	_, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.OutboxStatusRetry, ev.Status)

	repo.SetNow(now.Add(time.Hour))
	_, err = p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.OutboxStatusFailed, ev.Status)
	assert.Equal(t, 6, feed.calls)

	n, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 6, feed.calls)
}

func TestOutboxProcessor_ClaimedEventsAreNotReclaimed(t *testing.T) {
	repo := seed(t, newEvent("appointments"))

	first, err := repo.GetPendingEventsWithLock(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, model.OutboxStatusProcessing, first[0].Status)

	second, err := repo.GetPendingEventsWithLock(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestOutboxProcessor_BackoffDoublesUpToCap(t *testing.T) {
	p := NewOutboxProcessor(fake.NewOutbox(), &flakyFeed{}, OutboxProcessorConfig{
		RetryBackoff:    time.Second,
		MaxRetryBackoff: 5 * time.Second,
	}, logger.Nop(), metrics.New("test"))

	assert.Equal(t, time.Second, p.backoff(1))
	assert.Equal(t, 2*time.Second, p.backoff(2))
	assert.Equal(t, 4*time.Second, p.backoff(3))
	assert.Equal(t, 5*time.Second, p.backoff(4))
	assert.Equal(t, 5*time.Second, p.backoff(9))
}

func TestOutboxProcessor_FetchError(t *testing.T) {
	repo := &failingOutbox{Outbox: fake.NewOutbox(), fetchErr: errors.New("db down")}
	p := NewOutboxProcessor(repo, &flakyFeed{}, testConfig(), logger.Nop(), metrics.New("test"))

	_, err := p.ProcessBatch(context.Background())
	assert.Error(t, err)
}

func TestOutboxProcessor_DeliversThroughMemoryFeed(t *testing.T) {
	feed := realtime.NewMemoryFeed()
	var got []realtime.Change
	_, err := feed.Subscribe(context.Background(),
		realtime.Filter{Table: "appointments", Column: "owner_id", Value: "u1"},
		func(c realtime.Change) { got = append(got, c) })
	require.NoError(t, err)

	repo := seed(t, newEvent("appointments"), newEvent("pets"))
	p := NewOutboxProcessor(repo, feed, testConfig(), logger.Nop(), metrics.New("test"))

	n, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, got, 1)
}
