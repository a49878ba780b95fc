package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papapop/papapop-go/internal/domain/events"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/internal/runtime/clock"
	"github.com/papapop/papapop-go/internal/runtime/storage"
	"github.com/papapop/papapop-go/pkg/config"
)

type fakeTransport struct {
	mu       sync.Mutex
	attempts map[string]int
	failures map[string]int // deliveries to fail before succeeding; -1 fails forever
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		attempts: make(map[string]int),
		failures: make(map[string]int),
	}
}

func (t *fakeTransport) Deliver(ctx context.Context, record events.OutboxRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := t.payloadKey(record)
	t.attempts[key]++
	remaining := t.failures[key]
	if remaining == -1 || t.attempts[key] <= remaining {
		return errors.New("delivery refused")
	}
	return nil
}

func (t *fakeTransport) payloadKey(record events.OutboxRecord) string {
	var payload map[string]string
	if err := json.Unmarshal(record.Payload, &payload); err != nil {
		return string(record.Payload)
	}
	return payload["name"]
}

func (t *fakeTransport) attemptCount(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts[key]
}

func newTestOutbox(t *testing.T) (*Outbox, *fakeTransport, *storage.MemoryStore, *clock.Fake) {
	t.Helper()
	store := storage.NewMemoryStore()
	transport := newFakeTransport()
	clk := clock.NewFake(time.Unix(1700000000, 0))
	o := New(store, transport, logging.NewTestLogger(), WithClock(clk))
	return o, transport, store, clk
}

// drain advances far enough to cover the whole retry schedule.
func drain(clk *clock.Fake) {
	clk.Advance(time.Minute)
}

func TestEnqueuePersistsBeforeDelivery(t *testing.T) {
	o, transport, store, _ := newTestOutbox(t)

	require.NoError(t, o.Enqueue(events.RecordAnalytics, map[string]string{"name": "view"}))

	// Durable before any flush runs.
	_, ok := store.Get(config.OutboxStorageKey)
	assert.True(t, ok)
	assert.Len(t, o.Pending(), 1)
	assert.Equal(t, 0, transport.attemptCount("view"))
}

func TestSuccessfulDeliveryClearsQueue(t *testing.T) {
	o, transport, store, clk := newTestOutbox(t)

	require.NoError(t, o.Enqueue(events.RecordAnalytics, map[string]string{"name": "view"}))
	clk.Advance(0)

	assert.Equal(t, 1, transport.attemptCount("view"))
	assert.Empty(t, o.Pending())
	_, ok := store.Get(config.OutboxStorageKey)
	assert.False(t, ok)
}

func TestPermanentFailureStopsAfterRetryLimit(t *testing.T) {
	o, transport, _, clk := newTestOutbox(t)
	transport.failures["view"] = -1

	require.NoError(t, o.Enqueue(events.RecordAnalytics, map[string]string{"name": "view"}))
	drain(clk)

	// Initial attempt plus the configured retries, then the record is gone.
	assert.Equal(t, 1+config.OutboxMaxRetries, transport.attemptCount("view"))
	assert.Empty(t, o.Pending())

	drain(clk)
	assert.Equal(t, 1+config.OutboxMaxRetries, transport.attemptCount("view"))
}

func TestRetryUsesBackoffSchedule(t *testing.T) {
	o, transport, _, clk := newTestOutbox(t)
	transport.failures["view"] = -1

	require.NoError(t, o.Enqueue(events.RecordAnalytics, map[string]string{"name": "view"}))

	clk.Advance(0)
	assert.Equal(t, 1, transport.attemptCount("view"))

	// Next retry waits a full second.
	clk.Advance(900 * time.Millisecond)
	assert.Equal(t, 1, transport.attemptCount("view"))
	clk.Advance(100 * time.Millisecond)
	assert.Equal(t, 2, transport.attemptCount("view"))

	clk.Advance(2 * time.Second)
	assert.Equal(t, 3, transport.attemptCount("view"))
	clk.Advance(4 * time.Second)
	assert.Equal(t, 4, transport.attemptCount("view"))
	clk.Advance(8 * time.Second)
	assert.Equal(t, 5, transport.attemptCount("view"))
}

func TestTransientFailureEventuallyDelivers(t *testing.T) {
	o, transport, _, clk := newTestOutbox(t)
	transport.failures["capture"] = 2

	require.NoError(t, o.Enqueue(events.RecordEmailCapture, map[string]string{"name": "capture"}))
	drain(clk)

	assert.Equal(t, 3, transport.attemptCount("capture"))
	assert.Empty(t, o.Pending())
}

func TestFailedRecordDoesNotBlockOthers(t *testing.T) {
	o, transport, _, clk := newTestOutbox(t)
	transport.failures["bad"] = -1

	require.NoError(t, o.Enqueue(events.RecordAnalytics, map[string]string{"name": "bad"}))
	require.NoError(t, o.Enqueue(events.RecordAnalytics, map[string]string{"name": "good"}))
	drain(clk)

	assert.Equal(t, 1, transport.attemptCount("good"))
	assert.Equal(t, 1+config.OutboxMaxRetries, transport.attemptCount("bad"))
	assert.Empty(t, o.Pending())
}

func TestFlushReplaysRecordsFromEarlierRun(t *testing.T) {
	store := storage.NewMemoryStore()
	leftover := []events.OutboxRecord{{
		ID:      "earlier",
		Type:    events.RecordAnalytics,
		Payload: json.RawMessage(`{"name":"leftover"}`),
	}}
	raw, err := json.Marshal(leftover)
	require.NoError(t, err)
	require.NoError(t, store.Set(config.OutboxStorageKey, string(raw)))

	transport := newFakeTransport()
	clk := clock.NewFake(time.Unix(1700000000, 0))
	o := New(store, transport, logging.NewTestLogger(), WithClock(clk))

	o.Flush(context.Background())

	assert.Equal(t, 1, transport.attemptCount("leftover"))
	assert.Empty(t, o.Pending())
}

func TestCorruptQueueIsDiscarded(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(config.OutboxStorageKey, "{{{corrupt"))

	transport := newFakeTransport()
	clk := clock.NewFake(time.Unix(1700000000, 0))
	o := New(store, transport, logging.NewTestLogger(), WithClock(clk))

	assert.Empty(t, o.Pending())

	// The store still accepts fresh records afterwards.
	require.NoError(t, o.Enqueue(events.RecordAnalytics, map[string]string{"name": "fresh"}))
	clk.Advance(0)
	assert.Equal(t, 1, transport.attemptCount("fresh"))
}
