// Package outbox implements the durable client-side queue that decouples
// user-facing popup actions from network availability. Records persist
// before the first delivery attempt and are retried with exponential
// backoff; past the retry limit they are dropped, never surfaced.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/papapop/papapop-go/internal/domain/events"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/internal/infrastructure/security"
	"github.com/papapop/papapop-go/internal/runtime/clock"
	"github.com/papapop/papapop-go/internal/runtime/storage"
	"github.com/papapop/papapop-go/pkg/config"

	"sync"
	"time"
)

// Transport delivers a single record to the backend. A nil error means the
// record is done; any error schedules a retry.
type Transport interface {
	Deliver(ctx context.Context, record events.OutboxRecord) error
}

// Outbox is the durable retry queue. All mutation of the persisted queue
// happens under the mutex so a flush swap and a concurrent enqueue can
// never lose or double-send a record.
type Outbox struct {
	store      storage.Store
	storageKey string
	transport  Transport
	clk        clock.Clock
	delays     []time.Duration
	maxRetries int
	logger     *logging.ChanneledLogger
	mu         sync.Mutex
}

// Option configures an Outbox.
type Option func(*Outbox)

// WithClock substitutes the clock, used by tests to drive timers manually.
func WithClock(clk clock.Clock) Option {
	return func(o *Outbox) { o.clk = clk }
}

// WithRetrySchedule overrides the backoff schedule and retry limit.
func WithRetrySchedule(delays []time.Duration, maxRetries int) Option {
	return func(o *Outbox) {
		o.delays = delays
		o.maxRetries = maxRetries
	}
}

// WithStorageKey overrides the persisted queue key.
func WithStorageKey(key string) Option {
	return func(o *Outbox) { o.storageKey = key }
}

// New creates an outbox over the given durable store and transport.
func New(store storage.Store, transport Transport, logger *logging.ChanneledLogger, opts ...Option) *Outbox {
	o := &Outbox{
		store:      store,
		storageKey: config.OutboxStorageKey,
		transport:  transport,
		clk:        clock.System(),
		delays:     config.OutboxRetryDelays,
		maxRetries: config.OutboxMaxRetries,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Enqueue persists a new record (attempt counter zero) and schedules an
// immediate asynchronous flush. It returns once the record is durable;
// delivery is fire-and-forget from the caller's perspective.
func (o *Outbox) Enqueue(recordType events.RecordType, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", recordType, err)
	}

	record := events.OutboxRecord{
		ID:        security.GenerateULID(),
		Type:      recordType,
		Payload:   raw,
		Attempts:  0,
		Timestamp: o.clk.Now().UnixMilli(),
	}

	o.mu.Lock()
	queue := o.loadLocked()
	queue = append(queue, record)
	o.saveLocked(queue)
	o.mu.Unlock()

	o.logger.Outbox().Debug("Record enqueued", "recordId", record.ID, "recordType", string(recordType), "queueDepth", len(queue))

	o.clk.AfterFunc(0, func() { o.Flush(context.Background()) })
	return nil
}

// Flush atomically swaps the persisted queue for an empty one, then attempts
// delivery of the swapped records in order. Records enqueued while delivery
// is in flight land in the live queue and are picked up by a later flush,
// never double-sent.
func (o *Outbox) Flush(ctx context.Context) {
	o.mu.Lock()
	queue := o.loadLocked()
	if len(queue) == 0 {
		o.mu.Unlock()
		return
	}
	o.saveLocked(nil)
	o.mu.Unlock()

	for _, record := range queue {
		err := o.transport.Deliver(ctx, record)
		o.logger.LogDeliveryAttempt(record.ID, string(record.Type), record.Attempts+1, err)
		if err != nil {
			o.requeue(record)
		}
	}
}

// Pending returns a copy of the persisted queue.
func (o *Outbox) Pending() []events.OutboxRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	queue := o.loadLocked()
	out := make([]events.OutboxRecord, len(queue))
	copy(out, queue)
	return out
}

// requeue re-appends a failed record with its attempt counter incremented
// and arms an individual retry timer, or drops the record for good once the
// counter exceeds the retry limit.
func (o *Outbox) requeue(record events.OutboxRecord) {
	record.Attempts++
	if record.Attempts > o.maxRetries {
		o.logger.Outbox().Warn("Record dropped after exhausting retries",
			"recordId", record.ID,
			"recordType", string(record.Type),
			"attempts", record.Attempts,
		)
		return
	}

	o.mu.Lock()
	queue := o.loadLocked()
	queue = append(queue, record)
	o.saveLocked(queue)
	o.mu.Unlock()

	delay := o.delays[len(o.delays)-1]
	if record.Attempts-1 < len(o.delays) {
		delay = o.delays[record.Attempts-1]
	}

	o.logger.Outbox().Debug("Retry scheduled", "recordId", record.ID, "attempt", record.Attempts, "delay", delay)
	o.clk.AfterFunc(delay, func() { o.Flush(context.Background()) })
}

// loadLocked reads the persisted queue. Corrupt storage yields an empty
// queue rather than an error; the runtime must never break the host page.
func (o *Outbox) loadLocked() []events.OutboxRecord {
	raw, ok := o.store.Get(o.storageKey)
	if !ok || raw == "" {
		return nil
	}
	var queue []events.OutboxRecord
	if err := json.Unmarshal([]byte(raw), &queue); err != nil {
		o.logger.Outbox().Warn("Discarding unreadable outbox queue", "error", err.Error())
		return nil
	}
	return queue
}

func (o *Outbox) saveLocked(queue []events.OutboxRecord) {
	if len(queue) == 0 {
		if err := o.store.Delete(o.storageKey); err != nil {
			o.logger.Outbox().Warn("Failed to clear outbox queue", "error", err.Error())
		}
		return
	}
	raw, err := json.Marshal(queue)
	if err != nil {
		o.logger.Outbox().Error("Failed to encode outbox queue", "error", err.Error())
		return
	}
	if err := o.store.Set(o.storageKey, string(raw)); err != nil {
		o.logger.Outbox().Warn("Failed to persist outbox queue", "error", err.Error())
	}
}
