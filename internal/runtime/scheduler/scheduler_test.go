package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papapop/papapop-go/internal/domain/entities/popup"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/internal/runtime/clock"
)

type fireRecorder struct {
	mu    sync.Mutex
	fired []string
}

func (r *fireRecorder) fire(def popup.Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, def.ID)
}

func (r *fireRecorder) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.fired))
	copy(out, r.fired)
	return out
}

func newTestScheduler(t *testing.T) (*Scheduler, *fireRecorder, *clock.Fake) {
	t.Helper()
	rec := &fireRecorder{}
	clk := clock.NewFake(time.Unix(1700000000, 0))
	s := New(clk, rec.fire, logging.NewTestLogger())
	return s, rec, clk
}

func TestDelayTriggerFiresAfterConfiguredSeconds(t *testing.T) {
	s, rec, clk := newTestScheduler(t)
	s.Arm([]popup.Definition{{ID: "d1", TriggerType: popup.TriggerDelay, TriggerValue: 3}})

	clk.Advance(2900 * time.Millisecond)
	assert.Empty(t, rec.ids())

	clk.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"d1"}, rec.ids())
}

func TestScrollTriggerFiresAtThreshold(t *testing.T) {
	s, rec, clk := newTestScheduler(t)
	s.Arm([]popup.Definition{{ID: "s1", TriggerType: popup.TriggerScroll, TriggerValue: 50}})

	// 400 of (2000-1000) is 40%, below threshold.
	s.OnScroll(ScrollMetrics{ScrollY: 400, ScrollHeight: 2000, ViewportHeight: 1000})
	clk.Advance(200 * time.Millisecond)
	assert.Empty(t, rec.ids())

	s.OnScroll(ScrollMetrics{ScrollY: 600, ScrollHeight: 2000, ViewportHeight: 1000})
	clk.Advance(200 * time.Millisecond)
	assert.Equal(t, []string{"s1"}, rec.ids())
}

func TestScrollEvaluationIsDebounced(t *testing.T) {
	s, rec, clk := newTestScheduler(t)
	s.Arm([]popup.Definition{{ID: "s1", TriggerType: popup.TriggerScroll, TriggerValue: 50}})

	// A burst of samples within the debounce window evaluates only the last.
	s.OnScroll(ScrollMetrics{ScrollY: 900, ScrollHeight: 2000, ViewportHeight: 1000})
	clk.Advance(50 * time.Millisecond)
	s.OnScroll(ScrollMetrics{ScrollY: 100, ScrollHeight: 2000, ViewportHeight: 1000})
	clk.Advance(200 * time.Millisecond)

	assert.Empty(t, rec.ids())
}

func TestScrollTriggerFiresOnlyOnce(t *testing.T) {
	s, rec, clk := newTestScheduler(t)
	s.Arm([]popup.Definition{{ID: "s1", TriggerType: popup.TriggerScroll, TriggerValue: 50}})

	s.OnScroll(ScrollMetrics{ScrollY: 1000, ScrollHeight: 2000, ViewportHeight: 1000})
	clk.Advance(200 * time.Millisecond)
	s.OnScroll(ScrollMetrics{ScrollY: 1000, ScrollHeight: 2000, ViewportHeight: 1000})
	clk.Advance(200 * time.Millisecond)

	assert.Equal(t, []string{"s1"}, rec.ids())
}

func TestShortPageCountsAsFullyScrolled(t *testing.T) {
	m := ScrollMetrics{ScrollY: 0, ScrollHeight: 800, ViewportHeight: 1000}
	assert.Equal(t, float64(100), m.Percent())
}

func TestExitTriggerFiresAtTopEdge(t *testing.T) {
	s, rec, _ := newTestScheduler(t)
	s.Arm([]popup.Definition{{ID: "e1", TriggerType: popup.TriggerExit}})

	s.OnPointerLeave(250)
	assert.Empty(t, rec.ids())

	s.OnPointerLeave(0)
	assert.Equal(t, []string{"e1"}, rec.ids())

	// Fired definitions never re-arm.
	s.OnPointerLeave(-5)
	assert.Equal(t, []string{"e1"}, rec.ids())
}

func TestIndependentTriggersFireIndependently(t *testing.T) {
	s, rec, clk := newTestScheduler(t)
	s.Arm([]popup.Definition{
		{ID: "d1", TriggerType: popup.TriggerDelay, TriggerValue: 1},
		{ID: "s1", TriggerType: popup.TriggerScroll, TriggerValue: 30},
		{ID: "e1", TriggerType: popup.TriggerExit},
	})

	clk.Advance(time.Second)
	s.OnScroll(ScrollMetrics{ScrollY: 500, ScrollHeight: 2000, ViewportHeight: 1000})
	clk.Advance(200 * time.Millisecond)
	s.OnPointerLeave(0)

	assert.ElementsMatch(t, []string{"d1", "s1", "e1"}, rec.ids())
}

func TestStopCancelsPendingTimers(t *testing.T) {
	s, rec, clk := newTestScheduler(t)
	s.Arm([]popup.Definition{{ID: "d1", TriggerType: popup.TriggerDelay, TriggerValue: 5}})

	s.Stop()
	clk.Advance(time.Minute)
	assert.Empty(t, rec.ids())
}

func TestZeroDelayFiresImmediatelyOnAdvance(t *testing.T) {
	s, rec, clk := newTestScheduler(t)
	s.Arm([]popup.Definition{{ID: "d0", TriggerType: popup.TriggerDelay, TriggerValue: 0}})

	clk.Advance(0)
	require.Equal(t, []string{"d0"}, rec.ids())
}
