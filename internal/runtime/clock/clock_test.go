package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	clk := NewFake(time.Unix(0, 0))

	var order []string
	clk.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	clk.AfterFunc(1*time.Second, func() { order = append(order, "a") })
	clk.AfterFunc(3*time.Second, func() { order = append(order, "c") })

	clk.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 1, clk.PendingTimers())

	clk.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestFakeFiresNestedTimersWithinWindow(t *testing.T) {
	clk := NewFake(time.Unix(0, 0))

	fired := 0
	clk.AfterFunc(time.Second, func() {
		fired++
		clk.AfterFunc(time.Second, func() { fired++ })
	})

	// One advance covers both the original timer and the one it schedules.
	clk.Advance(2 * time.Second)
	assert.Equal(t, 2, fired)
}

func TestFakeStop(t *testing.T) {
	clk := NewFake(time.Unix(0, 0))

	fired := false
	timer := clk.AfterFunc(time.Second, func() { fired = true })
	require.True(t, timer.Stop())

	clk.Advance(time.Minute)
	assert.False(t, fired)
	assert.False(t, timer.Stop())
}

func TestFakeZeroDelayFiresOnNextAdvance(t *testing.T) {
	clk := NewFake(time.Unix(0, 0))

	fired := false
	clk.AfterFunc(0, func() { fired = true })
	assert.False(t, fired)

	clk.Advance(0)
	assert.True(t, fired)
}

func TestFakeNowAdvances(t *testing.T) {
	start := time.Unix(100, 0)
	clk := NewFake(start)

	clk.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), clk.Now())
}
