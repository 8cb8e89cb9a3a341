package frametimer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scopekit/scopekit/internal/ident"
	"github.com/scopekit/scopekit/internal/sched"
)

func newExecutor(t *testing.T) (*Executor, *sched.Scheduler, *Registry) {
	t.Helper()
	s := sched.New()
	reg := NewRegistry()
	e := NewExecutor(s, reg, WithTokenGenerator(ident.NewFixedGenerator("t-1", "t-2", "t-3")))
	return e, s, reg
}

func TestExecutor_FiresOnceAfterDelay(t *testing.T) {
	e, s, reg := newExecutor(t)

	fired := 0
	e.Execute(100*time.Millisecond, func() { fired++ })
	require.Equal(t, 1, reg.Len())

	// Poll period is 11ms (33/3); accumulate in real-size ticks.
	for i := 0; i < 9; i++ {
		s.Advance(11 * time.Millisecond)
	}
	assert.Equal(t, 0, fired, "99ms accumulated: not yet due")

	s.Advance(11 * time.Millisecond) // 110ms accumulated
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, reg.Len(), "fired timer deregisters itself")
	assert.Equal(t, 0, s.PollerCount(), "fired timer cancels its own polling")

	// Further ticks never re-fire.
	s.Advance(time.Second)
	assert.Equal(t, 1, fired)
}

func TestExecutor_PauseClampedToFrameBudget(t *testing.T) {
	// A single tick reporting 500ms elapsed (simulated pause) contributes
	// only maxFrameDuration=33ms to the accumulated delay.
	e, s, _ := newExecutor(t)

	fired := 0
	timer := e.Execute(100*time.Millisecond, func() { fired++ })

	s.Advance(500 * time.Millisecond) // clamped to 33
	s.Advance(500 * time.Millisecond) // 66
	s.Advance(500 * time.Millisecond) // 99
	assert.Equal(t, 0, fired, "three paused ticks accumulate 99ms, below the 100ms delay")
	assert.False(t, timer.Fired())

	s.Advance(500 * time.Millisecond) // 132
	assert.Equal(t, 1, fired)
	assert.True(t, timer.Fired())
}

func TestExecutor_CustomMaxFrameDuration(t *testing.T) {
	e, s, _ := newExecutor(t)

	fired := 0
	e.Execute(20*time.Millisecond, func() { fired++ }, WithMaxFrameDuration(30*time.Millisecond))

	// Poll period 10ms; each 10ms tick accumulates 10ms.
	s.Advance(10 * time.Millisecond)
	assert.Equal(t, 0, fired)
	s.Advance(10 * time.Millisecond)
	assert.Equal(t, 1, fired)
}

func TestTimer_CancelStopsPollingAndDeregisters(t *testing.T) {
	e, s, reg := newExecutor(t)

	fired := 0
	timer := e.Execute(50*time.Millisecond, func() { fired++ })

	timer.Cancel()
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 0, s.PollerCount())

	s.Advance(time.Second)
	assert.Equal(t, 0, fired)

	// Idempotent.
	timer.Cancel()
}

func TestRegistry_DrainCancelsAllInFlightTimers(t *testing.T) {
	e, s, reg := newExecutor(t)

	fired := 0
	e.Execute(50*time.Millisecond, func() { fired++ })
	e.Execute(80*time.Millisecond, func() { fired++ })
	require.Equal(t, 2, reg.Len())

	reg.Drain()
	assert.Equal(t, 0, reg.Len())

	s.Advance(time.Second)
	assert.Equal(t, 0, fired)
}

func TestExecutor_ZeroDelayFiresOnFirstTick(t *testing.T) {
	e, s, _ := newExecutor(t)

	fired := 0
	e.Execute(0, func() { fired++ })
	assert.Equal(t, 0, fired, "never fires synchronously at schedule time")

	s.Advance(11 * time.Millisecond)
	assert.Equal(t, 1, fired)
}
