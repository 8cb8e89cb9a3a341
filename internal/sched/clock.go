package sched

import "sync/atomic"

// Sequencer stamps deliveries with monotonic sequence numbers.
// Implemented by Clock (production) and testutil.DeterministicClock (tests).
type Sequencer interface {
	Next() int64
}

// Clock is a monotonic logical clock for delivery ordering.
//
// Every trace-relevant delivery is stamped with a strictly increasing seq
// from Next(). Wall-clock timestamps are never used for ordering: the
// logical domain must produce identical orderings across runs.
//
// Thread-safety: safe for concurrent use (atomic operations), although the
// single-writer design means one goroutine typically calls Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0; the first Next() returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
