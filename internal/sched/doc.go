// Package sched implements the single cooperative scheduling domain the
// scoping engine runs in.
//
// The scheduler owns three things:
//
//   - a FIFO task queue: work posted from any goroutine is executed
//     one task at a time, in order, by the run loop or by Drain
//   - a logical wall-clock: Advance moves time forward explicitly, so
//     hosts and tests control elapsed time rather than reading time.Now
//   - periodic pollers: registered tick callbacks driven by Advance,
//     with coalesced late delivery (a large Advance delivers at most one
//     tick per poller, exactly how a paused UI timer fires once, late)
//
// Single-Writer Event Loop:
// All tasks and ticks execute on whichever goroutine calls Run, Drain, or
// Advance; the scheduler never spawns goroutines. Enqueuing is safe from
// any goroutine, mirroring the delivery model of a platform UI thread.
//
// Ordering: tasks run in post order; ticks run in poller registration
// order; every delivery can be stamped with a monotonic sequence number
// from the scheduler's Sequencer for trace ordering.
package sched
