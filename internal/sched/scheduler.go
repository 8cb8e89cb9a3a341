package sched

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/scopekit/scopekit/internal/stream"
)

// poller is a registered periodic tick callback.
type poller struct {
	period  time.Duration
	nextDue time.Duration
	fn      func(now time.Duration)
	closed  bool
}

// Scheduler is the cooperative scheduling domain: a task queue, a logical
// wall-clock, and periodic pollers, all serviced by a single caller.
type Scheduler struct {
	mu      sync.Mutex
	now     time.Duration
	pollers []*poller

	queue  *taskQueue
	seq    Sequencer
	logger *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithSequencer sets the sequence stamp source. Default: a fresh Clock.
// Tests pass a resettable deterministic clock.
func WithSequencer(seq Sequencer) Option {
	return func(s *Scheduler) {
		s.seq = seq
	}
}

// WithLogger sets the structured logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// New creates a Scheduler at logical time zero with an empty queue.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		queue:  newTaskQueue(),
		seq:    NewClock(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seq returns the next delivery sequence number.
func (s *Scheduler) Seq() int64 {
	return s.seq.Next()
}

// Now returns the current logical time.
func (s *Scheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Post enqueues a task for deferred execution in post order.
// Safe from any goroutine. Tasks posted after Close are dropped.
func (s *Scheduler) Post(fn func()) {
	if fn == nil {
		return
	}
	if !s.queue.Enqueue(fn) {
		s.logger.Warn("task posted after scheduler close; dropped")
	}
}

// Drain runs queued tasks FIFO until the queue is empty, including tasks
// posted by the tasks themselves.
func (s *Scheduler) Drain() {
	for {
		fn, ok := s.queue.TryDequeue()
		if !ok {
			return
		}
		fn()
	}
}

// Every registers a periodic poller. The callback receives the logical
// time of each delivery. The returned subscription deregisters the poller.
//
// Delivery is coalesced: however far a single Advance jumps, a poller
// fires at most once per Advance, matching how a suspended platform timer
// fires once (late) on resume.
func (s *Scheduler) Every(period time.Duration, fn func(now time.Duration)) *stream.Subscription {
	s.mu.Lock()
	p := &poller{
		period:  period,
		nextDue: s.now + period,
		fn:      fn,
	}
	s.pollers = append(s.pollers, p)
	s.mu.Unlock()

	return stream.NewSubscription(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		p.closed = true
		for i, q := range s.pollers {
			if q == p {
				s.pollers = append(s.pollers[:i], s.pollers[i+1:]...)
				return
			}
		}
	})
}

// Advance drains the task queue, moves logical time forward by elapsed,
// and delivers one tick to every poller that came due, in registration
// order. A callback may deregister itself or register new pollers; newly
// registered pollers are not due before the next Advance.
func (s *Scheduler) Advance(elapsed time.Duration) {
	s.Drain()

	s.mu.Lock()
	s.now += elapsed
	now := s.now
	due := make([]*poller, 0, len(s.pollers))
	for _, p := range s.pollers {
		if p.nextDue <= now {
			p.nextDue = now + p.period
			due = append(due, p)
		}
	}
	s.mu.Unlock()

	for _, p := range due {
		if p.closed {
			continue
		}
		p.fn(now)
	}

	// Ticks may post follow-up tasks.
	s.Drain()
}

// Run services the task queue until ctx is cancelled or Close is called.
// Must be called from exactly one goroutine; Advance must not be called
// concurrently with Run.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler run loop started")
	for {
		if fn, ok := s.queue.TryDequeue(); ok {
			fn()
			continue
		}
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler run loop stopped", "reason", ctx.Err())
			return ctx.Err()
		case _, open := <-s.queue.Wait():
			if !open && s.queue.Len() == 0 {
				s.logger.Info("scheduler run loop stopped", "reason", "queue closed")
				return nil
			}
		}
	}
}

// Close stops the queue. Pending tasks still drain; new posts are dropped.
func (s *Scheduler) Close() {
	s.queue.Close()
}

// PollerCount reports the number of registered pollers. Used for
// introspection and tests.
func (s *Scheduler) PollerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pollers)
}
