package frametimer

import (
	"io"
	"log/slog"
	"time"

	"github.com/scopekit/scopekit/internal/ident"
	"github.com/scopekit/scopekit/internal/sched"
	"github.com/scopekit/scopekit/internal/stream"
)

// DefaultMaxFrameDuration is the per-tick accumulation clamp: one frame's
// worth of time at roughly 30 frames per second.
const DefaultMaxFrameDuration = 33 * time.Millisecond

// Executor schedules frame-budget-aware delayed executions on a
// cooperative scheduler, registering each in an explicit registry.
type Executor struct {
	scheduler *sched.Scheduler
	registry  *Registry
	tokens    ident.TokenGenerator
	logger    *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithTokenGenerator sets the timer token source. Default: UUIDv7.
func WithTokenGenerator(gen ident.TokenGenerator) ExecutorOption {
	return func(e *Executor) {
		e.tokens = gen
	}
}

// WithLogger sets the structured logger. Default: discard.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates an Executor bound to a scheduler and a registry.
func NewExecutor(scheduler *sched.Scheduler, registry *Registry, opts ...ExecutorOption) *Executor {
	e := &Executor{
		scheduler: scheduler,
		registry:  registry,
		tokens:    ident.UUIDv7Generator{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Timer is one scheduled one-shot execution. It satisfies the cancellation
// handle capability and can be inserted into a cancel.Bag.
type Timer struct {
	token    string
	delay    time.Duration
	maxFrame time.Duration

	accumulated time.Duration
	lastPoll    time.Duration

	action   func()
	poll     *stream.Subscription
	registry *Registry
	logger   *slog.Logger

	fired     bool
	cancelled bool
}

// TimerOption configures a single scheduled execution.
type TimerOption func(*Timer)

// WithMaxFrameDuration overrides the per-tick clamp.
// Default: DefaultMaxFrameDuration.
func WithMaxFrameDuration(d time.Duration) TimerOption {
	return func(t *Timer) {
		t.maxFrame = d
	}
}

// Execute schedules action to run once after delay logical time.
//
// The poll period is maxFrameDuration/3. Each tick accumulates the elapsed
// time since the previous tick, clamped to maxFrameDuration; the action
// fires on the first tick whose accumulated total reaches delay, then the
// timer cancels its own polling and deregisters itself.
func (e *Executor) Execute(delay time.Duration, action func(), opts ...TimerOption) *Timer {
	t := &Timer{
		token:    e.tokens.Generate(),
		delay:    delay,
		maxFrame: DefaultMaxFrameDuration,
		lastPoll: e.scheduler.Now(),
		action:   action,
		registry: e.registry,
		logger:   e.logger,
	}
	for _, opt := range opts {
		opt(t)
	}

	e.registry.register(t)
	t.poll = e.scheduler.Every(t.maxFrame/3, t.tick)
	e.logger.Debug("frame timer scheduled",
		"timer", t.token,
		"delay", delay,
		"max_frame", t.maxFrame,
	)
	return t
}

// Token returns the timer's registry token.
func (t *Timer) Token() string {
	return t.token
}

// Fired reports whether the action has run.
func (t *Timer) Fired() bool {
	return t.fired
}

// Cancel stops the timer before it fires. No-op after fire or cancel.
func (t *Timer) Cancel() {
	if t.fired || t.cancelled {
		return
	}
	t.cancelled = true
	t.poll.Cancel()
	t.registry.deregister(t.token)
	t.logger.Debug("frame timer cancelled", "timer", t.token)
}

func (t *Timer) tick(now time.Duration) {
	if t.fired || t.cancelled {
		return
	}

	elapsed := now - t.lastPoll
	t.lastPoll = now
	// One frame's worth at most: suspended wall-clock time beyond the
	// frame budget never inflates the accumulated delay.
	if elapsed > t.maxFrame {
		elapsed = t.maxFrame
	}
	t.accumulated += elapsed

	if t.accumulated < t.delay {
		return
	}

	t.fired = true
	t.poll.Cancel()
	t.registry.deregister(t.token)
	t.logger.Debug("frame timer fired",
		"timer", t.token,
		"accumulated", t.accumulated,
	)
	t.action()
}
