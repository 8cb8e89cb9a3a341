package worker

import (
	"io"
	"log/slog"

	"github.com/scopekit/scopekit/internal/cancel"
	"github.com/scopekit/scopekit/internal/stream"
	"github.com/scopekit/scopekit/internal/unit"
)

// Worker is a self-contained task bound to, but independently
// start/stop-controlled from, a unit's activeness.
type Worker struct {
	token   string
	started *stream.State[bool]

	executing bool
	execBag   *cancel.Bag

	// binding is the registration token to the bound unit's activeness
	// stream; it is the only link the worker keeps to the unit.
	binding *stream.Subscription

	onStart func(unit.Scope)
	onStop  func()

	destroyed bool
	logger    *slog.Logger
}

// Option configures a Worker.
type Option func(*Worker)

// WithOnStart installs the hook invoked each time the worker enters
// executing. The hook receives the bound unit's scope and may register
// subscriptions into the worker's execution bag.
func WithOnStart(fn func(unit.Scope)) Option {
	return func(w *Worker) {
		w.onStart = fn
	}
}

// WithOnStop installs the hook invoked each time the worker exits
// executing, after the execution bag has been cancelled.
func WithOnStop(fn func()) Option {
	return func(w *Worker) {
		w.onStop = fn
	}
}

// WithLogger sets the structured logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// New creates a stopped Worker with the given identity token.
func New(token string, opts ...Option) *Worker {
	w := &Worker{
		token:   token,
		started: stream.NewState(false),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Token returns the worker's identity token.
func (w *Worker) Token() string {
	return w.token
}

// IsStarted returns the started state synchronously.
func (w *Worker) IsStarted() bool {
	return w.started.Value()
}

// Started returns the deduplicated started/stopped stream. It replays the
// current value on subscribe and terminates when the worker is destroyed.
func (w *Worker) Started() stream.Source[bool] {
	return w.started
}

// Bag returns the execution-scoped bag, or nil while not executing.
func (w *Worker) Bag() *cancel.Bag {
	return w.execBag
}

// Start binds the worker to scope and marks it started. No-op if already
// started or destroyed. A later Start after Stop rebinds from scratch,
// possibly to a different scope.
func (w *Worker) Start(scope unit.Scope) {
	if w.destroyed || w.started.Value() {
		return
	}

	// Defensive reset: clear any stale binding before the fresh one.
	w.Stop()

	w.started.Set(true)
	w.logger.Debug("worker started", "worker", w.token)

	// The binding closure is the only reference to scope the worker
	// creates; its lifetime equals the subscription token stored in
	// w.binding. If the unit is already active, the replay-current
	// activeness stream moves the worker into executing synchronously.
	w.binding = scope.Activeness().Subscribe(stream.Observer[bool]{
		Next: func(active bool) {
			if !w.started.Value() {
				return
			}
			if active {
				w.beginExecuting(scope)
			} else {
				w.endExecuting()
			}
		},
		Done: func() {
			// Bound unit destroyed: execution cannot continue.
			w.endExecuting()
		},
	})
}

// Stop marks the worker stopped, exits executing if currently executing
// regardless of the bound unit's activeness, and severs the binding.
// No-op if already stopped.
func (w *Worker) Stop() {
	if !w.started.Value() {
		return
	}

	w.started.Set(false)
	w.endExecuting()
	if w.binding != nil {
		w.binding.Cancel()
		w.binding = nil
	}
	w.logger.Debug("worker stopped", "worker", w.token)
}

// Destroy performs an implicit Stop and terminates the started stream.
func (w *Worker) Destroy() {
	if w.destroyed {
		return
	}
	w.Stop()
	w.destroyed = true
	w.started.Terminate()
}

func (w *Worker) beginExecuting(scope unit.Scope) {
	if w.executing {
		return
	}
	w.executing = true
	w.execBag = cancel.NewBag()
	if w.onStart != nil {
		w.onStart(scope)
	}
	w.logger.Debug("worker executing", "worker", w.token)
}

func (w *Worker) endExecuting() {
	if !w.executing {
		return
	}
	w.executing = false
	bag := w.execBag
	w.execBag = nil
	bag.Cancel()
	if w.onStop != nil {
		w.onStop()
	}
	w.logger.Debug("worker idle", "worker", w.token)
}
