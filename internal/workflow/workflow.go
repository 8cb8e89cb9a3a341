package workflow

import (
	"io"
	"log/slog"

	"github.com/scopekit/scopekit/internal/cancel"
	"github.com/scopekit/scopekit/internal/stream"
)

// Emission is the (actionable item, value) pair flowing between steps.
type Emission struct {
	Item  Item
	Value any
}

// Workflow owns the cancellation and completion bookkeeping for a step
// chain and all branches forked from it.
type Workflow struct {
	token string

	// bag covers the original chain and every fork for the workflow's
	// whole lifetime; it is the overall cancellation handle returned by
	// Subscribe.
	bag *cancel.Bag

	// root is resolved exactly once by Subscribe.
	root *stream.Single[Emission]

	committed bool
	completed bool
	forks     int

	didComplete     func()
	didFork         func()
	didReceiveError func(error)

	devChecks bool
	logger    *slog.Logger
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithDidComplete installs the completion hook, invoked exactly once per
// workflow instance.
func WithDidComplete(fn func()) Option {
	return func(w *Workflow) {
		w.didComplete = fn
	}
}

// WithDidFork installs the fork notification hook.
func WithDidFork(fn func()) Option {
	return func(w *Workflow) {
		w.didFork = fn
	}
}

// WithDidReceiveError installs the error hook. It may fire once per
// failing branch; error delivery is not deduplicated.
func WithDidReceiveError(fn func(error)) Option {
	return func(w *Workflow) {
		w.didReceiveError = fn
	}
}

// WithDevelopmentChecks makes programmer misuse fatal instead of degraded.
func WithDevelopmentChecks() Option {
	return func(w *Workflow) {
		w.devChecks = true
	}
}

// WithLogger sets the structured logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// New creates a Workflow with the given identity token.
func New(token string, opts ...Option) *Workflow {
	w := &Workflow{
		token:  token,
		bag:    cancel.NewBag(),
		root:   stream.NewSingle[Emission](),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Token returns the workflow's identity token.
func (w *Workflow) Token() string {
	return w.token
}

// Root returns the first step of the chain, fed by Subscribe.
func (w *Workflow) Root() *Step {
	return &Step{wf: w, out: w.root}
}

// Forks reports how many branches have been forked off this workflow.
func (w *Workflow) Forks() int {
	return w.forks
}

// Completed reports whether the workflow has completed.
func (w *Workflow) Completed() bool {
	return w.completed
}

// Subscribe starts the chain at root.
//
// At least one branch must have been committed; otherwise this is
// programmer misuse: fatal under development checks, and a degraded no-op
// handle (with a structured error surfaced to DidReceiveError and the
// log) in production. The root emission enters the chain exactly once;
// the workflow's bag is returned as the overall cancellation handle.
func (w *Workflow) Subscribe(root Item) cancel.Handle {
	if !w.committed {
		err := NewUncommittedSubscribeError(w.token)
		if w.devChecks {
			panic(err)
		}
		w.logger.Error("workflow misuse", "workflow", w.token, "error", err)
		if w.didReceiveError != nil {
			w.didReceiveError(err)
		}
		return cancel.NopHandle()
	}

	w.root.Resolve(Emission{Item: root})
	return w.bag
}

// Cancel cancels the workflow's bag, halting every pending branch.
func (w *Workflow) Cancel() {
	w.bag.Cancel()
}

// complete fires DidComplete exactly once per workflow instance, however
// many branches complete.
func (w *Workflow) complete() {
	if w.completed {
		return
	}
	w.completed = true
	w.logger.Debug("workflow completed", "workflow", w.token)
	if w.didComplete != nil {
		w.didComplete()
	}
}

// fail delivers a branch failure. Deliberately not deduplicated: each
// failing branch reports independently.
func (w *Workflow) fail(err error) {
	w.logger.Debug("workflow branch failed", "workflow", w.token, "error", err)
	if w.didReceiveError != nil {
		w.didReceiveError(err)
	}
}
