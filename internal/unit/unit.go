package unit

import (
	"io"
	"log/slog"

	"github.com/scopekit/scopekit/internal/cancel"
	"github.com/scopekit/scopekit/internal/stream"
)

// Scope is the read-only activeness capability a unit exposes.
type Scope interface {
	// IsActive returns the current activeness synchronously.
	IsActive() bool

	// Activeness returns the activeness stream: it replays the current
	// value to each new subscriber, emits only on change, and terminates
	// when the owning unit is destroyed.
	Activeness() stream.Source[bool]
}

// Unit owns one activeness state machine and, while active, one
// activeness-scoped cancellation bag.
type Unit struct {
	token  string
	active *stream.State[bool]
	bag    *cancel.Bag

	onBecomeActive     func()
	onWillResignActive func()

	destroyed bool
	logger    *slog.Logger
}

// Option configures a Unit.
type Option func(*Unit)

// WithOnBecomeActive installs the hook invoked after each activation, once
// the activeness-scoped bag exists.
func WithOnBecomeActive(fn func()) Option {
	return func(u *Unit) {
		u.onBecomeActive = fn
	}
}

// WithOnWillResignActive installs the hook invoked before each
// deactivation cancels the activeness-scoped bag.
func WithOnWillResignActive(fn func()) Option {
	return func(u *Unit) {
		u.onWillResignActive = fn
	}
}

// WithLogger sets the structured logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Unit) {
		u.logger = logger
	}
}

// New creates an inactive Unit with the given identity token.
func New(token string, opts ...Option) *Unit {
	u := &Unit{
		token:  token,
		active: stream.NewState(false),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Token returns the unit's stable identity token.
func (u *Unit) Token() string {
	return u.token
}

// IsActive implements Scope.
func (u *Unit) IsActive() bool {
	return u.active.Value()
}

// Activeness implements Scope.
func (u *Unit) Activeness() stream.Source[bool] {
	return u.active
}

// Bag returns the activeness-scoped bag, or nil while inactive.
//
// Hook code and confined subscriptions register into this bag so they are
// released on deactivation. Each activation allocates a fresh bag.
func (u *Unit) Bag() *cancel.Bag {
	return u.bag
}

// Activate transitions the unit to active. No-op if already active or
// destroyed.
func (u *Unit) Activate() {
	if u.destroyed || u.active.Value() {
		return
	}

	// Bag first: subscribers reacting to the activeness flip, and the
	// OnBecomeActive hook, must be able to register into it.
	u.bag = cancel.NewBag()
	u.active.Set(true)
	if u.onBecomeActive != nil {
		u.onBecomeActive()
	}
	u.logger.Debug("unit activated", "unit", u.token)
}

// Deactivate transitions the unit to inactive, cancelling the
// activeness-scoped bag. No-op if already inactive.
func (u *Unit) Deactivate() {
	if !u.active.Value() {
		return
	}

	// Hook first: cleanup logic still has access to the live bag.
	if u.onWillResignActive != nil {
		u.onWillResignActive()
	}
	bag := u.bag
	u.bag = nil
	bag.Cancel()
	u.active.Set(false)
	u.logger.Debug("unit deactivated", "unit", u.token)
}

// Destroy ends the unit's life: a full Deactivate if still active, then
// termination of the activeness stream. Late subscribers receive no
// values, not even a final current-value replay.
func (u *Unit) Destroy() {
	if u.destroyed {
		return
	}
	u.Deactivate()
	u.destroyed = true
	u.active.Terminate()
	u.logger.Debug("unit destroyed", "unit", u.token)
}
