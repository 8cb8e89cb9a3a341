package stream

import "sync"

// Observer receives stream notifications. Any of the three callbacks may be
// nil; missing callbacks are skipped.
type Observer[T any] struct {
	// Next receives each emitted value.
	Next func(T)

	// Err receives a terminal error. No further notifications follow.
	Err func(error)

	// Done signals normal termination. No further notifications follow.
	Done func()
}

// next delivers a value if a Next callback is installed.
func (o Observer[T]) next(v T) {
	if o.Next != nil {
		o.Next(v)
	}
}

// fail delivers a terminal error if an Err callback is installed.
func (o Observer[T]) fail(err error) {
	if o.Err != nil {
		o.Err(err)
	}
}

// done delivers normal termination if a Done callback is installed.
func (o Observer[T]) done() {
	if o.Done != nil {
		o.Done()
	}
}

// Source is a subscribable stream of values.
type Source[T any] interface {
	// Subscribe attaches an observer and returns its cancellation token.
	// Sources with replay semantics deliver synchronously during Subscribe.
	Subscribe(Observer[T]) *Subscription
}

// SourceFunc adapts a subscribe function to a Source.
type SourceFunc[T any] func(Observer[T]) *Subscription

// Subscribe implements Source.
func (f SourceFunc[T]) Subscribe(o Observer[T]) *Subscription { return f(o) }

// Subscription is the cancellation token returned by Subscribe.
//
// It is the explicit, non-owning link between a subscriber and a source:
// holding a Subscription retains nothing but the teardown closures, so a
// subscriber never keeps its source alive through the token. Subscription
// satisfies the cancellation handle capability (Cancel()) and can be
// inserted into a cancel.Bag.
type Subscription struct {
	mu        sync.Mutex
	cancelled bool
	teardown  []func()
}

// NewSubscription creates a live subscription with the given teardown
// functions, run once on Cancel in registration order.
func NewSubscription(teardown ...func()) *Subscription {
	return &Subscription{teardown: teardown}
}

// Add registers an extra teardown function. If the subscription is already
// cancelled the function runs immediately.
func (s *Subscription) Add(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		fn()
		return
	}
	s.teardown = append(s.teardown, fn)
	s.mu.Unlock()
}

// Cancel detaches the subscriber and runs all teardown functions exactly
// once. Subsequent calls are no-ops.
func (s *Subscription) Cancel() {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	teardown := s.teardown
	s.teardown = nil
	s.mu.Unlock()

	for _, fn := range teardown {
		fn()
	}
}

// Cancelled reports whether Cancel has been called.
func (s *Subscription) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}
