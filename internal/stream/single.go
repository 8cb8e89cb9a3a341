package stream

import "sync"

// singleEntry tracks one pending Single subscriber.
type singleEntry[T any] struct {
	obs    Observer[T]
	closed bool
}

// Single is a computed-once broadcast cache: a stream that terminates with
// exactly one value or one error, memoizing the outcome for late
// subscribers.
//
// Single implements single-fire sharing of step computations. A workflow
// step resolves its Single once; any number of downstream consumers (the
// next step plus forked branches) subscribe to it without re-triggering the
// computation. The first Resolve or Fail wins; later calls are dropped.
type Single[T any] struct {
	mu       sync.Mutex
	resolved bool
	failed   bool
	value    T
	err      error
	waiters  []*singleEntry[T]
}

// NewSingle creates an unresolved Single.
func NewSingle[T any]() *Single[T] {
	return &Single[T]{}
}

// Resolve completes the Single with a value. Only the first Resolve or
// Fail takes effect.
func (s *Single[T]) Resolve(v T) {
	s.mu.Lock()
	if s.resolved || s.failed {
		s.mu.Unlock()
		return
	}
	s.resolved = true
	s.value = v
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()

	for _, w := range waiters {
		if w.closed {
			continue
		}
		w.obs.next(v)
		w.obs.done()
	}
}

// Fail completes the Single with an error. Only the first Resolve or Fail
// takes effect.
func (s *Single[T]) Fail(err error) {
	s.mu.Lock()
	if s.resolved || s.failed {
		s.mu.Unlock()
		return
	}
	s.failed = true
	s.err = err
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()

	for _, w := range waiters {
		if w.closed {
			continue
		}
		w.obs.fail(err)
	}
}

// Subscribe attaches an observer. If the Single is already settled the
// memoized outcome is delivered synchronously.
func (s *Single[T]) Subscribe(o Observer[T]) *Subscription {
	s.mu.Lock()
	if s.resolved {
		v := s.value
		s.mu.Unlock()
		o.next(v)
		o.done()
		return NewSubscription()
	}
	if s.failed {
		err := s.err
		s.mu.Unlock()
		o.fail(err)
		return NewSubscription()
	}
	entry := &singleEntry[T]{obs: o}
	s.waiters = append(s.waiters, entry)
	s.mu.Unlock()

	return NewSubscription(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		entry.closed = true
		for i, w := range s.waiters {
			if w == entry {
				s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
				return
			}
		}
	})
}

// Settled reports whether the Single has resolved or failed.
func (s *Single[T]) Settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolved || s.failed
}
