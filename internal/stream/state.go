package stream

import "sync"

// stateEntry tracks one subscriber. Entries are tombstoned rather than
// removed so a cancellation during delivery cannot corrupt iteration.
type stateEntry[T comparable] struct {
	obs    Observer[T]
	closed bool
}

// State is a current-value stream: it always holds a value, replays it
// synchronously to each new subscriber, and suppresses duplicate emissions.
//
// State backs the activeness and started/stopped streams. Its contract:
//
//   - Subscribe delivers the current value before returning.
//   - Set publishes only changed values; setting the current value again
//     emits nothing.
//   - Terminate ends the stream: subscribers receive Done, and late
//     subscribers receive Done immediately with no value replay.
//
// Delivery is synchronous, in subscription order.
type State[T comparable] struct {
	mu    sync.Mutex
	value T
	subs  []*stateEntry[T]
	done  bool
}

// NewState creates a State holding the initial value.
func NewState[T comparable](initial T) *State[T] {
	return &State[T]{value: initial}
}

// Value returns the current value synchronously.
func (s *State[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set publishes a new value. Duplicate values are suppressed; values set
// after Terminate are dropped.
func (s *State[T]) Set(v T) {
	s.mu.Lock()
	if s.done || s.value == v {
		s.mu.Unlock()
		return
	}
	s.value = v
	entries := make([]*stateEntry[T], len(s.subs))
	copy(entries, s.subs)
	s.mu.Unlock()

	// Deliver outside the lock so observers may subscribe, cancel, or Set
	// re-entrantly. Tombstoned entries are skipped.
	for _, e := range entries {
		if e.closed {
			continue
		}
		e.obs.next(v)
	}
}

// Subscribe attaches an observer. The current value is delivered
// synchronously before Subscribe returns, unless the stream has terminated,
// in which case only Done is delivered.
func (s *State[T]) Subscribe(o Observer[T]) *Subscription {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		o.done()
		return NewSubscription()
	}
	entry := &stateEntry[T]{obs: o}
	s.subs = append(s.subs, entry)
	current := s.value
	s.mu.Unlock()

	sub := NewSubscription(func() {
		s.remove(entry)
	})

	// Replay current value. The entry may already be tombstoned if the
	// subscription was cancelled from another teardown path.
	if !entry.closed {
		o.next(current)
	}
	return sub
}

// Terminate ends the stream. All subscribers receive Done; further Set
// calls are dropped and late subscribers see only Done.
func (s *State[T]) Terminate() {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	entries := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, e := range entries {
		if e.closed {
			continue
		}
		e.closed = true
		e.obs.done()
	}
}

func (s *State[T]) remove(entry *stateEntry[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.closed = true
	for i, e := range s.subs {
		if e == entry {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}
