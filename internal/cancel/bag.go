package cancel

import "sync"

// Handle is any resource that can be released by cancellation.
//
// Handles are opaque to the bag: subscriptions, timers, and nested bags all
// qualify. Cancel must be safe to call at most once per insertion; the bag
// guarantees it never calls a stored handle twice.
type Handle interface {
	Cancel()
}

// Func adapts a plain closure to a Handle.
type Func func()

// Cancel invokes the closure.
func (f Func) Cancel() { f() }

// NopHandle returns a Handle that does nothing when cancelled.
//
// Used as the degraded return value for misuse paths that must not
// silently succeed but also must not crash production builds.
func NopHandle() Handle { return Func(func() {}) }

// Bag is a scoped container of cancellation handles.
//
// Once cancelled, a bag stays cancelled: further Insert calls cancel the
// incoming handle immediately rather than storing it.
type Bag struct {
	mu        sync.Mutex
	handles   []Handle
	cancelled bool
}

// NewBag creates an empty, live bag.
func NewBag() *Bag {
	return &Bag{}
}

// Insert adds a handle to the bag.
//
// If the bag is already cancelled the handle is cancelled synchronously
// instead, and membership does not grow.
func (b *Bag) Insert(h Handle) {
	if h == nil {
		return
	}

	b.mu.Lock()
	if b.cancelled {
		b.mu.Unlock()
		// Scope already closed: release immediately, outside the lock so a
		// re-entrant handle cannot deadlock.
		h.Cancel()
		return
	}
	b.handles = append(b.handles, h)
	b.mu.Unlock()
}

// Cancel cancels every contained handle exactly once and marks the bag
// cancelled. Subsequent calls are no-ops.
func (b *Bag) Cancel() {
	b.mu.Lock()
	if b.cancelled {
		b.mu.Unlock()
		return
	}
	b.cancelled = true
	handles := b.handles
	b.handles = nil
	b.mu.Unlock()

	// Handles run outside the lock: a handle may Insert into this bag
	// (which now cancels immediately) without deadlocking.
	for _, h := range handles {
		h.Cancel()
	}
}

// Cancelled reports whether the bag has been cancelled.
func (b *Bag) Cancelled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancelled
}

// Count reports current membership.
func (b *Bag) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handles)
}
