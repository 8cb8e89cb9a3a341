package frametimer

import "sync"

// Registry tracks in-flight frame timers for the process.
//
// The registry has process lifetime: construct one at startup, pass it to
// every Executor, and Drain it at shutdown. Individual timers deregister
// themselves on fire or cancel, so no explicit teardown is required beyond
// normal cancellation.
type Registry struct {
	mu     sync.Mutex
	timers map[string]*Timer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{timers: make(map[string]*Timer)}
}

// Len reports the number of in-flight timers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Drain cancels every in-flight timer. Used at process shutdown.
func (r *Registry) Drain() {
	r.mu.Lock()
	timers := make([]*Timer, 0, len(r.timers))
	for _, t := range r.timers {
		timers = append(timers, t)
	}
	r.mu.Unlock()

	for _, t := range timers {
		t.Cancel()
	}
}

func (r *Registry) register(t *Timer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timers[t.token] = t
}

func (r *Registry) deregister(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.timers, token)
}
