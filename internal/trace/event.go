package trace

import (
	"sync"

	"github.com/scopekit/scopekit/internal/sched"
)

// Event kinds recorded by the harness.
const (
	KindUnitActivated     = "unit_activated"
	KindUnitDeactivated   = "unit_deactivated"
	KindUnitDestroyed     = "unit_destroyed"
	KindWorkerStarted     = "worker_started"
	KindWorkerStopped     = "worker_stopped"
	KindWorkerExecuting   = "worker_executing"
	KindWorkerIdle        = "worker_idle"
	KindWorkflowStep      = "workflow_step"
	KindWorkflowCompleted = "workflow_completed"
	KindWorkflowForked    = "workflow_forked"
	KindWorkflowError     = "workflow_error"
	KindTimerScheduled    = "timer_scheduled"
	KindTimerFired        = "timer_fired"
	KindTimerCancelled    = "timer_cancelled"
)

// TraceEvent is one recorded lifecycle transition.
type TraceEvent struct {
	// Seq is the monotonic delivery sequence number.
	Seq int64 `json:"seq"`

	// Kind is one of the Kind constants.
	Kind string `json:"kind"`

	// Subject identifies the unit, worker, workflow, or timer.
	Subject string `json:"subject"`

	// Detail carries optional event-specific fields.
	Detail map[string]any `json:"detail,omitempty"`
}

// Recorder accumulates trace events stamped from a sequence source.
//
// Thread-safety: Add may be called from any goroutine, though scenario
// execution is single-threaded in practice.
type Recorder struct {
	mu     sync.Mutex
	seq    sched.Sequencer
	events []TraceEvent
}

// NewRecorder creates an empty Recorder stamping from seq.
func NewRecorder(seq sched.Sequencer) *Recorder {
	return &Recorder{seq: seq}
}

// Add records an event. Detail may be nil.
func (r *Recorder) Add(kind, subject string, detail map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, TraceEvent{
		Seq:     r.seq.Next(),
		Kind:    kind,
		Subject: subject,
		Detail:  detail,
	})
}

// Events returns a copy of the recorded trace in order.
func (r *Recorder) Events() []TraceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TraceEvent, len(r.events))
	copy(out, r.events)
	return out
}

// toCanonicalMap converts an event for canonical serialization.
func (e TraceEvent) toCanonicalMap() map[string]any {
	m := map[string]any{
		"seq":     e.Seq,
		"kind":    e.Kind,
		"subject": e.Subject,
	}
	if len(e.Detail) > 0 {
		m["detail"] = e.Detail
	}
	return m
}

// Snapshot is a named, serializable trace for golden comparison.
type Snapshot struct {
	Name   string       `json:"name"`
	Events []TraceEvent `json:"events"`
}

// MarshalCanonical serializes the snapshot as canonical JSON.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	events := make([]any, len(s.Events))
	for i, e := range s.Events {
		events[i] = e.toCanonicalMap()
	}
	return MarshalCanonical(map[string]any{
		"name":   s.Name,
		"events": events,
	})
}
