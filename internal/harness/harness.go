package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/scopekit/scopekit/internal/frametimer"
	"github.com/scopekit/scopekit/internal/ident"
	"github.com/scopekit/scopekit/internal/sched"
	"github.com/scopekit/scopekit/internal/stream"
	"github.com/scopekit/scopekit/internal/testutil"
	"github.com/scopekit/scopekit/internal/trace"
	"github.com/scopekit/scopekit/internal/unit"
	"github.com/scopekit/scopekit/internal/worker"
	"github.com/scopekit/scopekit/internal/workflow"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: no assertion failures.
	Pass bool

	// Trace contains the recorded lifecycle transitions in delivery order.
	// Used for trace assertions and golden comparison.
	Trace []trace.TraceEvent

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string

	// State is the final state snapshot keyed by "unit/<id>",
	// "worker/<id>", "workflow/<id>", "timer/<id>", and "timers".
	State map[string]map[string]any
}

// NewResult creates a passing, empty result.
func NewResult() *Result {
	return &Result{
		Pass:  true,
		State: make(map[string]map[string]any),
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// Harness holds the live objects for one scenario execution.
//
// The harness builds real units, workers, workflows, and frame timers and
// drives them through the scheduler's task queue. Trace recording rides on
// the objects' own streams and hooks: activeness subscriptions for units,
// execution hooks for workers, completion/fork/error hooks for workflows.
type Harness struct {
	scheduler *sched.Scheduler
	recorder  *trace.Recorder
	registry  *frametimer.Registry
	executor  *frametimer.Executor

	units     map[string]*unit.Unit
	workers   map[string]*worker.Worker
	workflows map[string]*workflow.Workflow
	timers    map[string]*frametimer.Timer

	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against fresh objects with a fresh deterministic
// sequence clock, so the same scenario always produces the same trace.
// Frame timers receive fixed tokens matching their scenario names.
func Run(scenario *Scenario) (*Result, error) {
	seq := testutil.NewDeterministicClock()
	scheduler := sched.New(sched.WithSequencer(seq))
	registry := frametimer.NewRegistry()

	// Timer tokens are predetermined in script order so the registry and
	// the trace speak scenario names instead of UUIDs.
	var timerTokens []string
	for _, step := range scenario.Script {
		if step.Schedule != nil {
			timerTokens = append(timerTokens, step.Schedule.Timer)
		}
	}

	h := &Harness{
		scheduler: scheduler,
		recorder:  trace.NewRecorder(seq),
		registry:  registry,
		executor: frametimer.NewExecutor(scheduler, registry,
			frametimer.WithTokenGenerator(ident.NewFixedGenerator(timerTokens...))),
		units:     make(map[string]*unit.Unit),
		workers:   make(map[string]*worker.Worker),
		workflows: make(map[string]*workflow.Workflow),
		timers:    make(map[string]*frametimer.Timer),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	h.buildUnits(scenario.Units)
	h.buildWorkers(scenario.Workers)
	for _, def := range scenario.Workflows {
		h.buildWorkflow(def)
	}

	for i, step := range scenario.Script {
		if err := h.executeStep(step); err != nil {
			return nil, fmt.Errorf("script[%d]: %w", i, err)
		}
	}
	h.logger.Debug("scenario script executed", "scenario", scenario.Name)

	result := NewResult()
	result.Trace = h.recorder.Events()
	result.State = h.stateSnapshot()
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// buildUnits creates each unit and attaches trace recording to its
// activeness stream. The recording subscription is attached before any
// script step runs, so it observes every transition ahead of later
// subscribers such as worker bindings.
func (h *Harness) buildUnits(ids []string) {
	for _, id := range ids {
		u := unit.New(id)
		h.units[id] = u
		h.recordToggles(u.Activeness(), id,
			trace.KindUnitActivated, trace.KindUnitDeactivated, trace.KindUnitDestroyed)
	}
}

func (h *Harness) buildWorkers(ids []string) {
	for _, id := range ids {
		subject := id
		w := worker.New(id,
			worker.WithOnStart(func(unit.Scope) {
				h.recorder.Add(trace.KindWorkerExecuting, subject, nil)
			}),
			worker.WithOnStop(func() {
				h.recorder.Add(trace.KindWorkerIdle, subject, nil)
			}),
		)
		h.workers[id] = w
		h.recordToggles(w.Started(), id,
			trace.KindWorkerStarted, trace.KindWorkerStopped, "")
	}
}

// recordToggles translates a replay-current bool stream into trace events.
// The synchronous replay on subscribe is skipped: only transitions caused
// by the script are recorded.
func (h *Harness) recordToggles(src stream.Source[bool], subject, onTrue, onFalse, onDone string) {
	first := true
	src.Subscribe(stream.Observer[bool]{
		Next: func(v bool) {
			if first {
				first = false
				return
			}
			if v {
				h.recorder.Add(onTrue, subject, nil)
			} else {
				h.recorder.Add(onFalse, subject, nil)
			}
		},
		Done: func() {
			if onDone != "" {
				h.recorder.Add(onDone, subject, nil)
			}
		},
	})
}

func (h *Harness) buildWorkflow(def WorkflowDef) {
	id := def.ID
	wf := workflow.New(id,
		workflow.WithDidComplete(func() {
			h.recorder.Add(trace.KindWorkflowCompleted, id, nil)
		}),
		workflow.WithDidFork(func() {
			h.recorder.Add(trace.KindWorkflowForked, id, nil)
		}),
		workflow.WithDidReceiveError(func(err error) {
			h.recorder.Add(trace.KindWorkflowError, id, errorDetail(err))
		}),
	)
	h.workflows[id] = wf

	steps := make([][]*workflow.Step, len(def.Chains))
	for ci, chain := range def.Chains {
		var cur *workflow.Step
		if chain.ForkFrom != nil {
			cur = steps[chain.ForkFrom.Chain][chain.ForkFrom.Step].Fork()
		} else {
			cur = wf.Root()
		}
		for _, sd := range chain.Steps {
			cur = cur.Then(sd.Name, h.stepFunc(id, sd))
			steps[ci] = append(steps[ci], cur)
		}
		cur.Commit()
	}
}

// stepFunc builds the step computation for one declared step: record the
// invocation, then yield the declared item or the declared failure.
func (h *Harness) stepFunc(wfID string, sd StepDef) workflow.Func {
	return func(workflow.Item, any) (workflow.Item, any, error) {
		h.recorder.Add(trace.KindWorkflowStep, wfID, map[string]any{"step": sd.Name})
		if sd.Fail {
			return workflow.Item{}, nil, fmt.Errorf("step %s failed by scenario", sd.Name)
		}
		return h.itemFor(sd.Item), sd.Name, nil
	}
}

// itemFor resolves an item reference. References were validated at load
// time, so an unknown unit here is a harness bug.
func (h *Harness) itemFor(ref string) workflow.Item {
	if ref == PlainItem {
		return workflow.Plain(ref)
	}
	u, ok := h.units[ref]
	if !ok {
		panic(fmt.Sprintf("harness: unvalidated item reference %q", ref))
	}
	return workflow.LifecycleBearing(ref, u)
}

// executeStep runs one script operation. Lifecycle operations go through
// the scheduler's task queue; Advance moves logical time directly since it
// drains the queue itself.
func (h *Harness) executeStep(step ScriptStep) error {
	switch {
	case step.Activate != "":
		h.post(func() { h.units[step.Activate].Activate() })
	case step.Deactivate != "":
		h.post(func() { h.units[step.Deactivate].Deactivate() })
	case step.Destroy != "":
		h.post(func() { h.units[step.Destroy].Destroy() })
	case step.Start != nil:
		h.post(func() { h.workers[step.Start.Worker].Start(h.units[step.Start.Unit]) })
	case step.Stop != "":
		h.post(func() { h.workers[step.Stop].Stop() })
	case step.Subscribe != nil:
		sub := step.Subscribe
		h.post(func() { h.workflows[sub.Workflow].Subscribe(h.itemFor(sub.Item)) })
	case step.Schedule != nil:
		def := step.Schedule
		h.post(func() { h.schedule(def) })
	case step.CancelTimer != "":
		h.post(func() {
			h.timers[step.CancelTimer].Cancel()
			h.recorder.Add(trace.KindTimerCancelled, step.CancelTimer, nil)
		})
	case step.Advance != 0:
		h.scheduler.Advance(time.Duration(step.Advance) * time.Millisecond)
	default:
		return fmt.Errorf("empty script step")
	}
	return nil
}

func (h *Harness) post(fn func()) {
	h.scheduler.Post(fn)
	h.scheduler.Drain()
}

func (h *Harness) schedule(def *ScheduleStep) {
	var opts []frametimer.TimerOption
	if def.MaxFrame > 0 {
		opts = append(opts, frametimer.WithMaxFrameDuration(time.Duration(def.MaxFrame)*time.Millisecond))
	}
	h.recorder.Add(trace.KindTimerScheduled, def.Timer, map[string]any{"delay_ms": def.Delay})

	name := def.Timer
	t := h.executor.Execute(time.Duration(def.Delay)*time.Millisecond, func() {
		h.recorder.Add(trace.KindTimerFired, name, nil)
	}, opts...)
	h.timers[def.Timer] = t
}

// stateSnapshot captures final object state for state assertions.
func (h *Harness) stateSnapshot() map[string]map[string]any {
	state := make(map[string]map[string]any)
	for id, u := range h.units {
		state["unit/"+id] = map[string]any{"active": u.IsActive()}
	}
	for id, w := range h.workers {
		state["worker/"+id] = map[string]any{"started": w.IsStarted()}
	}
	for id, wf := range h.workflows {
		state["workflow/"+id] = map[string]any{
			"completed": wf.Completed(),
			"forks":     wf.Forks(),
		}
	}
	for id, t := range h.timers {
		state["timer/"+id] = map[string]any{"fired": t.Fired()}
	}
	state["timers"] = map[string]any{"in_flight": h.registry.Len()}
	return state
}

// errorDetail converts a workflow error into canonical trace detail.
func errorDetail(err error) map[string]any {
	var wfErr *workflow.Error
	if errors.As(err, &wfErr) {
		detail := map[string]any{"code": string(wfErr.Code)}
		if wfErr.Step != "" {
			detail["step"] = wfErr.Step
		}
		return detail
	}
	return map[string]any{"message": err.Error()}
}
