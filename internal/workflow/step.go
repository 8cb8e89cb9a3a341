package workflow

import "github.com/scopekit/scopekit/internal/stream"

// Func is a step computation. It receives the current actionable item and
// value and must yield exactly one (next item, next value) or fail.
type Func func(item Item, value any) (Item, any, error)

// Step is a transient link in a workflow chain. Steps are append-only:
// each Then returns a new Step and the previous one is not retained once
// the chain progresses past it.
type Step struct {
	wf  *Workflow
	out stream.Source[Emission]
}

// Then appends a step running fn.
//
// The step's computation, in order:
//  1. If the incoming item bears a unit scope, combine the emission with
//     the scope's activeness and require active before proceeding;
//     non-active deliveries are suppressed, not errored. Scope-less items
//     proceed unconditionally.
//  2. Take the first qualifying occurrence only.
//  3. Invoke fn with (item, value).
//  4. Publish the outcome through a computed-once broadcast so forked
//     consumers never re-trigger fn.
//
// All intermediate subscriptions register into the workflow's bag, so
// cancelling the workflow halts confinement waits mid-step.
func (s *Step) Then(name string, fn Func) *Step {
	w := s.wf
	next := stream.NewSingle[Emission]()

	run := func(e Emission) {
		nextItem, nextValue, err := fn(e.Item, e.Value)
		if err != nil {
			next.Fail(NewStepError(w.token, name, err))
			return
		}
		next.Resolve(Emission{Item: nextItem, Value: nextValue})
	}

	sub := s.out.Subscribe(stream.Observer[Emission]{
		Next: func(e Emission) {
			scope, confined := e.Item.Scope()
			if !confined {
				run(e)
				return
			}
			// Wait for the first active delivery; the replay-current
			// activeness stream fires synchronously if already active.
			qualified := stream.First[bool](scope.Activeness(), func(active bool) bool {
				return active
			})
			w.bag.Insert(qualified.Subscribe(stream.Observer[bool]{
				Next: func(bool) { run(e) },
			}))
		},
		Err: next.Fail,
	})
	w.bag.Insert(sub)

	return &Step{wf: w, out: next}
}

// OnError attaches a side-effect handler invoked when a failure passes
// through this point of the chain. The error continues downstream
// unchanged; the value path is unaffected.
func (s *Step) OnError(handler func(error)) *Step {
	w := s.wf
	next := stream.NewSingle[Emission]()

	sub := s.out.Subscribe(stream.Observer[Emission]{
		Next: next.Resolve,
		Err: func(err error) {
			if handler != nil {
				handler(err)
			}
			next.Fail(err)
		},
	})
	w.bag.Insert(sub)

	return &Step{wf: w, out: next}
}

// Fork reinterprets this step's output as the start of a new branch on the
// same workflow, sharing its bag and completion guard. The shared
// single-fire output guarantees the upstream steps do not re-execute for
// the new branch.
func (s *Step) Fork() *Step {
	s.wf.forks++
	if s.wf.didFork != nil {
		s.wf.didFork()
	}
	return &Step{wf: s.wf, out: s.out}
}

// Commit terminates a branch: it subscribes to the composed pipeline,
// registers the resulting handle in the workflow's bag, and routes the
// branch outcome into the workflow-level completion guard and error hook.
func (s *Step) Commit() {
	w := s.wf
	w.committed = true

	sub := s.out.Subscribe(stream.Observer[Emission]{
		Next: func(Emission) { w.complete() },
		Err:  func(err error) { w.fail(err) },
	})
	w.bag.Insert(sub)
}
