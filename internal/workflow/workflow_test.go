package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scopekit/scopekit/internal/unit"
)

// hookRecorder records workflow hook firings.
type hookRecorder struct {
	completes int
	forks     int
	errs      []error
}

func newRecordedWorkflow(opts ...Option) (*Workflow, *hookRecorder) {
	rec := &hookRecorder{}
	opts = append(opts,
		WithDidComplete(func() { rec.completes++ }),
		WithDidFork(func() { rec.forks++ }),
		WithDidReceiveError(func(err error) { rec.errs = append(rec.errs, err) }),
	)
	return New("wf-1", opts...), rec
}

func passThrough(item Item, value any) (Item, any, error) {
	return item, value, nil
}

func TestWorkflow_PlainChainCompletesOnSubscribe(t *testing.T) {
	wf, rec := newRecordedWorkflow()

	var seen []any
	wf.Root().
		Then("one", func(item Item, value any) (Item, any, error) {
			seen = append(seen, value)
			return Plain(nil), "from-one", nil
		}).
		Then("two", func(item Item, value any) (Item, any, error) {
			seen = append(seen, value)
			return Plain(nil), "from-two", nil
		}).
		Commit()

	wf.Subscribe(Plain(nil))

	assert.Equal(t, []any{nil, "from-one"}, seen)
	assert.Equal(t, 1, rec.completes)
	assert.Empty(t, rec.errs)
}

func TestWorkflow_SubscribeBeforeCommitFailsFast(t *testing.T) {
	wf, rec := newRecordedWorkflow()

	handle := wf.Subscribe(Plain(nil))

	require.Len(t, rec.errs, 1)
	assert.True(t, IsUncommittedSubscribeError(rec.errs[0]))
	assert.Equal(t, 0, rec.completes)
	// Degraded handle: cancelling it must be harmless.
	assert.NotPanics(t, func() { handle.Cancel() })
}

func TestWorkflow_SubscribeBeforeCommitPanicsUnderDevChecks(t *testing.T) {
	wf := New("wf-1", WithDevelopmentChecks())
	assert.Panics(t, func() { wf.Subscribe(Plain(nil)) })
}

func TestWorkflow_SecondSubscribeIsIgnored(t *testing.T) {
	wf, rec := newRecordedWorkflow()

	fires := 0
	wf.Root().
		Then("count", func(item Item, value any) (Item, any, error) {
			fires++
			return Plain(nil), nil, nil
		}).
		Commit()

	wf.Subscribe(Plain("first"))
	wf.Subscribe(Plain("second"))

	assert.Equal(t, 1, fires, "root emission enters the chain exactly once")
	assert.Equal(t, 1, rec.completes)
}

func TestWorkflow_StepConfinedToInactiveItemWaits(t *testing.T) {
	u := unit.New("u-1")
	wf, rec := newRecordedWorkflow()

	fires := 0
	wf.Root().
		Then("confined", func(item Item, value any) (Item, any, error) {
			fires++
			return Plain(nil), nil, nil
		}).
		Commit()

	wf.Subscribe(LifecycleBearing("payload", u))
	assert.Equal(t, 0, fires, "step must not fire while the item's unit is inactive")
	assert.Equal(t, 0, rec.completes, "workflow must not complete from a suppressed branch")

	u.Activate()
	assert.Equal(t, 1, fires)
	assert.Equal(t, 1, rec.completes)
}

func TestWorkflow_StepOnAlreadyActiveItemFiresSynchronously(t *testing.T) {
	u := unit.New("u-1")
	u.Activate()
	wf, rec := newRecordedWorkflow()

	fires := 0
	wf.Root().
		Then("confined", func(item Item, value any) (Item, any, error) {
			fires++
			return Plain(nil), nil, nil
		}).
		Commit()

	wf.Subscribe(LifecycleBearing(nil, u))
	assert.Equal(t, 1, fires)
	assert.Equal(t, 1, rec.completes)
}

func TestWorkflow_ConfinementQualifiesOnlyOnce(t *testing.T) {
	u := unit.New("u-1")
	wf, _ := newRecordedWorkflow()

	fires := 0
	wf.Root().
		Then("confined", func(item Item, value any) (Item, any, error) {
			fires++
			return Plain(nil), nil, nil
		}).
		Commit()

	wf.Subscribe(LifecycleBearing(nil, u))
	u.Activate()
	u.Deactivate()
	u.Activate() // re-activation must not re-fire the step

	assert.Equal(t, 1, fires)
}

func TestWorkflow_ForkedBranchesCompleteOnce(t *testing.T) {
	wf, rec := newRecordedWorkflow()

	mid := wf.Root().Then("shared", passThrough)

	mid.Then("left", passThrough).Commit()
	mid.Fork().Then("right", passThrough).Commit()

	wf.Subscribe(Plain(nil))

	assert.Equal(t, 1, rec.completes, "two completing branches, one DidComplete")
	assert.Equal(t, 1, rec.forks)
	assert.Equal(t, 1, wf.Forks())
}

func TestWorkflow_ForkDoesNotRetriggerUpstreamStep(t *testing.T) {
	wf, _ := newRecordedWorkflow()

	sharedFires := 0
	mid := wf.Root().Then("shared", func(item Item, value any) (Item, any, error) {
		sharedFires++
		return Plain(nil), "shared-out", nil
	})

	var left, right any
	mid.Then("left", func(item Item, value any) (Item, any, error) {
		left = value
		return Plain(nil), nil, nil
	}).Commit()
	mid.Fork().Then("right", func(item Item, value any) (Item, any, error) {
		right = value
		return Plain(nil), nil, nil
	}).Commit()

	wf.Subscribe(Plain(nil))

	assert.Equal(t, 1, sharedFires, "single-fire sharing across forks")
	assert.Equal(t, "shared-out", left)
	assert.Equal(t, "shared-out", right)
}

func TestWorkflow_StepFailureHaltsOnlyItsBranch(t *testing.T) {
	wf, rec := newRecordedWorkflow()
	boom := errors.New("boom")

	mid := wf.Root().Then("shared", passThrough)

	mid.Then("failing", func(item Item, value any) (Item, any, error) {
		return Item{}, nil, boom
	}).Commit()
	mid.Fork().Then("healthy", passThrough).Commit()

	wf.Subscribe(Plain(nil))

	require.Len(t, rec.errs, 1)
	assert.True(t, IsStepError(rec.errs[0]))
	assert.ErrorIs(t, rec.errs[0], boom)
	assert.Equal(t, 1, rec.completes, "sibling branch completes despite the failure")
}

func TestWorkflow_OnErrorSeesFailurePassingThrough(t *testing.T) {
	wf, rec := newRecordedWorkflow()
	boom := errors.New("boom")

	var handled error
	wf.Root().
		Then("failing", func(item Item, value any) (Item, any, error) {
			return Item{}, nil, boom
		}).
		OnError(func(err error) { handled = err }).
		Commit()

	wf.Subscribe(Plain(nil))

	assert.ErrorIs(t, handled, boom)
	require.Len(t, rec.errs, 1, "OnError is a side effect; the error still reaches DidReceiveError")
}

func TestWorkflow_ErrorsPerBranchAreNotDeduplicated(t *testing.T) {
	wf, rec := newRecordedWorkflow()
	boom := errors.New("boom")

	mid := wf.Root().Then("failing", func(item Item, value any) (Item, any, error) {
		return Item{}, nil, boom
	})

	// Both branches sit downstream of the same failing step; each reports.
	mid.Then("left", passThrough).Commit()
	mid.Fork().Then("right", passThrough).Commit()

	wf.Subscribe(Plain(nil))

	assert.Len(t, rec.errs, 2, "error delivery is per failing branch")
	assert.Equal(t, 0, rec.completes)
}

func TestWorkflow_CancelHaltsPendingConfinement(t *testing.T) {
	u := unit.New("u-1")
	wf, rec := newRecordedWorkflow()

	fires := 0
	wf.Root().
		Then("confined", func(item Item, value any) (Item, any, error) {
			fires++
			return Plain(nil), nil, nil
		}).
		Commit()

	handle := wf.Subscribe(LifecycleBearing(nil, u))
	handle.Cancel()

	u.Activate()
	assert.Equal(t, 0, fires, "cancelled workflow must not observe later activations")
	assert.Equal(t, 0, rec.completes)
}

func TestWorkflow_ItemVariants(t *testing.T) {
	u := unit.New("u-1")

	plain := Plain("v")
	assert.Equal(t, KindPlain, plain.Kind())
	assert.Equal(t, "v", plain.Value())
	_, ok := plain.Scope()
	assert.False(t, ok)

	scoped := LifecycleBearing("v", u)
	assert.Equal(t, KindLifecycleBearing, scoped.Kind())
	got, ok := scoped.Scope()
	assert.True(t, ok)
	assert.Same(t, u, got)
}

func TestWorkflow_ErrorStringsAndPredicates(t *testing.T) {
	stepErr := NewStepError("wf-9", "load", errors.New("boom"))
	assert.Contains(t, stepErr.Error(), "STEP_FAILED")
	assert.Contains(t, stepErr.Error(), "wf-9")
	assert.Contains(t, stepErr.Error(), "load")
	assert.True(t, IsStepError(stepErr))
	assert.False(t, IsUncommittedSubscribeError(stepErr))

	misuse := NewUncommittedSubscribeError("wf-9")
	assert.Contains(t, misuse.Error(), "SUBSCRIBED_BEFORE_COMMIT")
	assert.True(t, IsUncommittedSubscribeError(misuse))
}
