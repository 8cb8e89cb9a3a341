package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_ReplaysCurrentValueOnSubscribe(t *testing.T) {
	s := NewState(true)

	var got []bool
	s.Subscribe(Observer[bool]{Next: func(v bool) { got = append(got, v) }})

	assert.Equal(t, []bool{true}, got, "current value must arrive synchronously")
}

func TestState_SuppressesDuplicates(t *testing.T) {
	s := NewState(false)

	var got []bool
	s.Subscribe(Observer[bool]{Next: func(v bool) { got = append(got, v) }})

	s.Set(false) // duplicate of current
	s.Set(true)
	s.Set(true) // duplicate
	s.Set(false)

	assert.Equal(t, []bool{false, true, false}, got)
}

func TestState_NeverEmitsTwoConsecutiveEqualValues(t *testing.T) {
	s := NewState(0)

	var got []int
	s.Subscribe(Observer[int]{Next: func(v int) { got = append(got, v) }})

	for _, v := range []int{0, 1, 1, 2, 2, 2, 3, 3, 1} {
		s.Set(v)
	}

	for i := 1; i < len(got); i++ {
		assert.NotEqual(t, got[i-1], got[i], "consecutive equal values at %d", i)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 1}, got)
}

func TestState_TerminateDeliversDoneAndDropsLateValues(t *testing.T) {
	s := NewState(1)

	var values []int
	doneCount := 0
	s.Subscribe(Observer[int]{
		Next: func(v int) { values = append(values, v) },
		Done: func() { doneCount++ },
	})

	s.Terminate()
	s.Set(2) // dropped
	s.Terminate() // no-op

	assert.Equal(t, []int{1}, values)
	assert.Equal(t, 1, doneCount)
}

func TestState_LateSubscriberAfterTerminateGetsOnlyDone(t *testing.T) {
	s := NewState(7)
	s.Terminate()

	var values []int
	done := false
	s.Subscribe(Observer[int]{
		Next: func(v int) { values = append(values, v) },
		Done: func() { done = true },
	})

	assert.Empty(t, values, "terminated streams never replay the final value")
	assert.True(t, done)
}

func TestState_CancelStopsDelivery(t *testing.T) {
	s := NewState(0)

	var got []int
	sub := s.Subscribe(Observer[int]{Next: func(v int) { got = append(got, v) }})

	s.Set(1)
	sub.Cancel()
	s.Set(2)

	assert.Equal(t, []int{0, 1}, got)
}

func TestState_SubscriberCancellingDuringDelivery(t *testing.T) {
	s := NewState(0)

	var sub *Subscription
	var got []int
	first := s.Subscribe(Observer[int]{Next: func(v int) {
		if v == 1 {
			sub.Cancel() // tear down the second subscriber mid-delivery
		}
	}})
	defer first.Cancel()
	sub = s.Subscribe(Observer[int]{Next: func(v int) { got = append(got, v) }})

	s.Set(1)
	assert.Equal(t, []int{0}, got, "tombstoned subscriber must be skipped in the same delivery round")
}

func TestSubscription_CancelIsIdempotent(t *testing.T) {
	n := 0
	sub := NewSubscription(func() { n++ })
	sub.Cancel()
	sub.Cancel()
	assert.Equal(t, 1, n)
	assert.True(t, sub.Cancelled())
}

func TestSubscription_AddAfterCancelRunsImmediately(t *testing.T) {
	sub := NewSubscription()
	sub.Cancel()

	ran := false
	sub.Add(func() { ran = true })
	assert.True(t, ran)
}
