package unit

import "github.com/scopekit/scopekit/internal/stream"

// ConfineTo gates src to the active window of scope.
//
// The two streams are combined latest-value; emissions are dropped while
// the scope is inactive and only the paired value is forwarded while it is
// active. The source subscription itself is never cancelled by
// inactivity — delivery is delayed or discarded, so the latest source
// value re-emits when the scope reactivates.
//
// Used to confine externally-initiated side effects to a unit's active
// window without tearing down the subscription on every deactivation.
func ConfineTo[T any](src stream.Source[T], scope Scope) stream.Source[T] {
	combined := stream.CombineLatest2[T, bool](src, scope.Activeness())
	gated := stream.Filter[stream.Pair[T, bool]](combined, func(p stream.Pair[T, bool]) bool {
		return p.Second
	})
	return stream.Map[stream.Pair[T, bool], T](gated, func(p stream.Pair[T, bool]) T {
		return p.First
	})
}
