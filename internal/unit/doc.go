// Package unit implements the lifecycle unit: the owner of an activeness
// state machine and its scoped resources.
//
// A unit is either inactive or active. While active it exclusively owns a
// fresh cancel.Bag; everything subscribed during the active window is
// registered into that bag and released together on deactivation. The
// unit's identity token is stable across activate/deactivate cycles; the
// bag is not.
//
// Transition protocol:
//
//	Activate:   allocate bag → publish active=true → OnBecomeActive hook
//	Deactivate: OnWillResignActive hook → cancel bag → publish active=false
//	Destroy:    Deactivate if active → terminate the activeness stream
//
// The hook ordering is load-bearing: OnBecomeActive runs only after the
// bag exists so hook-installed subscriptions register safely, and
// OnWillResignActive runs before the bag is cancelled so cleanup logic
// still has access to it.
//
// The Scope interface is the read-only capability a unit exposes to
// workers and workflows: the synchronous current activeness plus a
// replay-current, dedup-on-change stream of changes that terminates on
// destruction. Anything implementing Scope can be a worker binding target
// or a workflow actionable item.
package unit
