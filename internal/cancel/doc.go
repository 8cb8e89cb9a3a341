// Package cancel implements scoped resource release via cancellation bags.
//
// A Bag is a container of cancellation handles that are cancelled together,
// exactly once. Bags are the only shared resource in the scoping engine:
// every lifecycle window (a unit's active period, a worker's execution
// period, a workflow's whole life) owns one bag, and everything registered
// during that window is released when the window closes.
//
// INVARIANTS:
//   - Cancel() cancels every contained handle exactly once; repeat calls
//     are no-ops.
//   - Insert() after Cancel() cancels the handle synchronously instead of
//     storing it, so a late registration can never outlive its scope.
//   - Membership order is irrelevant; only bulk cancellation is supported.
//
// No operation blocks. Callers in a single cooperative scheduling domain
// need no external serialization; the internal mutex only protects the
// membership list against cross-goroutine Insert calls.
package cancel
