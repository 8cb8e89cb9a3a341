// Package worker binds self-contained tasks to a unit's activeness.
//
// A worker has its own started/stopped state, controlled by the caller and
// independent of any unit. While started, the worker mirrors the bound
// unit's activeness into an execution sub-state: it enters executing when
// the unit is active and exits when the unit deactivates or the worker is
// stopped. Each execution period owns a fresh execution-scoped cancel.Bag,
// so every subscription the OnStart hook registers is released when
// execution ends.
//
// The worker never retains the bound unit. The binding is an explicit
// registration token: the worker holds only the stream.Subscription for
// the unit's activeness stream, and the unit's scope is referenced solely
// by the binding's callback, whose lifetime equals the subscription.
// Cancelling the binding (on Stop or Destroy) severs the relation
// entirely, so a unit that strongly retains its workers never forms an
// ownership cycle with them.
//
// A worker started against an already-active unit enters executing
// synchronously during Start: the fresh subscription to the activeness
// stream replays the current value immediately. That is the mechanism,
// not a special case.
package worker
