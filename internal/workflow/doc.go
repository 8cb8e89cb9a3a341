// Package workflow implements multi-step asynchronous flows confined to
// unit activeness.
//
// A Workflow is a committed chain of steps beginning at a root actionable
// item. Each step waits for its current item's unit (if it has one) to be
// active, fires its step function exactly once, and hands the resulting
// (item, value) pair to the next step. Steps whose item carries no
// lifecycle proceed unconditionally.
//
// Single-fire sharing:
// Every step's output is a stream.Single — a computed-once broadcast
// cache keyed by step identity. Forked branches subscribe to the same
// Single, so a step function never re-executes no matter how many
// branches hang off it.
//
// Completion and cancellation bookkeeping live on the Workflow, not the
// branch: one cancel.Bag covers the original chain and all forks, and
// DidComplete fires exactly once per workflow even when several branches
// complete independently. Error delivery is per failing branch and is not
// deduplicated; a failed step halts only its own branch.
//
// Misuse (subscribing before any branch is committed) is a programmer
// error: with development checks enabled it panics, otherwise it logs,
// reports a structured error, and returns a no-op cancellation handle —
// never a silent success.
package workflow
