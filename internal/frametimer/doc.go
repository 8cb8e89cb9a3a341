// Package frametimer schedules one-shot actions after a logical delay
// measured in frame-budget increments.
//
// A frame timer does not trust wall-clock elapsed time. On each poll tick
// it clamps the observed elapsed time to one frame's worth
// (maxFrameDuration, default 33 time units) before accumulating, so a
// debugger pause, app suspension, or dropped frame contributes at most one
// frame to the delay accounting. The action therefore fires no earlier
// than the requested logical delay, possibly later under load, and is
// insensitive to suspended wall-clock time beyond the frame budget.
//
// Polling runs at maxFrameDuration/3 on the cooperative scheduler.
// In-flight timers live in an explicit Registry passed in at
// construction — created at process start, drained at shutdown — never in
// ambient global state. A timer removes itself from the registry when it
// fires or is cancelled.
package frametimer
