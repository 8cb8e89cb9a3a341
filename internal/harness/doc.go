// Package harness provides a conformance testing framework for the
// scoping engine.
//
// A scenario is a YAML document declaring a set of units, workers,
// workflows, and frame timers, a script of lifecycle operations to drive
// them through, and assertions over the resulting trace. The harness
// builds the real objects — no mocks, no manufactured transitions —
// wires trace recording into their streams and hooks, executes the script
// through the cooperative scheduler's task queue, and evaluates the
// assertions.
//
// Determinism: scenario execution uses a resettable deterministic
// sequence clock and fixed identity tokens, so the same scenario always
// produces the same trace, event for event, seq for seq. Traces serialize
// through canonical JSON for golden-file comparison with goldie.
package harness
