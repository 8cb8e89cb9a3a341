// Package trace records lifecycle events for conformance checking.
//
// Every observable transition in a scenario — unit activations, worker
// start/stop and executing/idle flips, workflow step firings, timer
// fires — is recorded as a TraceEvent stamped with a monotonic sequence
// number. The resulting trace is order-exact and, serialized through
// MarshalCanonical, byte-stable across runs, which is what golden-file
// comparison needs.
package trace
