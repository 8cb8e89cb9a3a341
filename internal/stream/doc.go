// Package stream provides the minimal push-stream primitives the scoping
// engine is built on.
//
// This is deliberately not a general reactive library. It contains exactly
// the operators the engine needs:
//
//   - State: a current-value stream with replay-on-subscribe and
//     duplicate suppression (activeness and started/stopped streams)
//   - CombineLatest2 + Filter + Map: latest-value combination used for
//     confinement gating
//   - First: take-first-match used by workflow step qualification
//   - Single: a computed-once broadcast cache used for single-fire sharing
//     of step computations across forks
//
// Delivery is synchronous and ordered: all emissions happen on the caller's
// goroutine, in publication order, and a fresh subscriber to a State
// receives the current value before any subsequent change. The package is
// designed for a single cooperative scheduling domain; cross-goroutine use
// requires external serialization.
package stream
