// Package modifier implements a reversible modification engine: a
// queue of discrete, delta-based modifications applied to the named
// numeric fields of shared targets. Each modification can be applied
// and later unapplied independently, in any order, and carries its own
// status so failed attempts can be retried without double-applying
// effects.
//
// The engine is synchronous. Register, ProcessAll, and Revert run to
// completion before returning; the Manager serializes all queue and
// field mutation behind a single lock.
package modifier
