// Package pool provides the bounded-concurrency fan-out primitive used by
// the enhancement pipeline.
//
// RunAll executes a homogeneous set of independent units of work on an ants
// worker pool with a hard upper bound on simultaneously active units. Unit
// completion order is unspecified; the returned collection preserves
// submission order. Cancellation is cooperative: it is checked before each
// unit starts and periodically for long-running units, and it never
// force-terminates an in-flight worker.
package pool
