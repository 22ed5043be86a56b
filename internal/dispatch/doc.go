// Package dispatch parallelizes the left-rectangle rule. It splits an interval
// into equal sub-intervals, integrates each one on a worker pool (goroutines
// or worker processes) and sums the partial results in completion order.
//
// The pool is scoped to a single call: it is opened before the first
// partition is submitted and closed on every exit path. The first worker
// failure aborts the dispatch and no partial sum is returned.
package dispatch
