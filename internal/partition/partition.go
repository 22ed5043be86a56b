// Package partition splits an integration interval into equal-width,
// contiguous sub-intervals and distributes the sample budget among them.
package partition

import (
	"fmt"
	"strings"

	apperrors "github.com/agbru/riemann/internal/errors"
)

// Partition is one sub-interval [A, B) and the number of rectangles used on it.
type Partition struct {
	Index      int
	A, B       float64
	Iterations int
}

// RemainderPolicy decides what happens to the n_iter % n_jobs samples that do
// not divide evenly among partitions.
type RemainderPolicy int

const (
	// Distribute gives one extra sample to each of the first n_iter % n_jobs
	// partitions, so exactly n_iter samples are taken overall.
	Distribute RemainderPolicy = iota
	// Truncate gives every partition n_iter / n_jobs samples and drops the
	// remainder.
	Truncate
)

// String returns the policy name used in flags and config files.
func (p RemainderPolicy) String() string {
	switch p {
	case Distribute:
		return "distribute"
	case Truncate:
		return "truncate"
	default:
		return fmt.Sprintf("RemainderPolicy(%d)", int(p))
	}
}

// ParsePolicy reads a policy name.
func ParsePolicy(s string) (RemainderPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "distribute", "":
		return Distribute, nil
	case "truncate":
		return Truncate, nil
	default:
		return 0, apperrors.NewValidationError("remainder", "unknown remainder policy %q", s)
	}
}

// Split divides [a, b] into nJobs sub-intervals of width (b-a)/nJobs.
//
// Partition i spans [a + i·w, a + (i+1)·w); the last one ends exactly at b.
// Iterations follow policy. Split validates nJobs and nIter only: interval
// checks are left to the integrator so that a degenerate sub-interval fails
// inside the worker that owns it. A partition may receive zero iterations
// when nIter < nJobs; its worker rejects it.
func Split(a, b float64, nIter, nJobs int, policy RemainderPolicy) ([]Partition, error) {
	if nJobs <= 0 {
		return nil, apperrors.NewValidationError("n_jobs", "must be positive, got %d", nJobs)
	}
	if nIter <= 0 {
		return nil, apperrors.NewValidationError("n_iter", "must be positive, got %d", nIter)
	}

	width := (b - a) / float64(nJobs)
	perJob, rem := nIter/nJobs, nIter%nJobs

	parts := make([]Partition, nJobs)
	for i := range parts {
		iters := perJob
		if policy == Distribute && i < rem {
			iters++
		}
		hi := a + float64(i+1)*width
		if i == nJobs-1 {
			hi = b
		}
		parts[i] = Partition{
			Index:      i,
			A:          a + float64(i)*width,
			B:          hi,
			Iterations: iters,
		}
	}
	return parts, nil
}

// TotalIterations sums the samples assigned across parts.
func TotalIterations(parts []Partition) int {
	total := 0
	for _, p := range parts {
		total += p.Iterations
	}
	return total
}
