//go:generate mockgen -source=interfaces.go -destination=mocks/mock_dispatch.go -package=mocks

package dispatch

import (
	"context"
	"time"

	"github.com/agbru/riemann/internal/partition"
)

// Backend creates the worker pool a dispatch runs on. A pool is acquired for
// exactly one dispatch and closed when it returns.
type Backend interface {
	// Name identifies the backend in logs, metrics and errors.
	Name() string
	// Open acquires a pool of size workers. Cancelling ctx tears the pool's
	// workers down where the backend supports it.
	Open(ctx context.Context, size int) (Pool, error)
}

// Pool integrates partitions on its workers.
type Pool interface {
	// Integrate computes the partial integral over one partition.
	Integrate(ctx context.Context, p partition.Partition) (float64, error)
	// Close releases every worker. It is called once per dispatch, on every
	// exit path.
	Close() error
}

// Recorder observes dispatches. The metrics package provides a Prometheus
// implementation.
type Recorder interface {
	ObserveDispatch(backend string, jobs int, elapsed time.Duration, err error)
	ObservePartition(backend string, elapsed time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveDispatch(string, int, time.Duration, error) {}
func (nopRecorder) ObservePartition(string, time.Duration, error)     {}
