package dispatch

import (
	"context"
	"fmt"

	"github.com/agbru/riemann/internal/integrand"
	"github.com/agbru/riemann/internal/partition"
	"github.com/agbru/riemann/internal/riemann"
)

// ThreadBackend runs partitions on goroutines of the calling process. The
// integrand is shared by all workers, not copied.
type ThreadBackend struct {
	F integrand.Func
}

// Name implements Backend.
func (ThreadBackend) Name() string { return "threads" }

// Open implements Backend. The pool is a semaphore with size slots.
func (t ThreadBackend) Open(_ context.Context, size int) (Pool, error) {
	return &threadPool{f: t.F, sem: make(chan struct{}, size)}, nil
}

type threadPool struct {
	f   integrand.Func
	sem chan struct{}
}

// Integrate implements Pool. A panicking integrand is reported as an error
// for its partition instead of taking the process down.
func (p *threadPool) Integrate(ctx context.Context, part partition.Partition) (v float64, err error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	defer func() { <-p.sem }()
	defer func() {
		if r := recover(); r != nil {
			v, err = 0, fmt.Errorf("integrand panicked: %v", r)
		}
	}()
	return riemann.Integrate(p.f, part.A, part.B, part.Iterations)
}

func (p *threadPool) Close() error { return nil }

// Threads integrates f over [a, b] on a goroutine pool of n_jobs workers.
// It applies the same argument validation as Processes.
func Threads(ctx context.Context, f integrand.Func, a, b float64, opts ...Option) (float64, error) {
	return Integrate(ctx, ThreadBackend{F: f}, a, b, opts...)
}
