package dispatch

import (
	"context"

	"github.com/agbru/riemann/internal/integrand"
	"github.com/agbru/riemann/internal/partition"
	"github.com/agbru/riemann/internal/procpool"
)

// ProcessBackend runs partitions in separate worker processes. The integrand
// crosses the process boundary as a Spec and is resolved by each worker.
type ProcessBackend struct {
	Spec integrand.Spec
	// Registry validates Spec before any process is started. Nil means the
	// default registry, which is also what workers resolve against.
	Registry *integrand.Registry
	Options  procpool.Options
}

// Name implements Backend.
func (ProcessBackend) Name() string { return "processes" }

// Open implements Backend. It fails fast on an unresolvable integrand rather
// than letting every worker reject it.
func (pb ProcessBackend) Open(ctx context.Context, size int) (Pool, error) {
	reg := pb.Registry
	if reg == nil {
		reg = integrand.Default()
	}
	if _, err := reg.Resolve(pb.Spec); err != nil {
		return nil, err
	}
	p, err := procpool.Start(ctx, size, pb.Options)
	if err != nil {
		return nil, err
	}
	return &processPool{pool: p, spec: pb.Spec}, nil
}

type processPool struct {
	pool *procpool.Pool
	spec integrand.Spec
}

func (p *processPool) Integrate(ctx context.Context, part partition.Partition) (float64, error) {
	return p.pool.Integrate(ctx, p.spec, part.A, part.B, part.Iterations)
}

func (p *processPool) Close() error { return p.pool.Close() }

// Processes integrates the registered integrand spec over [a, b] on a pool of
// n_jobs worker processes. It applies the same argument validation as Threads.
func Processes(ctx context.Context, spec integrand.Spec, a, b float64, opts ...Option) (float64, error) {
	return Integrate(ctx, ProcessBackend{Spec: spec}, a, b, opts...)
}
