package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/riemann/internal/errors"
	"github.com/agbru/riemann/internal/logging"
	"github.com/agbru/riemann/internal/parallel"
	"github.com/agbru/riemann/internal/partition"
	"github.com/agbru/riemann/internal/riemann"
)

// DefaultJobs is the number of partitions used when the caller does not
// choose one.
const DefaultJobs = 2

const tracerName = "github.com/agbru/riemann/internal/dispatch"

type settings struct {
	nIter    int
	nJobs    int
	policy   partition.RemainderPolicy
	logger   logging.Logger
	recorder Recorder
}

// Option configures a dispatch.
type Option func(*settings)

// WithIterations sets the total number of rectangles (n_iter).
func WithIterations(n int) Option { return func(s *settings) { s.nIter = n } }

// WithJobs sets the number of partitions and the pool size (n_jobs).
func WithJobs(n int) Option { return func(s *settings) { s.nJobs = n } }

// WithRemainder selects how leftover samples are handled when n_jobs does not
// divide n_iter.
func WithRemainder(p partition.RemainderPolicy) Option { return func(s *settings) { s.policy = p } }

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(l logging.Logger) Option { return func(s *settings) { s.logger = l } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option { return func(s *settings) { s.recorder = r } }

func newSettings(opts []Option) settings {
	s := settings{
		nIter:    riemann.DefaultIterations,
		nJobs:    DefaultJobs,
		policy:   partition.Distribute,
		logger:   logging.Nop,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Integrate approximates the integral over [a, b] by splitting it into
// n_jobs partitions and integrating each on a pool opened from backend.
//
// n_jobs and n_iter are validated before the pool is opened. The interval
// itself is validated by each worker on its own partition, so an invalid
// interval surfaces as a WorkerError wrapping ErrInvalidArgument.
//
// Partial results are summed as they arrive, so the low bits of the result
// may vary from run to run.
func Integrate(ctx context.Context, backend Backend, a, b float64, opts ...Option) (result float64, err error) {
	s := newSettings(opts)
	parts, err := partition.Split(a, b, s.nIter, s.nJobs, s.policy)
	if err != nil {
		return 0, err
	}

	id := uuid.NewString()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "dispatch.Integrate", trace.WithAttributes(
		attribute.String("dispatch.id", id),
		attribute.String("dispatch.backend", backend.Name()),
		attribute.Int("dispatch.n_jobs", s.nJobs),
		attribute.Int("dispatch.n_iter", s.nIter),
		attribute.Float64("dispatch.a", a),
		attribute.Float64("dispatch.b", b),
	))
	start := time.Now()
	log := s.logger
	defer func() {
		elapsed := time.Since(start)
		s.recorder.ObserveDispatch(backend.Name(), s.nJobs, elapsed, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Error("dispatch failed", err, logging.String("dispatch", id))
		} else {
			log.Debug("dispatch done", logging.String("dispatch", id),
				logging.Float64("result", result), logging.Duration("elapsed", elapsed))
		}
		span.End()
	}()

	// Cancelling poolCtx kills process workers still computing after a failure.
	poolCtx, cancelPool := context.WithCancel(ctx)
	defer cancelPool()

	pool, err := backend.Open(poolCtx, s.nJobs)
	if err != nil {
		return 0, apperrors.WrapError(err, "opening %s pool", backend.Name())
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			log.Error("closing pool", cerr, logging.String("dispatch", id))
			if err == nil {
				err = apperrors.WrapError(cerr, "closing %s pool", backend.Name())
				result = 0
			}
		}
	}()

	log.Debug("dispatching", logging.String("dispatch", id), logging.String("backend", backend.Name()),
		logging.Int("n_jobs", s.nJobs), logging.Int("n_iter", partition.TotalIterations(parts)))

	// The first failure is recorded before the pool is cancelled, so the
	// cancellation errors it provokes in other workers are never reported.
	var failure parallel.ErrorCollector
	g, gctx := errgroup.WithContext(poolCtx)
	g.SetLimit(s.nJobs)
	partials := make(chan float64, len(parts))
	for _, p := range parts {
		g.Go(func() error {
			v, err := runPartition(gctx, pool, backend.Name(), p, s)
			if err != nil {
				werr := apperrors.WorkerError{Partition: p.Index, Backend: backend.Name(), Cause: err}
				failure.SetError(werr)
				cancelPool()
				return werr
			}
			partials <- v
			return nil
		})
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- g.Wait()
		close(partials)
	}()

	sum := 0.0
	for v := range partials {
		sum += v
	}
	if err := <-waitErr; err != nil {
		if ferr := failure.Err(); ferr != nil {
			return 0, ferr
		}
		return 0, err
	}
	return sum, nil
}

func runPartition(ctx context.Context, pool Pool, backend string, p partition.Partition, s settings) (float64, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "dispatch.partition", trace.WithAttributes(
		attribute.Int("partition.index", p.Index),
		attribute.Int("partition.iterations", p.Iterations),
	))
	defer span.End()

	start := time.Now()
	v, err := pool.Integrate(ctx, p)
	s.recorder.ObservePartition(backend, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	s.logger.Debug("partition collected", logging.Int("partition", p.Index), logging.Float64("partial", v))
	return v, nil
}
