package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/agbru/riemann/internal/bench"
	"github.com/agbru/riemann/internal/cli"
	"github.com/agbru/riemann/internal/config"
	"github.com/agbru/riemann/internal/dispatch"
	"github.com/agbru/riemann/internal/integrand"
	"github.com/agbru/riemann/internal/logging"
	"github.com/agbru/riemann/internal/metrics"
	"github.com/agbru/riemann/internal/riemann"
)

// Demo parameters: cos over [0, π], whose integral is exactly 0.
const (
	demoIterations = 1_000_000
	demoJobs       = 4
)

func addIntervalFlags(cmd *cobra.Command, def config.AppConfig) {
	f := cmd.Flags()
	f.String("func", def.Integrand, "integrand: name or name:p1,p2,... (e.g. poly:0,0,1)")
	f.Float64("a", def.A, "lower bound")
	f.Float64("b", def.B, "upper bound")
	f.Int("n-iter", def.NIter, "number of rectangles")
}

func (a *Application) newIntegrateCommand(def config.AppConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integrate",
		Short: "Integrate a registered function over [a, b]",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runIntegrate(cmd.Context(), cmd.OutOrStdout())
		},
	}
	addIntervalFlags(cmd, def)
	cmd.Flags().Int("n-jobs", def.NJobs, "number of partitions and workers")
	cmd.Flags().String("backend", def.Backend, "seq, threads or processes")
	return cmd
}

func (a *Application) newDemoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Compare sequential, goroutine and process integration of cos over [0, π]",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDemo(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (a *Application) newBenchCommand(def config.AppConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time the parallel backends over a range of job counts",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBench(cmd.Context(), cmd.OutOrStdout())
		},
	}
	addIntervalFlags(cmd, def)
	f := cmd.Flags()
	f.IntSlice("jobs", def.Bench.Jobs, "job counts to measure")
	f.Int("repeat", def.Bench.Repeat, "runs per job count")
	f.String("backend", def.Bench.Backend, "threads, processes or both")
	f.String("metrics-addr", def.Bench.MetricsAddr, "serve Prometheus metrics on this address until interrupted")
	// Bind --backend to the bench section so it does not collide with
	// integrate's backend.
	_ = config.BindKey(f, "backend", "bench-backend")
	return cmd
}

func (a *Application) dispatchOptions(jobs int, rec dispatch.Recorder) []dispatch.Option {
	opts := []dispatch.Option{
		dispatch.WithIterations(a.config.NIter),
		dispatch.WithJobs(jobs),
		dispatch.WithRemainder(a.config.RemainderPolicy()),
		dispatch.WithLogger(a.logger),
	}
	if rec != nil {
		opts = append(opts, dispatch.WithRecorder(rec))
	}
	return opts
}

func (a *Application) threadBackend(f integrand.Func) dispatch.Backend {
	return dispatch.ThreadBackend{F: f}
}

func (a *Application) processBackend(spec integrand.Spec) dispatch.Backend {
	return dispatch.ProcessBackend{Spec: spec, Registry: a.Registry, Options: a.WorkerOptions}
}

func (a *Application) resolve() (integrand.Spec, integrand.Func, error) {
	spec, err := integrand.Parse(a.config.Integrand)
	if err != nil {
		return spec, nil, err
	}
	f, err := a.Registry.Resolve(spec)
	return spec, f, err
}

func (a *Application) runIntegrate(ctx context.Context, out io.Writer) error {
	cfg := a.config
	spec, f, err := a.resolve()
	if err != nil {
		return err
	}

	res := cli.IntegrationResult{
		Integrand: spec.String(), A: cfg.A, B: cfg.B,
		NIter: cfg.NIter, Backend: cfg.Backend,
	}
	start := time.Now()
	switch cfg.Backend {
	case config.BackendSequential:
		res.Value, err = riemann.Integrate(f, cfg.A, cfg.B, cfg.NIter)
	case config.BackendThreads:
		res.NJobs = cfg.NJobs
		res.Value, err = dispatch.Integrate(ctx, a.threadBackend(f), cfg.A, cfg.B, a.dispatchOptions(cfg.NJobs, nil)...)
	case config.BackendProcesses:
		res.NJobs = cfg.NJobs
		res.Value, err = dispatch.Integrate(ctx, a.processBackend(spec), cfg.A, cfg.B, a.dispatchOptions(cfg.NJobs, nil)...)
	}
	if err != nil {
		return err
	}
	res.Duration = time.Since(start)
	cli.DisplayResult(res, out)
	return nil
}

func (a *Application) runDemo(ctx context.Context, out io.Writer) error {
	spec := integrand.Spec{Name: "cos"}
	fmt.Fprintf(out, "cos over [0, π], n_iter = %d, exact value 0\n", demoIterations)

	opts := []dispatch.Option{
		dispatch.WithIterations(demoIterations),
		dispatch.WithJobs(demoJobs),
		dispatch.WithRemainder(a.config.RemainderPolicy()),
		dispatch.WithLogger(a.logger),
	}
	runs := []struct {
		name string
		run  func() (float64, error)
	}{
		{"sequential", func() (float64, error) {
			return riemann.Integrate(math.Cos, 0, math.Pi, demoIterations)
		}},
		{fmt.Sprintf("threads (%d jobs)", demoJobs), func() (float64, error) {
			return dispatch.Integrate(ctx, a.threadBackend(math.Cos), 0, math.Pi, opts...)
		}},
		{fmt.Sprintf("processes (%d jobs)", demoJobs), func() (float64, error) {
			return dispatch.Integrate(ctx, a.processBackend(spec), 0, math.Pi, opts...)
		}},
	}

	rows := make([]cli.ComparisonRow, 0, len(runs))
	var errs []error
	for _, r := range runs {
		start := time.Now()
		v, err := r.run()
		rows = append(rows, cli.ComparisonRow{Name: r.name, Value: v, Duration: time.Since(start), Err: err})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.name, err))
		}
	}
	cli.DisplayComparison(rows, 0, out)
	return errors.Join(errs...)
}

func (a *Application) runBench(ctx context.Context, out io.Writer) error {
	cfg := a.config
	spec, f, err := a.resolve()
	if err != nil {
		return err
	}

	var rec *metrics.Recorder
	var dispatchRec dispatch.Recorder
	if cfg.Bench.MetricsAddr != "" {
		rec = metrics.NewRecorder()
		dispatchRec = rec
		stop, err := a.serveMetrics(cfg.Bench.MetricsAddr, rec)
		if err != nil {
			return err
		}
		defer stop()
	}

	var cases []bench.Case
	if cfg.Bench.Backend != config.BackendProcesses {
		cases = append(cases, bench.DispatchCase(a.threadBackend(f), cfg.A, cfg.B, a.dispatchOptions(1, dispatchRec)...))
	}
	if cfg.Bench.Backend != config.BackendThreads {
		cases = append(cases, bench.DispatchCase(a.processBackend(spec), cfg.A, cfg.B, a.dispatchOptions(1, dispatchRec)...))
	}

	fmt.Fprintf(out, "%s over [%g, %g], n_iter = %d, %d run(s) per job count\n",
		spec, cfg.A, cfg.B, cfg.NIter, cfg.Bench.Repeat)
	progress := cli.NewBenchProgress(len(cases)*len(cfg.Bench.Jobs), a.ErrWriter)
	report, err := bench.Run(ctx, cases, bench.Options{
		Jobs:    cfg.Bench.Jobs,
		Repeat:  cfg.Bench.Repeat,
		OnStart: progress.Step,
		Logger:  a.logger,
	})
	progress.Stop()
	if err != nil {
		return err
	}

	cli.DisplayBenchReport(report, out)
	fmt.Fprintln(out)
	fmt.Fprint(out, cli.FormatBenchChart(report))

	if rec != nil {
		a.logger.Info("benchmark done, metrics still served until interrupted",
			logging.String("addr", cfg.Bench.MetricsAddr))
		<-ctx.Done()
	}
	return nil
}

// serveMetrics exposes rec on addr under /metrics. The returned function
// shuts the server down.
func (a *Application) serveMetrics(addr string, rec *metrics.Recorder) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening for metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server", err)
		}
	}()
	a.logger.Info("serving metrics", logging.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
