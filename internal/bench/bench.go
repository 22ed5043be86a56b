// Package bench times parallel integrations over a range of job counts, the
// way timeit does: each configuration runs a fixed number of times and the
// total wall time is reported.
package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/agbru/riemann/internal/dispatch"
	"github.com/agbru/riemann/internal/logging"
	"github.com/agbru/riemann/internal/metrics"
	"github.com/agbru/riemann/internal/sysmon"
)

// Runner performs one integration with the given job count.
type Runner func(ctx context.Context, jobs int) (float64, error)

// Case is a named Runner, typically one dispatch backend.
type Case struct {
	Backend string
	Run     Runner
}

// DispatchCase builds a Case that runs dispatch.Integrate on backend with
// opts, overriding the job count on every call.
func DispatchCase(backend dispatch.Backend, a, b float64, opts ...dispatch.Option) Case {
	return Case{
		Backend: backend.Name(),
		Run: func(ctx context.Context, jobs int) (float64, error) {
			o := append(append([]dispatch.Option(nil), opts...), dispatch.WithJobs(jobs))
			return dispatch.Integrate(ctx, backend, a, b, o...)
		},
	}
}

// Options configures Run.
type Options struct {
	Jobs   []int
	Repeat int
	// OnStart is called before each (backend, jobs) configuration.
	OnStart func(backend string, jobs int)
	Logger  logging.Logger
}

// Measurement is the outcome of one (backend, jobs) configuration.
type Measurement struct {
	Backend string
	Jobs    int
	Repeat  int
	Total   time.Duration // sum over Repeat runs
	Best    time.Duration // fastest single run
	Result  float64       // value returned by the last run
	Memory  metrics.MemoryDelta
	// ChildCPU is the CPU time of worker processes reaped during the runs.
	ChildCPU sysmon.CPUTime
	// SelfCPU is the CPU time of this process during the runs.
	SelfCPU sysmon.CPUTime
	System  sysmon.Stats
}

// Mean returns the average wall time of a single run.
func (m Measurement) Mean() time.Duration {
	if m.Repeat == 0 {
		return 0
	}
	return m.Total / time.Duration(m.Repeat)
}

// Report is the result of a benchmark sweep.
type Report struct {
	Host         sysmon.Host
	Started      time.Time
	Elapsed      time.Duration
	Measurements []Measurement
}

// Run times every case at every job count in opts.Jobs, opts.Repeat times
// each. It stops at the first failing run.
func Run(ctx context.Context, cases []Case, opts Options) (Report, error) {
	if opts.Repeat <= 0 {
		return Report{}, fmt.Errorf("bench: repeat must be positive, got %d", opts.Repeat)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop
	}

	report := Report{Host: sysmon.DescribeHost(), Started: time.Now()}
	mc := metrics.NewMemoryCollector()
	sysmon.Sample() // prime the CPU percentage delta

	for _, c := range cases {
		for _, jobs := range opts.Jobs {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			if opts.OnStart != nil {
				opts.OnStart(c.Backend, jobs)
			}
			m, err := measure(ctx, c, jobs, opts.Repeat, mc)
			if err != nil {
				return report, fmt.Errorf("bench %s n_jobs=%d: %w", c.Backend, jobs, err)
			}
			opts.Logger.Debug("bench configuration done",
				logging.String("backend", c.Backend), logging.Int("n_jobs", jobs),
				logging.Duration("total", m.Total), logging.Float64("result", m.Result))
			report.Measurements = append(report.Measurements, m)
		}
	}
	report.Elapsed = time.Since(report.Started)
	return report, nil
}

func measure(ctx context.Context, c Case, jobs, repeat int, mc *metrics.MemoryCollector) (Measurement, error) {
	m := Measurement{Backend: c.Backend, Jobs: jobs, Repeat: repeat}
	memBefore := mc.Snapshot()
	childBefore, _ := sysmon.ChildCPUTime()
	selfBefore, _ := sysmon.SelfCPUTime()

	for i := 0; i < repeat; i++ {
		start := time.Now()
		v, err := c.Run(ctx, jobs)
		elapsed := time.Since(start)
		if err != nil {
			return m, err
		}
		m.Total += elapsed
		if i == 0 || elapsed < m.Best {
			m.Best = elapsed
		}
		m.Result = v
	}

	childAfter, _ := sysmon.ChildCPUTime()
	selfAfter, _ := sysmon.SelfCPUTime()
	m.ChildCPU = childAfter.Sub(childBefore)
	m.SelfCPU = selfAfter.Sub(selfBefore)
	m.Memory = mc.Snapshot().Since(memBefore)
	m.System = sysmon.Sample()
	return m, nil
}

// Backends returns the backend names in the order they were measured.
func (r Report) Backends() []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range r.Measurements {
		if !seen[m.Backend] {
			seen[m.Backend] = true
			names = append(names, m.Backend)
		}
	}
	return names
}

// Series returns the measurements of one backend in job order.
func (r Report) Series(backend string) []Measurement {
	var out []Measurement
	for _, m := range r.Measurements {
		if m.Backend == backend {
			out = append(out, m)
		}
	}
	return out
}

// Speedup returns the total time of the first measurement of m's backend
// divided by m's own total time. It is 1 for the baseline and 0 when the
// backend has no measurement.
func (r Report) Speedup(m Measurement) float64 {
	series := r.Series(m.Backend)
	if len(series) == 0 || m.Total == 0 {
		return 0
	}
	return float64(series[0].Total) / float64(m.Total)
}
