package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agbru/riemann/internal/dispatch"
)

const namespace = "riemann"

var _ dispatch.Recorder = (*Recorder)(nil)

// Recorder exports dispatch and partition timings as Prometheus metrics.
// Each Recorder owns its registry, so several can coexist in one process.
type Recorder struct {
	registry *prometheus.Registry
	handler  http.Handler

	dispatches       *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	dispatchJobs     *prometheus.GaugeVec
	partitions       *prometheus.CounterVec
	partDuration     *prometheus.HistogramVec
}

// NewRecorder creates a recorder with its own registry, including the Go
// runtime and process collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		handler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Parallel integrations, by backend and outcome.",
		}, []string{"backend", "outcome"}),
		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Wall time of a parallel integration including pool setup and teardown.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		}, []string{"backend"}),
		dispatchJobs: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatch_jobs",
			Help:      "Pool size of the most recent dispatch.",
		}, []string{"backend"}),
		partitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partitions_total",
			Help:      "Partitions integrated by workers, by backend and outcome.",
		}, []string{"backend", "outcome"}),
		partDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "partition_duration_seconds",
			Help:      "Time from submitting a partition to receiving its partial result.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
		}, []string{"backend"}),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveDispatch implements dispatch.Recorder.
func (r *Recorder) ObserveDispatch(backend string, jobs int, elapsed time.Duration, err error) {
	r.dispatches.WithLabelValues(backend, outcome(err)).Inc()
	r.dispatchDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
	r.dispatchJobs.WithLabelValues(backend).Set(float64(jobs))
}

// ObservePartition implements dispatch.Recorder.
func (r *Recorder) ObservePartition(backend string, elapsed time.Duration, err error) {
	r.partitions.WithLabelValues(backend, outcome(err)).Inc()
	r.partDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
}

// Registry returns the registry backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler { return r.handler }

// WritePrometheus writes the current metrics to w.
func (r *Recorder) WritePrometheus(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}
