package cli

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/riemann/internal/bench"
	"github.com/agbru/riemann/internal/metrics"
	"github.com/agbru/riemann/internal/sysmon"
	"github.com/agbru/riemann/internal/ui"
)

// MockSpinner records calls for testing.
type MockSpinner struct {
	started  int
	stopped  int
	suffixes []string
}

func (m *MockSpinner) Start()                     { m.started++ }
func (m *MockSpinner) Stop()                      { m.stopped++ }
func (m *MockSpinner) UpdateSuffix(suffix string) { m.suffixes = append(m.suffixes, suffix) }

func noColor(t *testing.T) {
	t.Helper()
	orig := ui.GetCurrentTheme()
	ui.SetCurrentTheme(ui.NoColorTheme)
	t.Cleanup(func() { ui.SetCurrentTheme(orig) })
}

func sampleReport() bench.Report {
	return bench.Report{
		Host:    sysmon.Host{Model: "Test CPU", LogicalCores: 8, PhysicalCores: 4, TotalMemory: 16 << 30},
		Elapsed: 3 * time.Second,
		Measurements: []bench.Measurement{
			{Backend: "threads", Jobs: 1, Repeat: 3, Total: 900 * time.Millisecond, Best: 290 * time.Millisecond,
				Memory: metrics.MemoryDelta{Allocated: 2048}},
			{Backend: "threads", Jobs: 2, Repeat: 3, Total: 450 * time.Millisecond, Best: 140 * time.Millisecond},
			{Backend: "processes", Jobs: 1, Repeat: 3, Total: 1200 * time.Millisecond, Best: 390 * time.Millisecond,
				ChildCPU: sysmon.CPUTime{User: 800 * time.Millisecond, System: 100 * time.Millisecond}},
			{Backend: "processes", Jobs: 2, Repeat: 3, Total: 800 * time.Millisecond, Best: 260 * time.Millisecond},
		},
	}
}

func TestRealSpinner(t *testing.T) {
	t.Parallel()
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(io.Discard))
	rs := &realSpinner{s}

	// Just verify these methods don't panic
	rs.Start()
	rs.UpdateSuffix(" test")
	rs.Stop()
}

func TestBenchProgress(t *testing.T) {
	original := newSpinner
	defer func() { newSpinner = original }()
	mock := &MockSpinner{}
	newSpinner = func(io.Writer) Spinner { return mock }

	bp := NewBenchProgress(2, io.Discard)
	bp.Step("threads", 1)
	bp.Step("threads", 2)
	bp.Stop()

	if mock.started != 1 || mock.stopped != 1 {
		t.Errorf("spinner started %d / stopped %d times, want 1 / 1", mock.started, mock.stopped)
	}
	if len(mock.suffixes) != 2 {
		t.Fatalf("suffixes = %v", mock.suffixes)
	}
	if !strings.Contains(mock.suffixes[0], "threads n_jobs=1") || !strings.Contains(mock.suffixes[0], "0.0%") {
		t.Errorf("first suffix = %q", mock.suffixes[0])
	}
	if !strings.Contains(mock.suffixes[1], "n_jobs=2") || !strings.Contains(mock.suffixes[1], "50.0%") {
		t.Errorf("second suffix = %q", mock.suffixes[1])
	}
}

func TestBenchProgress_StopWithoutStart(t *testing.T) {
	original := newSpinner
	defer func() { newSpinner = original }()
	mock := &MockSpinner{}
	newSpinner = func(io.Writer) Spinner { return mock }

	NewBenchProgress(3, io.Discard).Stop()
	if mock.stopped != 0 {
		t.Error("Stop should not stop a spinner that never started")
	}
}

func TestDisplayResult(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer
	DisplayResult(IntegrationResult{
		Integrand: "cos", A: 0, B: 3.14, NIter: 1000, NJobs: 4,
		Backend: "threads", Value: 0.0015926, Duration: 12 * time.Millisecond,
	}, &buf)

	out := buf.String()
	for _, want := range []string{"cos over [0, 3.14]", "0.0015926000", "threads (n_iter=1000, n_jobs=4)", "12ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDisplayResult_Sequential(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer
	DisplayResult(IntegrationResult{Integrand: "sin", A: 0, B: 1, NIter: 10, Backend: "seq"}, &buf)
	out := buf.String()
	if strings.Contains(out, "n_jobs") || strings.Contains(out, "time:") {
		t.Errorf("sequential result should omit n_jobs and an unmeasured time:\n%s", out)
	}
}

func TestDisplayComparison(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer
	DisplayComparison([]ComparisonRow{
		{Name: "sequential", Value: 1e-6, Duration: 40 * time.Millisecond},
		{Name: "processes (4 jobs)", Err: errors.New("fork failed")},
	}, 0, &buf)

	out := buf.String()
	for _, want := range []string{"Comparison", "Method", "|error|", "sequential", "1.00e-06", "40ms", "ok", "failed: fork failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDisplayBenchReport(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer
	DisplayBenchReport(sampleReport(), &buf)

	out := buf.String()
	for _, want := range []string{
		"Test CPU", "8 logical / 4 physical", "16.0 GiB",
		"Backend", "Speedup", "threads", "processes",
		"900ms", "2.00x", "1.50x", "900ms", "2.0 KiB", "sweep time: 3s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatBenchChart(t *testing.T) {
	noColor(t)
	chart := FormatBenchChart(sampleReport())
	for _, want := range []string{"mean ms per run, n_jobs = 1, 2", "─── threads", "─── processes"} {
		if !strings.Contains(chart, want) {
			t.Errorf("chart missing %q:\n%s", want, chart)
		}
	}
	if strings.Contains(chart, "\033[") {
		t.Error("chart should not contain escape sequences without color")
	}
}

func TestFormatBenchChart_Edges(t *testing.T) {
	noColor(t)
	if got := FormatBenchChart(bench.Report{}); got != "" {
		t.Errorf("empty report chart = %q", got)
	}
	single := bench.Report{Measurements: []bench.Measurement{{Backend: "threads", Jobs: 4, Repeat: 1, Total: time.Millisecond}}}
	if got := FormatBenchChart(single); !strings.Contains(got, "n_jobs = 4") {
		t.Errorf("single point chart = %q", got)
	}
}
