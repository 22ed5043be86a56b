//go:generate mockgen -source=ui.go -destination=mocks/mock_ui.go -package=mocks

package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/riemann/internal/format"
)

const (
	// ProgressRefreshRate is the spinner frame interval.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth is the width in characters of the sweep progress bar.
	ProgressBarWidth = 20
)

// Spinner abstracts a terminal spinner so progress display can be tested
// without a terminal.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner adapts spinner.Spinner to Spinner.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }

func (rs *realSpinner) Stop() { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(out io.Writer) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, spinner.WithWriter(out))
	return &realSpinner{s}
}

// BenchProgress shows a spinner with a progress bar and ETA while a benchmark
// sweep runs. Its Step method fits bench.Options.OnStart.
type BenchProgress struct {
	spinner  Spinner
	progress *format.Progress
	started  bool
}

// NewBenchProgress prepares progress display for total configurations,
// writing to out.
func NewBenchProgress(total int, out io.Writer) *BenchProgress {
	return &BenchProgress{spinner: newSpinner(out), progress: format.NewProgress(total)}
}

// Step announces the configuration about to run. Every call after the first
// also counts the previous configuration as done.
func (bp *BenchProgress) Step(backend string, jobs int) {
	var frac float64
	var eta time.Duration
	if bp.started {
		frac, eta = bp.progress.Advance()
	} else {
		bp.started = true
		bp.spinner.Start()
	}
	bp.spinner.UpdateSuffix(fmt.Sprintf(" %s n_jobs=%d %s", backend, jobs,
		format.FormatProgressBarWithETA(frac, eta, ProgressBarWidth)))
}

// Stop halts the spinner.
func (bp *BenchProgress) Stop() {
	if bp.started {
		bp.spinner.Stop()
	}
}
