// # Naming Conventions
//
//   - Display* functions write formatted output to an [io.Writer].
//   - Format* functions return a string without performing I/O.

package cli

import (
	"fmt"
	"io"
	"math"
	"runtime"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/agbru/riemann/internal/bench"
	"github.com/agbru/riemann/internal/format"
	"github.com/agbru/riemann/internal/ui"
)

// IntegrationResult describes one completed integration.
type IntegrationResult struct {
	Integrand string
	A, B      float64
	NIter     int
	NJobs     int
	Backend   string
	Value     float64
	Duration  time.Duration
}

// DisplayResult prints a single integration result.
func DisplayResult(res IntegrationResult, out io.Writer) {
	s := ui.CurrentStyles()
	fmt.Fprintf(out, "%s %s over [%s, %s]\n",
		s.Title.Render("∫"), s.Value.Render(res.Integrand), formatFloat(res.A), formatFloat(res.B))
	fmt.Fprintf(out, "  %s %s\n", s.Label.Render("value:   "), s.Value.Render(formatValue(res.Value)))
	jobs := ""
	if res.NJobs > 0 {
		jobs = fmt.Sprintf(", n_jobs=%d", res.NJobs)
	}
	fmt.Fprintf(out, "  %s %s (n_iter=%d%s)\n", s.Label.Render("backend: "), res.Backend, res.NIter, jobs)
	if res.Duration > 0 {
		fmt.Fprintf(out, "  %s %s\n", s.Label.Render("time:    "), format.FormatExecutionDuration(res.Duration))
	}
}

// ComparisonRow is one line of the demo comparison.
type ComparisonRow struct {
	Name     string
	Value    float64
	Duration time.Duration
	Err      error
}

// DisplayComparison prints the demo rows against an exact reference value.
func DisplayComparison(rows []ComparisonRow, exact float64, out io.Writer) {
	s := ui.CurrentStyles()
	fmt.Fprintf(out, "\n%s\n", s.Title.Render("Comparison"))

	t := newTable(s).Headers("Method", "Value", "|error|", "Duration", "Status")
	for _, r := range rows {
		if r.Err != nil {
			t.Row(r.Name, "-", "-", "-", s.Error.Render("failed: "+r.Err.Error()))
			continue
		}
		t.Row(r.Name, formatValue(r.Value), strconv.FormatFloat(math.Abs(r.Value-exact), 'e', 2, 64),
			format.FormatExecutionDuration(r.Duration), s.Success.Render("ok"))
	}
	fmt.Fprintln(out, t.Render())
}

// DisplayBenchReport prints the host description and one table row per
// measured configuration.
func DisplayBenchReport(report bench.Report, out io.Writer) {
	s := ui.CurrentStyles()
	h := report.Host
	model := h.Model
	if model == "" {
		model = runtime.GOARCH
	}
	fmt.Fprintf(out, "%s %s, %d logical / %d physical cores, %s RAM, Go %s\n",
		s.Label.Render("host:"), model, h.LogicalCores, h.PhysicalCores,
		format.FormatBytes(h.TotalMemory), runtime.Version())

	t := newTable(s).Headers("Backend", "n_jobs", "Total", "Mean", "Best", "Speedup", "Workers CPU", "Allocated", "CPU%")
	for _, m := range report.Measurements {
		workers := "-"
		if m.ChildCPU.Total() > 0 {
			workers = format.FormatExecutionDuration(m.ChildCPU.Total())
		}
		t.Row(
			m.Backend,
			strconv.Itoa(m.Jobs),
			format.FormatExecutionDuration(m.Total),
			format.FormatExecutionDuration(m.Mean()),
			format.FormatExecutionDuration(m.Best),
			fmt.Sprintf("%.2fx", report.Speedup(m)),
			workers,
			format.FormatBytes(m.Memory.Allocated),
			fmt.Sprintf("%.0f", m.System.CPUPercent),
		)
	}
	fmt.Fprintln(out, t.Render())
	fmt.Fprintf(out, "%s %s\n", s.Dim.Render("sweep time:"), format.FormatExecutionDuration(report.Elapsed))
}

func newTable(s ui.Styles) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Header
			}
			return s.Cell
		})
}

func formatValue(v float64) string { return strconv.FormatFloat(v, 'f', 10, 64) }

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
