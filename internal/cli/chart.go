package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/agbru/riemann/internal/bench"
	"github.com/agbru/riemann/internal/ui"
)

var seriesColors = []asciigraph.AnsiColor{asciigraph.DodgerBlue, asciigraph.OrangeRed, asciigraph.Green}

// FormatBenchChart plots the mean run time in milliseconds of each backend
// against its job counts. The x axis is the position in the job list, listed
// in the caption. It returns "" when there is nothing to plot.
func FormatBenchChart(report bench.Report) string {
	backends := report.Backends()
	if len(backends) == 0 {
		return ""
	}

	data := make([][]float64, 0, len(backends))
	var jobs []string
	for _, b := range backends {
		series := report.Series(b)
		points := make([]float64, len(series))
		for i, m := range series {
			points[i] = float64(m.Mean().Microseconds()) / 1000
		}
		// A single point cannot be drawn as a line.
		if len(points) == 1 {
			points = append(points, points[0])
		}
		data = append(data, points)
		if jobs == nil {
			for _, m := range series {
				jobs = append(jobs, strconv.Itoa(m.Jobs))
			}
		}
	}

	opts := []asciigraph.Option{
		asciigraph.Height(10),
		asciigraph.Precision(1),
		asciigraph.Caption(fmt.Sprintf("mean ms per run, n_jobs = %s", strings.Join(jobs, ", "))),
	}
	if ui.IsColorEnabled() {
		opts = append(opts, asciigraph.SeriesColors(seriesColors[:min(len(data), len(seriesColors))]...))
	}

	var sb strings.Builder
	sb.WriteString(asciigraph.PlotMany(data, opts...))
	sb.WriteString("\n")
	for i, b := range backends {
		marker := "─"
		if ui.IsColorEnabled() && i < len(seriesColors) {
			marker = seriesColors[i].String() + "─" + asciigraph.Default.String()
		}
		fmt.Fprintf(&sb, "  %s%s%s %s\n", marker, marker, marker, b)
	}
	return sb.String()
}
