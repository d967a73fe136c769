package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PNGPlotter renders series as PNG files in a directory. It implements the
// coordinator's PlotSink contract.
type PNGPlotter struct {
	Dir string
}

// PlotSeries renders one xy series as a PNG and returns its path.
func (p *PNGPlotter) PlotSeries(name string, xs, ys []float64) (string, error) {
	if len(xs) != len(ys) {
		return "", fmt.Errorf("plotting %s: series lengths differ (%d vs %d)", name, len(xs), len(ys))
	}

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}

	pl := plot.New()
	pl.Title.Text = name
	pl.X.Label.Text = "timestamp (s)"
	pl.Y.Label.Text = "value"
	line, err := plotter.NewLine(pts)
	if err != nil {
		return "", fmt.Errorf("plotting %s: %w", name, err)
	}
	pl.Add(plotter.NewGrid(), line)

	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating plot directory: %w", err)
	}
	path := filepath.Join(p.Dir, name+".png")
	if err := pl.Save(16*vg.Centimeter, 10*vg.Centimeter, path); err != nil {
		return "", fmt.Errorf("saving plot %s: %w", name, err)
	}
	return path, nil
}

// ChartPlotter renders series as interactive go-echarts line charts, one
// HTML file per series. It implements the same PlotSink contract as
// PNGPlotter for callers that prefer browsable charts.
type ChartPlotter struct {
	Dir string
}

// PlotSeries renders one xy series as a chart page and returns its path.
func (c *ChartPlotter) PlotSeries(name string, xs, ys []float64) (string, error) {
	if len(xs) != len(ys) {
		return "", fmt.Errorf("charting %s: series lengths differ (%d vs %d)", name, len(xs), len(ys))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: name, Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: name}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "timestamp (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "value"}),
	)

	xAxis := make([]string, len(xs))
	data := make([]opts.LineData, len(ys))
	for i := range xs {
		xAxis[i] = fmt.Sprintf("%.3f", xs[i])
		data[i] = opts.LineData{Value: ys[i]}
	}
	line.SetXAxis(xAxis).AddSeries(name, data)

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating chart directory: %w", err)
	}
	path := filepath.Join(c.Dir, name+".html")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating chart file: %w", err)
	}
	defer f.Close()
	if err := line.Render(f); err != nil {
		return "", fmt.Errorf("rendering chart %s: %w", name, err)
	}
	return path, nil
}
