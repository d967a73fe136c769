package tracking

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// ReportSink receives the sections and tables the coordinator contributes
// to an acquisition report. Rendering is the sink's concern.
type ReportSink interface {
	AddSection(title, body string)
	AddTable(title string, header []string, rows [][]string)
}

// PlotSink renders a named series and returns a reference (path or URL) to
// the produced artifact.
type PlotSink interface {
	PlotSeries(name string, xs, ys []float64) (string, error)
}

// GenerateTrackingDataAcquisitionReport snapshots per-tool buffer
// statistics into the caller-supplied sinks. It is purely additive: buffers
// are read, never reset. The plot sink is optional.
func (t *Tracker) GenerateTrackingDataAcquisitionReport(rep ReportSink, plot PlotSink) error {
	if rep == nil {
		return fmt.Errorf("%w: a report sink is required", ErrInvalidArgument)
	}
	t.mu.RLock()
	tools := t.tools
	freq := t.frequency
	rate := t.internalUpdateRate
	t.mu.RUnlock()
	if tools == nil {
		return fmt.Errorf("%w: tool table has not been sized", ErrInvalidArgument)
	}

	rep.AddSection("Tracking data acquisition",
		fmt.Sprintf("Configured frequency: %g Hz. Measured update rate: %.2f polls/s.", freq, rate))

	header := []string{"Tool", "Role", "Enabled", "Samples", "First (s)", "Last (s)", "Mean period (s)", "Period stddev (s)"}
	rows := make([][]string, 0, tools.Len())
	for _, tool := range tools.tools {
		roleStr, err := ConvertToolTypeToString(tool.role)
		if err != nil {
			return fmt.Errorf("serializing role of tool %q: %w", tool.name, err)
		}

		timestamps := tool.store.Timestamps()
		row := []string{
			tool.name,
			roleStr,
			strconv.FormatBool(tool.enabled),
			strconv.Itoa(len(timestamps)),
			"-", "-", "-", "-",
		}
		if len(timestamps) > 0 {
			row[4] = strconv.FormatFloat(timestamps[0], 'f', 6, 64)
			row[5] = strconv.FormatFloat(timestamps[len(timestamps)-1], 'f', 6, 64)
		}
		if deltas := timestampDeltas(timestamps); len(deltas) > 0 {
			mean, std := stat.MeanStdDev(deltas, nil)
			if math.IsNaN(std) {
				std = 0
			}
			row[6] = strconv.FormatFloat(mean, 'f', 6, 64)
			row[7] = strconv.FormatFloat(std, 'f', 6, 64)
		}
		rows = append(rows, row)

		if plot != nil {
			deltas := timestampDeltas(timestamps)
			if len(deltas) > 0 {
				ref, perr := plot.PlotSeries(fmt.Sprintf("%s-sample-period", tool.name), timestamps[1:], deltas)
				if perr != nil {
					return fmt.Errorf("plotting sample periods of tool %q: %w", tool.name, perr)
				}
				rep.AddSection(fmt.Sprintf("Sample periods: %s", tool.name), ref)
			}
		}
	}
	rep.AddTable("Tool buffers", header, rows)
	return nil
}

// timestampDeltas returns successive differences of the timestamp series.
func timestampDeltas(timestamps []float64) []float64 {
	if len(timestamps) < 2 {
		return nil
	}
	deltas := make([]float64, len(timestamps)-1)
	for i := 1; i < len(timestamps); i++ {
		deltas[i-1] = timestamps[i] - timestamps[i-1]
	}
	return deltas
}
