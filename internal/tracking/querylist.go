package tracking

import (
	"errors"
	"fmt"
)

// Read-side query surface for external consumers. Both methods are keyed by
// tool name and safe to call while the acquisition goroutine is appending.

// GetTrackerToolBufferStringList returns, for every tool, the serialized
// pose and status of the buffered sample nearest to timestamp. When
// calibrated is set the tool and world calibration transforms are applied
// to the pose first. Tools with no usable sample at that time report an
// empty pose with their status string.
func (t *Tracker) GetTrackerToolBufferStringList(timestamp float64, calibrated bool) (poses map[string]string, statuses map[string]string, err error) {
	t.mu.RLock()
	tools := t.tools
	t.mu.RUnlock()
	if tools == nil {
		return nil, nil, fmt.Errorf("%w: tool table has not been sized", ErrInvalidArgument)
	}

	poses = make(map[string]string, tools.Len())
	statuses = make(map[string]string, tools.Len())
	for _, tool := range tools.tools {
		var sample Sample
		var qerr error
		if calibrated {
			sample, qerr = tool.store.NearestCalibrated(timestamp)
		} else {
			sample, qerr = tool.store.Nearest(timestamp)
		}
		if qerr != nil {
			if errors.Is(qerr, ErrNotFound) {
				poses[tool.name] = ""
				statuses[tool.name] = "Missing"
				continue
			}
			return nil, nil, fmt.Errorf("querying buffer of tool %q: %w", tool.name, qerr)
		}

		if sample.Pose != nil {
			poses[tool.name] = sample.Pose.String()
		} else {
			poses[tool.name] = ""
		}
		statusStr, serr := ConvertTrackerStatusToString(sample.Status)
		if serr != nil {
			return nil, nil, fmt.Errorf("serializing status of tool %q: %w", tool.name, serr)
		}
		statuses[tool.name] = statusStr
	}
	return poses, statuses, nil
}

// GetTrackerToolCalibrationMatrixStringList returns the serialized
// calibration matrix of every tool, keyed by tool name.
func (t *Tracker) GetTrackerToolCalibrationMatrixStringList() (map[string]string, error) {
	t.mu.RLock()
	tools := t.tools
	t.mu.RUnlock()
	if tools == nil {
		return nil, fmt.Errorf("%w: tool table has not been sized", ErrInvalidArgument)
	}

	matrices := make(map[string]string, tools.Len())
	for _, tool := range tools.tools {
		matrices[tool.name] = tool.calibration.String()
	}
	return matrices, nil
}
