package tracking

import "fmt"

// TrackerStatus describes the device-reported state of one tool sample.
type TrackerStatus int

const (
	// StatusOK means the tool was tracked normally.
	StatusOK TrackerStatus = iota
	// StatusMissing means the tool was not seen by the device at all.
	StatusMissing
	// StatusOutOfView means the tool is connected but outside the
	// device's field of view.
	StatusOutOfView
	// StatusOutOfVolume means the tool is visible but outside the
	// calibrated measurement volume.
	StatusOutOfVolume
	// StatusTimeout means the device did not answer the sample request
	// in time.
	StatusTimeout
)

// ConvertTrackerStatusToString returns the canonical string form of a
// status. Unknown values fail with ErrInvalidArgument rather than guessing.
func ConvertTrackerStatusToString(status TrackerStatus) (string, error) {
	switch status {
	case StatusOK:
		return "OK", nil
	case StatusMissing:
		return "Missing", nil
	case StatusOutOfView:
		return "OutOfView", nil
	case StatusOutOfVolume:
		return "OutOfVolume", nil
	case StatusTimeout:
		return "Timeout", nil
	default:
		return "", fmt.Errorf("%w: unknown tracker status %d", ErrInvalidArgument, status)
	}
}

// ConvertStringToTrackerStatus is the inverse of ConvertTrackerStatusToString.
func ConvertStringToTrackerStatus(s string) (TrackerStatus, error) {
	switch s {
	case "OK":
		return StatusOK, nil
	case "Missing":
		return StatusMissing, nil
	case "OutOfView":
		return StatusOutOfView, nil
	case "OutOfVolume":
		return StatusOutOfVolume, nil
	case "Timeout":
		return StatusTimeout, nil
	default:
		return 0, fmt.Errorf("%w: unknown tracker status %q", ErrInvalidArgument, s)
	}
}

// LEDState is the requested state of a tool LED.
type LEDState int

const (
	LEDOff LEDState = iota
	LEDOn
	LEDFlash
)
