package tracking

import "errors"

// Error taxonomy for the tracking core. Callers classify failures with
// errors.Is; device drivers wrap their own failures in ErrHardwareFailure so
// the coordinator can surface them uniformly.
var (
	// ErrInvalidArgument reports a bad name, type, frequency or timestamp.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfRange reports a tool port outside [0, NumberOfTools).
	ErrOutOfRange = errors.New("tool port out of range")

	// ErrNotSupported reports a device hook with no implementation
	// (Probe, Beep, tool LEDs).
	ErrNotSupported = errors.New("not supported by device")

	// ErrHardwareFailure reports a failure at the device layer.
	ErrHardwareFailure = errors.New("hardware failure")

	// ErrNotFound reports a lookup with no matching tool.
	ErrNotFound = errors.New("no matching tool")
)
