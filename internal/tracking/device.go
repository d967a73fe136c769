package tracking

import "github.com/saviola777/PlusLib/internal/transform"

// SampleRelay is the single entry point through which device drivers hand
// samples to generic per-tool storage. The Tracker implements it.
type SampleRelay interface {
	ToolTimeStampedUpdate(port int, pose *transform.Matrix, status TrackerStatus, frameNumber uint64, timestamp float64) error
}

// Device is the capability contract a concrete tracker driver must
// implement. InternalUpdate is called repeatedly from the acquisition
// goroutine while tracking is active and must call the relay once per tool
// it samples; everything it touches must therefore be safe to use from that
// goroutine.
type Device interface {
	// Connect establishes communication with the hardware.
	Connect() error

	// Disconnect tears communication down. Called after
	// InternalStopTracking during a stop, and during start rollback.
	Disconnect() error

	// InternalStartTracking brings the connected device into full
	// tracking mode.
	InternalStartTracking() error

	// InternalStopTracking returns the device to its ground state.
	InternalStopTracking() error

	// InternalUpdate performs one hardware poll, relaying each sampled
	// tool. A failed poll is reported to the caller but does not itself
	// end tracking.
	InternalUpdate(relay SampleRelay) error
}

// Prober is implemented by devices that support a best-effort connectivity
// check without altering tracking state.
type Prober interface {
	Probe() error
}

// Beeper is implemented by devices that can emit audible beeps.
type Beeper interface {
	InternalBeep(n int) error
}

// LEDController is implemented by devices with controllable LEDs on the
// tracked tools.
type LEDController interface {
	InternalSetToolLED(port int, led int, state LEDState) error
}
