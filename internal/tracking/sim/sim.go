// Package sim provides a simulated tracking device: deterministic circular
// tool motion, monotonic frame numbers, and full support for the optional
// probe/beep/LED capabilities. It backs the daemon's dev mode and the core's
// integration tests, standing in for real hardware.
package sim

import (
	"fmt"
	"math"
	"sync"

	"github.com/saviola777/PlusLib/internal/timeutil"
	"github.com/saviola777/PlusLib/internal/tracking"
	"github.com/saviola777/PlusLib/internal/transform"
)

// Device simulates a tracker with a fixed number of tool ports. Each poll
// advances every tool along a circle in the XY plane; each tool orbits at a
// distinct radius so poses are distinguishable.
type Device struct {
	numTools int
	clock    timeutil.Clock

	mu        sync.Mutex
	connected bool
	tracking  bool
	frame     uint64
	beeps     int
	leds      map[ledKey]tracking.LEDState

	// ConnectErr, when set, makes Connect fail. Tests use it to exercise
	// the coordinator's all-or-nothing start.
	ConnectErr error

	// UpdateErr, when set, makes every poll fail until cleared.
	UpdateErr error
}

type ledKey struct {
	port int
	led  int
}

// New creates a simulated device with the given number of tool ports.
func New(numTools int, clock timeutil.Clock) *Device {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Device{
		numTools: numTools,
		clock:    clock,
		leds:     make(map[ledKey]tracking.LEDState),
	}
}

// NumberOfTools returns the simulated port count.
func (d *Device) NumberOfTools() int { return d.numTools }

func (d *Device) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ConnectErr != nil {
		return fmt.Errorf("%w: %v", tracking.ErrHardwareFailure, d.ConnectErr)
	}
	d.connected = true
	return nil
}

func (d *Device) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = false
	return nil
}

func (d *Device) InternalStartTracking() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return fmt.Errorf("%w: start requested while disconnected", tracking.ErrHardwareFailure)
	}
	d.tracking = true
	return nil
}

func (d *Device) InternalStopTracking() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tracking = false
	return nil
}

// InternalUpdate produces one pose sample per tool port. Poses rotate by
// one degree per frame; tool k orbits at radius 10*(k+1) millimetres.
func (d *Device) InternalUpdate(relay tracking.SampleRelay) error {
	d.mu.Lock()
	if d.UpdateErr != nil {
		err := d.UpdateErr
		d.mu.Unlock()
		return fmt.Errorf("%w: %v", tracking.ErrHardwareFailure, err)
	}
	d.frame++
	frame := d.frame
	d.mu.Unlock()

	timestamp := float64(d.clock.Now().UnixNano()) / 1e9
	angle := float64(frame) * math.Pi / 180

	for port := 0; port < d.numTools; port++ {
		radius := 10 * float64(port+1)
		pose := transform.Mul(
			transform.RotationZ(angle),
			transform.Translation(radius, 0, 0),
		)
		if err := relay.ToolTimeStampedUpdate(port, &pose, tracking.StatusOK, frame, timestamp); err != nil {
			return fmt.Errorf("relaying sample for port %d: %w", port, err)
		}
	}
	return nil
}

// Probe reports success whenever the simulator exists.
func (d *Device) Probe() error { return nil }

// InternalBeep counts requested beeps.
func (d *Device) InternalBeep(n int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.beeps += n
	return nil
}

// Beeps returns the total number of beeps requested so far.
func (d *Device) Beeps() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.beeps
}

// InternalSetToolLED records the requested LED state.
func (d *Device) InternalSetToolLED(port, led int, state tracking.LEDState) error {
	if port < 0 || port >= d.numTools {
		return fmt.Errorf("%w: port %d", tracking.ErrOutOfRange, port)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.leds[ledKey{port, led}] = state
	return nil
}

// LEDState returns the last state set for one LED.
func (d *Device) LEDState(port, led int) tracking.LEDState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.leds[ledKey{port, led}]
}

// Frame returns the current frame counter.
func (d *Device) Frame() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frame
}

var (
	_ tracking.Device        = (*Device)(nil)
	_ tracking.Prober        = (*Device)(nil)
	_ tracking.Beeper        = (*Device)(nil)
	_ tracking.LEDController = (*Device)(nil)
)
