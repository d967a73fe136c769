// Package lineproto implements the tracking device contract for trackers
// that stream samples as ASCII lines over a serial port:
//
//	T,<port>,<status>,<frame>[,m00,m01,...,m33]
//
// Status is one of the canonical status strings (OK, Missing, OutOfView,
// OutOfVolume, Timeout); the 16 matrix elements are present only when the
// device saw the tool. Command traffic shares the port through the serial
// mux: START/STOP for mode changes, B<n> for beeps, L<port>,<led>,<state>
// for tool LEDs.
package lineproto

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/saviola777/PlusLib/internal/monitoring"
	"github.com/saviola777/PlusLib/internal/serialmux"
	"github.com/saviola777/PlusLib/internal/timeutil"
	"github.com/saviola777/PlusLib/internal/tracking"
	"github.com/saviola777/PlusLib/internal/transform"
)

// PortOpener opens the serial port a Device talks through. Injectable so
// tests can supply a TestablePort.
type PortOpener func(path string, mode *serialmux.PortMode) (serialmux.Porter, error)

// Device is a line-protocol tracker driver.
type Device struct {
	path     string
	mode     *serialmux.PortMode
	numTools int
	clock    timeutil.Clock
	open     PortOpener

	mu          sync.Mutex
	mux         *serialmux.Mux
	subID       string
	lines       chan string
	cancel      context.CancelFunc
	monitorDone chan struct{}
}

// New creates a driver for the tracker at the given serial path.
func New(path string, mode *serialmux.PortMode, numTools int, clock timeutil.Clock) *Device {
	if mode == nil {
		mode = serialmux.DefaultPortMode()
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Device{
		path:     path,
		mode:     mode,
		numTools: numTools,
		clock:    clock,
		open:     serialmux.Open,
	}
}

// SetPortOpener replaces the port opener. Must be called before Connect.
func (d *Device) SetPortOpener(open PortOpener) { d.open = open }

// NumberOfTools returns the configured port count.
func (d *Device) NumberOfTools() int { return d.numTools }

// Connect opens the serial port and starts the line monitor.
func (d *Device) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mux != nil {
		return nil
	}

	port, err := d.open(d.path, d.mode)
	if err != nil {
		return fmt.Errorf("%w: %v", tracking.ErrHardwareFailure, err)
	}
	mux := serialmux.New(port)
	subID, lines := mux.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := mux.Monitor(ctx); err != nil && err != context.Canceled {
			monitoring.Logf("lineproto: monitor exited: %v", err)
		}
	}()

	d.mux = mux
	d.subID = subID
	d.lines = lines
	d.cancel = cancel
	d.monitorDone = done
	return nil
}

// Disconnect stops the monitor and closes the port.
func (d *Device) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mux == nil {
		return nil
	}
	d.cancel()
	err := d.mux.Close()
	<-d.monitorDone

	d.mux = nil
	d.subID = ""
	d.lines = nil
	d.cancel = nil
	d.monitorDone = nil
	if err != nil {
		return fmt.Errorf("%w: closing port: %v", tracking.ErrHardwareFailure, err)
	}
	return nil
}

// Probe checks connectivity by opening and closing the port. It does not
// alter tracking state.
func (d *Device) Probe() error {
	d.mu.Lock()
	connected := d.mux != nil
	d.mu.Unlock()
	if connected {
		return nil
	}
	port, err := d.open(d.path, d.mode)
	if err != nil {
		return fmt.Errorf("%w: %v", tracking.ErrHardwareFailure, err)
	}
	return port.Close()
}

// InternalStartTracking switches the device into streaming mode.
func (d *Device) InternalStartTracking() error {
	return d.sendCommand("START")
}

// InternalStopTracking returns the device to its ground state.
func (d *Device) InternalStopTracking() error {
	return d.sendCommand("STOP")
}

// InternalBeep asks the device to beep n times.
func (d *Device) InternalBeep(n int) error {
	return d.sendCommand(fmt.Sprintf("B%d", n))
}

// InternalSetToolLED sets one tool LED.
func (d *Device) InternalSetToolLED(port, led int, state tracking.LEDState) error {
	return d.sendCommand(fmt.Sprintf("L%d,%d,%d", port, led, int(state)))
}

func (d *Device) sendCommand(command string) error {
	d.mu.Lock()
	mux := d.mux
	d.mu.Unlock()
	if mux == nil {
		return fmt.Errorf("%w: device not connected", tracking.ErrHardwareFailure)
	}
	if err := mux.SendCommand(command); err != nil {
		return fmt.Errorf("%w: sending %q: %v", tracking.ErrHardwareFailure, command, err)
	}
	return nil
}

// InternalUpdate drains every buffered line and relays the samples it
// parses. Unparseable lines are logged and skipped so one garbled frame
// does not fail the whole poll. Sample timestamps are host receive time.
func (d *Device) InternalUpdate(relay tracking.SampleRelay) error {
	d.mu.Lock()
	lines := d.lines
	d.mu.Unlock()
	if lines == nil {
		return fmt.Errorf("%w: device not connected", tracking.ErrHardwareFailure)
	}

	timestamp := float64(d.clock.Now().UnixNano()) / 1e9
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return fmt.Errorf("%w: serial stream closed", tracking.ErrHardwareFailure)
			}
			port, status, frame, pose, err := ParseLine(line)
			if err != nil {
				monitoring.Logf("lineproto: skipping line %q: %v", line, err)
				continue
			}
			if port >= d.numTools {
				monitoring.Logf("lineproto: skipping line for unknown port %d", port)
				continue
			}
			if err := relay.ToolTimeStampedUpdate(port, pose, status, frame, timestamp); err != nil {
				return fmt.Errorf("relaying sample for port %d: %w", port, err)
			}
		default:
			return nil
		}
	}
}

// ParseLine parses one protocol line into its sample fields. The pose is
// nil when the status carries no matrix.
func ParseLine(line string) (port int, status tracking.TrackerStatus, frame uint64, pose *transform.Matrix, err error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) < 4 || fields[0] != "T" {
		return 0, 0, 0, nil, fmt.Errorf("malformed sample line")
	}

	port, err = strconv.Atoi(fields[1])
	if err != nil || port < 0 {
		return 0, 0, 0, nil, fmt.Errorf("bad port field %q", fields[1])
	}
	status, err = tracking.ConvertStringToTrackerStatus(fields[2])
	if err != nil {
		return 0, 0, 0, nil, fmt.Errorf("bad status field %q", fields[2])
	}
	frame, err = strconv.ParseUint(fields[3], 10, 64)
	if err != nil {
		return 0, 0, 0, nil, fmt.Errorf("bad frame field %q", fields[3])
	}

	if len(fields) == 4 {
		return port, status, frame, nil, nil
	}
	if len(fields) != 20 {
		return 0, 0, 0, nil, fmt.Errorf("expected 16 matrix elements, got %d", len(fields)-4)
	}
	var m transform.Matrix
	for i := 0; i < 16; i++ {
		v, perr := strconv.ParseFloat(fields[4+i], 64)
		if perr != nil {
			return 0, 0, 0, nil, fmt.Errorf("bad matrix element %d: %v", i, perr)
		}
		m[i] = v
	}
	return port, status, frame, &m, nil
}

var (
	_ tracking.Device        = (*Device)(nil)
	_ tracking.Prober        = (*Device)(nil)
	_ tracking.Beeper        = (*Device)(nil)
	_ tracking.LEDController = (*Device)(nil)
)
