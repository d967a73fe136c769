// Package tracking implements the coordination core of the tracking-device
// abstraction: the start/stop state machine, the background acquisition
// goroutine, the tool-port table and the time-stamped relay through which
// device drivers hand samples to per-tool storage.
package tracking

import (
	"errors"
	"fmt"
	"sync"

	"github.com/saviola777/PlusLib/internal/timeutil"
	"github.com/saviola777/PlusLib/internal/transform"
)

// DefaultFrequency is the acquisition frequency used when none is
// configured, in polls per second.
const DefaultFrequency = 50.0

// Config carries the construction parameters for a Tracker.
type Config struct {
	// Device is the driver the acquisition loop polls. Required.
	Device Device

	// NumberOfTools sizes the tool table at construction. Zero defers
	// sizing to SetNumberOfTools.
	NumberOfTools int

	// StoreFactory creates the per-tool sample stores. Required as soon
	// as the table is sized.
	StoreFactory StoreFactory

	// Frequency is the acquisition frequency in Hz. Defaults to
	// DefaultFrequency.
	Frequency float64

	// MaxConsecutiveErrors stops the acquisition loop after that many
	// failed polls in a row. Zero keeps the loop running through any
	// number of transient failures.
	MaxConsecutiveErrors int

	// Clock is the time source for the acquisition loop. Defaults to the
	// real clock; tests inject a mock.
	Clock timeutil.Clock
}

// Tracker coordinates one tracking device: it owns the tool table, the
// world calibration matrix, the acquisition frequency and the background
// acquisition goroutine, and exposes the thread-safe query surface
// application code reads while tracking runs.
//
// Locking discipline: requestMu serializes StartTracking/StopTracking so
// state transitions are atomic with respect to other callers. updateMu is
// held by the worker only for the duration of each device poll and is the
// rendezvous point (PauseUpdates/ResumeUpdates) for out-of-band hardware
// I/O. mu guards the scalar state shared between the worker and readers.
type Tracker struct {
	device       Device
	clock        timeutil.Clock
	storeFactory StoreFactory

	requestMu sync.Mutex // serializes Start/Stop requests
	updateMu  sync.Mutex // held across each InternalUpdate call

	mu                   sync.RWMutex
	tools                *ToolTable
	frequency            float64
	maxConsecutiveErrors int
	worldCalibration     transform.Matrix
	calibrated           bool
	tracking             bool
	startTime            float64
	updateTime           float64
	internalUpdateRate   float64
	lastAcqErr           error
	stopCh               chan struct{}
	doneCh               chan struct{}
}

// New builds a Tracker in the ground state.
func New(cfg Config) (*Tracker, error) {
	if cfg.Device == nil {
		return nil, fmt.Errorf("%w: a device is required", ErrInvalidArgument)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	freq := cfg.Frequency
	if freq == 0 {
		freq = DefaultFrequency
	}
	if freq < 0 {
		return nil, fmt.Errorf("%w: frequency must be positive, got %g", ErrInvalidArgument, freq)
	}
	if cfg.MaxConsecutiveErrors < 0 {
		return nil, fmt.Errorf("%w: max consecutive errors must not be negative", ErrInvalidArgument)
	}

	t := &Tracker{
		device:               cfg.Device,
		clock:                clock,
		storeFactory:         cfg.StoreFactory,
		frequency:            freq,
		maxConsecutiveErrors: cfg.MaxConsecutiveErrors,
		worldCalibration:     transform.Identity(),
	}
	if cfg.NumberOfTools > 0 {
		if err := t.SetNumberOfTools(cfg.NumberOfTools); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// SetNumberOfTools sizes the tool table. It is a one-time initialization
// hook: resizing an already-sized table is unsupported and fails.
func (t *Tracker) SetNumberOfTools(n int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tools != nil {
		return fmt.Errorf("%w: tool table already sized to %d", ErrInvalidArgument, t.tools.Len())
	}
	table, err := NewToolTable(n, t.storeFactory)
	if err != nil {
		return err
	}
	for _, tool := range table.tools {
		tool.store.SetWorldCalibration(t.worldCalibration)
	}
	t.tools = table
	return nil
}

// NumberOfTools returns the size of the tool table, zero before sizing.
func (t *Tracker) NumberOfTools() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.tools == nil {
		return 0
	}
	return t.tools.Len()
}

// IsTracking reports whether the acquisition goroutine is active.
func (t *Tracker) IsTracking() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tracking
}

// StartTracking brings the device from its ground state into full tracking
// mode and spawns the acquisition goroutine. Starting an already-tracking
// coordinator is idempotent success. On any device failure the coordinator
// is left in the ground state with no goroutine running.
func (t *Tracker) StartTracking() error {
	t.requestMu.Lock()
	defer t.requestMu.Unlock()

	if t.IsTracking() {
		return nil
	}

	t.mu.RLock()
	freq := t.frequency
	sized := t.tools != nil
	t.mu.RUnlock()
	if freq <= 0 {
		return fmt.Errorf("%w: frequency must be positive to track, got %g", ErrInvalidArgument, freq)
	}
	if !sized {
		return fmt.Errorf("%w: tool table has not been sized", ErrInvalidArgument)
	}

	if err := t.device.Connect(); err != nil {
		return fmt.Errorf("connecting device: %w", err)
	}
	if err := t.device.InternalStartTracking(); err != nil {
		// All-or-nothing: undo the connect so no partial state remains.
		if derr := t.device.Disconnect(); derr != nil {
			err = errors.Join(err, fmt.Errorf("disconnecting after failed start: %w", derr))
		}
		return fmt.Errorf("starting device tracking: %w", err)
	}

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	t.mu.Lock()
	t.tracking = true
	t.lastAcqErr = nil
	t.stopCh = stopCh
	t.doneCh = doneCh
	t.mu.Unlock()

	go t.acquisitionLoop(stopCh, doneCh)
	return nil
}

// StopTracking signals the acquisition goroutine, waits for it to exit,
// then returns the device to its ground state. Stopping a coordinator that
// is not tracking is idempotent success.
func (t *Tracker) StopTracking() error {
	t.requestMu.Lock()
	defer t.requestMu.Unlock()

	t.mu.Lock()
	if !t.tracking {
		t.mu.Unlock()
		return nil
	}
	stopCh := t.stopCh
	doneCh := t.doneCh
	t.mu.Unlock()

	close(stopCh)
	<-doneCh

	t.mu.Lock()
	t.tracking = false
	t.stopCh = nil
	t.doneCh = nil
	t.mu.Unlock()

	var err error
	if serr := t.device.InternalStopTracking(); serr != nil {
		err = fmt.Errorf("stopping device tracking: %w", serr)
	}
	if derr := t.device.Disconnect(); derr != nil {
		err = errors.Join(err, fmt.Errorf("disconnecting device: %w", derr))
	}
	return err
}

// Probe performs a best-effort connectivity check without altering tracking
// state. Devices that cannot probe report ErrNotSupported.
func (t *Tracker) Probe() error {
	if p, ok := t.device.(Prober); ok {
		return p.Probe()
	}
	return fmt.Errorf("%w: probe", ErrNotSupported)
}

// Beep asks the device to emit n audible beeps.
func (t *Tracker) Beep(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: beep count must be positive, got %d", ErrInvalidArgument, n)
	}
	if b, ok := t.device.(Beeper); ok {
		return b.InternalBeep(n)
	}
	return fmt.Errorf("%w: beep", ErrNotSupported)
}

// SetToolLED sets one LED on the tool at the given port.
func (t *Tracker) SetToolLED(port int, led int, state LEDState) error {
	if _, err := t.GetTool(port); err != nil {
		return err
	}
	if l, ok := t.device.(LEDController); ok {
		return l.InternalSetToolLED(port, led, state)
	}
	return fmt.Errorf("%w: tool LEDs", ErrNotSupported)
}

// ToolTimeStampedUpdate is the relay every device driver calls once per
// tool per sample from within InternalUpdate. It validates the port,
// appends the sample to the tool's store and advances the coordinator's
// global update time. Safe to call concurrently with read-side queries;
// only ever invoked from the acquisition goroutine.
func (t *Tracker) ToolTimeStampedUpdate(port int, pose *transform.Matrix, status TrackerStatus, frameNumber uint64, timestamp float64) error {
	t.mu.RLock()
	tools := t.tools
	t.mu.RUnlock()
	if tools == nil {
		return fmt.Errorf("%w: tool table has not been sized", ErrInvalidArgument)
	}

	tool, err := tools.Tool(port)
	if err != nil {
		return err
	}
	if err := tool.store.Add(Sample{
		Pose:        pose,
		Status:      status,
		FrameNumber: frameNumber,
		Timestamp:   timestamp,
	}); err != nil {
		return fmt.Errorf("appending sample for port %d: %w", port, err)
	}

	t.mu.Lock()
	if timestamp > t.updateTime {
		t.updateTime = timestamp
	}
	t.mu.Unlock()
	return nil
}

// UpdateTime returns the largest raw timestamp relayed so far. It is
// monotonically non-decreasing across relay calls.
func (t *Tracker) UpdateTime() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.updateTime
}

// InternalUpdateRate returns the measured poll rate of the acquisition
// loop in polls per second, zero before the first measurement.
func (t *Tracker) InternalUpdateRate() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.internalUpdateRate
}

// LastAcquisitionError returns the most recent poll error, or nil. Poll
// errors never tear down tracking by themselves (see MaxConsecutiveErrors).
func (t *Tracker) LastAcquisitionError() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastAcqErr
}

// Frequency returns the acquisition frequency in Hz.
func (t *Tracker) Frequency() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.frequency
}

// SetFrequency changes the acquisition frequency. Rejected while tracking,
// since the worker reads it mid-poll.
func (t *Tracker) SetFrequency(freq float64) error {
	if freq <= 0 {
		return fmt.Errorf("%w: frequency must be positive, got %g", ErrInvalidArgument, freq)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tracking {
		return fmt.Errorf("%w: cannot change frequency while tracking", ErrInvalidArgument)
	}
	t.frequency = freq
	return nil
}

// WorldCalibrationMatrix returns the tracker-to-world transform. The value
// is a copy; mutating it does not affect the coordinator.
func (t *Tracker) WorldCalibrationMatrix() transform.Matrix {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.worldCalibration
}

// SetWorldCalibrationMatrix sets the tracker-to-world transform. The matrix
// is copied, not referenced, and pushed to every tool store for calibrated
// queries. Rejected while tracking.
func (t *Tracker) SetWorldCalibrationMatrix(m transform.Matrix) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tracking {
		return fmt.Errorf("%w: cannot change world calibration while tracking", ErrInvalidArgument)
	}
	t.worldCalibration = m
	if t.tools != nil {
		for _, tool := range t.tools.tools {
			tool.store.SetWorldCalibration(m)
		}
	}
	return nil
}

// TrackerCalibrated reports the tracker-level calibrated flag.
func (t *Tracker) TrackerCalibrated() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.calibrated
}

// SetTrackerCalibrated stores the tracker-level calibrated flag.
func (t *Tracker) SetTrackerCalibrated(calibrated bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calibrated = calibrated
}

// StartTime returns the recording start time shared by all tool stores.
func (t *Tracker) StartTime() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.startTime
}

// SetStartTime sets the recording start time for every tool store.
func (t *Tracker) SetStartTime(startTime float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startTime = startTime
	if t.tools != nil {
		for _, tool := range t.tools.tools {
			tool.store.SetStartTime(startTime)
		}
	}
}

// ClearAllBuffers discards every tool's sample history.
func (t *Tracker) ClearAllBuffers() {
	t.mu.RLock()
	tools := t.tools
	t.mu.RUnlock()
	if tools == nil {
		return
	}
	for _, tool := range tools.tools {
		tool.store.Clear()
	}
}

// PauseUpdates blocks the acquisition loop at its next poll boundary so the
// caller can perform out-of-band hardware I/O. Every PauseUpdates must be
// paired with ResumeUpdates.
func (t *Tracker) PauseUpdates() { t.updateMu.Lock() }

// ResumeUpdates releases the poll boundary lock taken by PauseUpdates.
func (t *Tracker) ResumeUpdates() { t.updateMu.Unlock() }

// DeepCopy reconfigures t as a copy of other: scalar configuration,
// calibration state and an equivalent tool table with its own stores.
// Neither coordinator may be tracking.
func (t *Tracker) DeepCopy(other *Tracker) error {
	if other == nil {
		return fmt.Errorf("%w: nil source tracker", ErrInvalidArgument)
	}
	if t.IsTracking() || other.IsTracking() {
		return fmt.Errorf("%w: cannot deep-copy while tracking", ErrInvalidArgument)
	}

	t.mu.RLock()
	factory := t.storeFactory
	t.mu.RUnlock()

	other.mu.RLock()
	freq := other.frequency
	maxErrs := other.maxConsecutiveErrors
	world := other.worldCalibration
	calibrated := other.calibrated
	startTime := other.startTime
	src := other.tools
	if factory == nil {
		factory = other.storeFactory
	}
	other.mu.RUnlock()

	var table *ToolTable
	if src != nil {
		var err error
		table, err = NewToolTable(src.Len(), factory)
		if err != nil {
			return fmt.Errorf("recreating tool table: %w", err)
		}
		for _, srcTool := range src.tools {
			dst := table.tools[srcTool.port]
			dst.name = srcTool.name
			dst.role = srcTool.role
			dst.enabled = srcTool.enabled
			dst.calibration = srcTool.calibration
			dst.store.SetToolCalibration(srcTool.calibration)
			dst.store.SetWorldCalibration(world)
			dst.store.SetStartTime(startTime)
		}
	}

	t.mu.Lock()
	t.frequency = freq
	t.maxConsecutiveErrors = maxErrs
	t.worldCalibration = world
	t.calibrated = calibrated
	t.startTime = startTime
	t.storeFactory = factory
	t.tools = table
	t.mu.Unlock()
	return nil
}
