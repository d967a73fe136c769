package tracking_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/saviola777/PlusLib/internal/tracking"
	"github.com/saviola777/PlusLib/internal/tracking/buffer"
	"github.com/saviola777/PlusLib/internal/tracking/sim"
	"github.com/saviola777/PlusLib/internal/transform"
)

// fakeDevice is a bare Device with injectable failures and call counters.
// Unlike the simulator it implements none of the optional capabilities.
type fakeDevice struct {
	mu          sync.Mutex
	connectErr  error
	startErr    error
	connects    int
	disconnects int
	starts      int
	stops       int
	updates     int
}

func (d *fakeDevice) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.connectErr != nil {
		return d.connectErr
	}
	d.connects++
	return nil
}

func (d *fakeDevice) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disconnects++
	return nil
}

func (d *fakeDevice) InternalStartTracking() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.startErr != nil {
		return d.startErr
	}
	d.starts++
	return nil
}

func (d *fakeDevice) InternalStopTracking() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stops++
	return nil
}

func (d *fakeDevice) InternalUpdate(relay tracking.SampleRelay) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updates++
	return nil
}

func (d *fakeDevice) counts() (connects, disconnects, starts, stops int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connects, d.disconnects, d.starts, d.stops
}

// newSimTracker builds a coordinator over the simulator, ready to start.
func newSimTracker(t *testing.T, numTools int, freq float64) (*tracking.Tracker, *sim.Device) {
	t.Helper()
	dev := sim.New(numTools, nil)
	tr, err := tracking.New(tracking.Config{
		Device:        dev,
		NumberOfTools: numTools,
		StoreFactory:  buffer.Factory(64),
		Frequency:     freq,
	})
	if err != nil {
		t.Fatalf("New returned unexpected error: %v", err)
	}
	return tr, dev
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestNewValidation(t *testing.T) {
	if _, err := tracking.New(tracking.Config{}); !errors.Is(err, tracking.ErrInvalidArgument) {
		t.Errorf("New without device returned %v, expected ErrInvalidArgument", err)
	}

	dev := sim.New(1, nil)
	if _, err := tracking.New(tracking.Config{Device: dev, Frequency: -1}); !errors.Is(err, tracking.ErrInvalidArgument) {
		t.Errorf("New with negative frequency returned %v, expected ErrInvalidArgument", err)
	}
	if _, err := tracking.New(tracking.Config{Device: dev, NumberOfTools: 2}); !errors.Is(err, tracking.ErrInvalidArgument) {
		t.Errorf("New with tools but no store factory returned %v, expected ErrInvalidArgument", err)
	}

	tr, err := tracking.New(tracking.Config{Device: dev})
	if err != nil {
		t.Fatalf("New returned unexpected error: %v", err)
	}
	if tr.Frequency() != tracking.DefaultFrequency {
		t.Errorf("default frequency = %g, expected %g", tr.Frequency(), tracking.DefaultFrequency)
	}
	if tr.NumberOfTools() != 0 {
		t.Errorf("NumberOfTools before sizing = %d, expected 0", tr.NumberOfTools())
	}
}

func TestSetNumberOfToolsIsOneTime(t *testing.T) {
	tr, _ := newSimTracker(t, 2, 100)

	if err := tr.SetNumberOfTools(3); !errors.Is(err, tracking.ErrInvalidArgument) {
		t.Errorf("resizing a sized table returned %v, expected ErrInvalidArgument", err)
	}
	if tr.NumberOfTools() != 2 {
		t.Errorf("NumberOfTools after rejected resize = %d, expected 2", tr.NumberOfTools())
	}
}

func TestDefaultToolTable(t *testing.T) {
	tr, _ := newSimTracker(t, 3, 100)

	for port := 0; port < 3; port++ {
		tool, err := tr.GetTool(port)
		if err != nil {
			t.Fatalf("GetTool(%d) returned unexpected error: %v", port, err)
		}
		if tool.Port() != port {
			t.Errorf("tool port = %d, expected %d", tool.Port(), port)
		}
		expectedName := []string{"Tool0", "Tool1", "Tool2"}[port]
		if tool.Name() != expectedName {
			t.Errorf("tool name = %q, expected %q", tool.Name(), expectedName)
		}
		if tool.Role() != tracking.RoleNone {
			t.Errorf("tool role = %v, expected RoleNone", tool.Role())
		}
		if !tool.Enabled() {
			t.Errorf("tool %d not enabled by default", port)
		}
		if !transform.Equal(tool.CalibrationMatrix(), transform.Identity(), 0) {
			t.Errorf("tool %d calibration is not identity", port)
		}
	}
}

func TestGetToolStableIdentity(t *testing.T) {
	tr, _ := newSimTracker(t, 2, 100)

	a, err := tr.GetTool(1)
	if err != nil {
		t.Fatalf("GetTool returned unexpected error: %v", err)
	}
	b, err := tr.GetTool(1)
	if err != nil {
		t.Fatalf("GetTool returned unexpected error: %v", err)
	}
	if a != b {
		t.Error("repeated GetTool calls returned different tool identities")
	}

	if _, err := tr.GetTool(2); !errors.Is(err, tracking.ErrOutOfRange) {
		t.Errorf("GetTool(2) returned %v, expected ErrOutOfRange", err)
	}
	if _, err := tr.GetTool(-1); !errors.Is(err, tracking.ErrOutOfRange) {
		t.Errorf("GetTool(-1) returned %v, expected ErrOutOfRange", err)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	tr, _ := newSimTracker(t, 2, 200)

	if tr.IsTracking() {
		t.Fatal("tracker reports tracking before start")
	}
	if err := tr.StopTracking(); err != nil {
		t.Errorf("StopTracking while stopped returned %v, expected nil", err)
	}

	if err := tr.StartTracking(); err != nil {
		t.Fatalf("StartTracking returned unexpected error: %v", err)
	}
	if !tr.IsTracking() {
		t.Fatal("tracker does not report tracking after start")
	}
	if err := tr.StartTracking(); err != nil {
		t.Errorf("second StartTracking returned %v, expected nil", err)
	}

	// Every enabled tool must accumulate samples while tracking runs.
	waitFor(t, 2*time.Second, func() bool {
		for port := 0; port < 2; port++ {
			tool, err := tr.GetTool(port)
			if err != nil || tool.Store().Len() < 2 {
				return false
			}
		}
		return true
	}, "tools did not accumulate samples while tracking")

	if err := tr.StopTracking(); err != nil {
		t.Fatalf("StopTracking returned unexpected error: %v", err)
	}
	if tr.IsTracking() {
		t.Error("tracker still reports tracking after stop")
	}
	if tr.UpdateTime() <= 0 {
		t.Errorf("UpdateTime = %g, expected > 0 after acquisition", tr.UpdateTime())
	}
	if tr.InternalUpdateRate() <= 0 {
		t.Errorf("InternalUpdateRate = %g, expected > 0 after acquisition", tr.InternalUpdateRate())
	}

	if err := tr.StopTracking(); err != nil {
		t.Errorf("second StopTracking returned %v, expected nil", err)
	}
}

func TestStartRequiresSizedTable(t *testing.T) {
	tr, err := tracking.New(tracking.Config{Device: sim.New(1, nil), Frequency: 100})
	if err != nil {
		t.Fatalf("New returned unexpected error: %v", err)
	}
	if err := tr.StartTracking(); !errors.Is(err, tracking.ErrInvalidArgument) {
		t.Errorf("StartTracking without a table returned %v, expected ErrInvalidArgument", err)
	}
	if tr.IsTracking() {
		t.Error("tracker reports tracking after a failed start")
	}
}

func TestStartConnectFailure(t *testing.T) {
	tr, dev := newSimTracker(t, 1, 100)
	dev.ConnectErr = errors.New("cable unplugged")

	err := tr.StartTracking()
	if !errors.Is(err, tracking.ErrHardwareFailure) {
		t.Errorf("StartTracking returned %v, expected ErrHardwareFailure", err)
	}
	if tr.IsTracking() {
		t.Error("tracker reports tracking after a failed connect")
	}

	// The device must be startable once the fault clears.
	dev.ConnectErr = nil
	if err := tr.StartTracking(); err != nil {
		t.Fatalf("StartTracking after clearing fault returned %v", err)
	}
	if err := tr.StopTracking(); err != nil {
		t.Fatalf("StopTracking returned unexpected error: %v", err)
	}
}

func TestStartRollsBackOnDeviceStartFailure(t *testing.T) {
	dev := &fakeDevice{startErr: errors.New("mode change refused")}
	tr, err := tracking.New(tracking.Config{
		Device:        dev,
		NumberOfTools: 1,
		StoreFactory:  buffer.Factory(8),
		Frequency:     100,
	})
	if err != nil {
		t.Fatalf("New returned unexpected error: %v", err)
	}

	if err := tr.StartTracking(); err == nil {
		t.Fatal("StartTracking did not report the device start failure")
	}
	if tr.IsTracking() {
		t.Error("tracker reports tracking after a failed device start")
	}

	connects, disconnects, starts, _ := dev.counts()
	if connects != 1 || disconnects != 1 {
		t.Errorf("connects/disconnects = %d/%d, expected 1/1 (all-or-nothing rollback)", connects, disconnects)
	}
	if starts != 0 {
		t.Errorf("successful starts = %d, expected 0", starts)
	}
}

func TestCapabilitiesNotSupported(t *testing.T) {
	dev := &fakeDevice{}
	tr, err := tracking.New(tracking.Config{
		Device:        dev,
		NumberOfTools: 1,
		StoreFactory:  buffer.Factory(8),
	})
	if err != nil {
		t.Fatalf("New returned unexpected error: %v", err)
	}

	if err := tr.Probe(); !errors.Is(err, tracking.ErrNotSupported) {
		t.Errorf("Probe on a bare device returned %v, expected ErrNotSupported", err)
	}
	if err := tr.Beep(1); !errors.Is(err, tracking.ErrNotSupported) {
		t.Errorf("Beep on a bare device returned %v, expected ErrNotSupported", err)
	}
	if err := tr.SetToolLED(0, 0, tracking.LEDOn); !errors.Is(err, tracking.ErrNotSupported) {
		t.Errorf("SetToolLED on a bare device returned %v, expected ErrNotSupported", err)
	}
}

func TestCapabilitiesOnSimulator(t *testing.T) {
	tr, dev := newSimTracker(t, 2, 100)

	if err := tr.Probe(); err != nil {
		t.Errorf("Probe returned unexpected error: %v", err)
	}

	if err := tr.Beep(0); !errors.Is(err, tracking.ErrInvalidArgument) {
		t.Errorf("Beep(0) returned %v, expected ErrInvalidArgument", err)
	}
	if err := tr.Beep(3); err != nil {
		t.Errorf("Beep returned unexpected error: %v", err)
	}
	if dev.Beeps() != 3 {
		t.Errorf("device beeps = %d, expected 3", dev.Beeps())
	}

	if err := tr.SetToolLED(5, 0, tracking.LEDOn); !errors.Is(err, tracking.ErrOutOfRange) {
		t.Errorf("SetToolLED on unknown port returned %v, expected ErrOutOfRange", err)
	}
	if err := tr.SetToolLED(1, 2, tracking.LEDFlash); err != nil {
		t.Errorf("SetToolLED returned unexpected error: %v", err)
	}
	if got := dev.LEDState(1, 2); got != tracking.LEDFlash {
		t.Errorf("device LED state = %v, expected LEDFlash", got)
	}
}

func TestToolTimeStampedUpdate(t *testing.T) {
	tr, _ := newSimTracker(t, 2, 100)
	pose := transform.Translation(1, 2, 3)

	if err := tr.ToolTimeStampedUpdate(0, &pose, tracking.StatusOK, 7, 100.5); err != nil {
		t.Fatalf("relay returned unexpected error: %v", err)
	}
	tool, err := tr.GetTool(0)
	if err != nil {
		t.Fatalf("GetTool returned unexpected error: %v", err)
	}
	latest, err := tool.Store().Latest()
	if err != nil {
		t.Fatalf("Latest returned unexpected error: %v", err)
	}
	if latest.FrameNumber != 7 || latest.Timestamp != 100.5 {
		t.Errorf("stored sample = frame %d at %g, expected frame 7 at 100.5", latest.FrameNumber, latest.Timestamp)
	}
	if tr.UpdateTime() != 100.5 {
		t.Errorf("UpdateTime = %g, expected 100.5", tr.UpdateTime())
	}
}

func TestToolTimeStampedUpdateOutOfRange(t *testing.T) {
	tr, _ := newSimTracker(t, 2, 100)

	err := tr.ToolTimeStampedUpdate(2, nil, tracking.StatusOK, 1, 1.0)
	if !errors.Is(err, tracking.ErrOutOfRange) {
		t.Errorf("relay to port 2 returned %v, expected ErrOutOfRange", err)
	}
	for port := 0; port < 2; port++ {
		tool, gerr := tr.GetTool(port)
		if gerr != nil {
			t.Fatalf("GetTool returned unexpected error: %v", gerr)
		}
		if tool.Store().Len() != 0 {
			t.Errorf("port %d store has %d samples after rejected relay, expected 0", port, tool.Store().Len())
		}
	}
	if tr.UpdateTime() != 0 {
		t.Errorf("UpdateTime = %g after rejected relay, expected 0", tr.UpdateTime())
	}
}

func TestUpdateTimeMonotonic(t *testing.T) {
	tr, _ := newSimTracker(t, 1, 100)

	timestamps := []float64{5.0, 7.5, 6.0, 7.4}
	for i, ts := range timestamps {
		if err := tr.ToolTimeStampedUpdate(0, nil, tracking.StatusOK, uint64(i), ts); err != nil {
			t.Fatalf("relay returned unexpected error: %v", err)
		}
	}
	if tr.UpdateTime() != 7.5 {
		t.Errorf("UpdateTime = %g, expected the maximum 7.5", tr.UpdateTime())
	}
}

func TestSettersRejectedWhileTracking(t *testing.T) {
	tr, _ := newSimTracker(t, 2, 100)

	if err := tr.StartTracking(); err != nil {
		t.Fatalf("StartTracking returned unexpected error: %v", err)
	}
	defer tr.StopTracking()

	cases := []struct {
		name string
		call func() error
	}{
		{"SetFrequency", func() error { return tr.SetFrequency(60) }},
		{"SetToolName", func() error { return tr.SetToolName(0, "Probe") }},
		{"SetToolRole", func() error { return tr.SetToolRole(0, tracking.RoleProbe) }},
		{"SetToolEnabled", func() error { return tr.SetToolEnabled(0, false) }},
		{"SetToolCalibrationMatrix", func() error {
			return tr.SetToolCalibrationMatrix(0, transform.Translation(1, 0, 0))
		}},
		{"SetWorldCalibrationMatrix", func() error {
			return tr.SetWorldCalibrationMatrix(transform.Translation(1, 0, 0))
		}},
	}
	for _, tc := range cases {
		if err := tc.call(); !errors.Is(err, tracking.ErrInvalidArgument) {
			t.Errorf("%s while tracking returned %v, expected ErrInvalidArgument", tc.name, err)
		}
	}
}

func TestMaxConsecutiveErrorsStopsLoop(t *testing.T) {
	dev := sim.New(1, nil)
	dev.UpdateErr = errors.New("sensor fault")
	tr, err := tracking.New(tracking.Config{
		Device:               dev,
		NumberOfTools:        1,
		StoreFactory:         buffer.Factory(8),
		Frequency:            500,
		MaxConsecutiveErrors: 3,
	})
	if err != nil {
		t.Fatalf("New returned unexpected error: %v", err)
	}

	if err := tr.StartTracking(); err != nil {
		t.Fatalf("StartTracking returned unexpected error: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		return errors.Is(tr.LastAcquisitionError(), tracking.ErrHardwareFailure)
	}, "acquisition loop did not report hardware failure after repeated poll errors")

	// The state machine stays in tracking until an explicit stop.
	if !tr.IsTracking() {
		t.Error("tracker left tracking state without StopTracking")
	}
	if err := tr.StopTracking(); err != nil {
		t.Fatalf("StopTracking returned unexpected error: %v", err)
	}
}

func TestTransientErrorsDoNotStopLoop(t *testing.T) {
	dev := sim.New(1, nil)
	dev.UpdateErr = errors.New("transient fault")
	tr, err := tracking.New(tracking.Config{
		Device:        dev,
		NumberOfTools: 1,
		StoreFactory:  buffer.Factory(64),
		Frequency:     500,
	})
	if err != nil {
		t.Fatalf("New returned unexpected error: %v", err)
	}

	if err := tr.StartTracking(); err != nil {
		t.Fatalf("StartTracking returned unexpected error: %v", err)
	}
	defer tr.StopTracking()

	waitFor(t, 2*time.Second, func() bool {
		return tr.LastAcquisitionError() != nil
	}, "poll error was not recorded")

	// Clearing the fault lets acquisition resume: MaxConsecutiveErrors of
	// zero means the loop never gives up.
	dev.UpdateErr = nil
	tool, err := tr.GetTool(0)
	if err != nil {
		t.Fatalf("GetTool returned unexpected error: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool {
		return tool.Store().Len() >= 2
	}, "acquisition did not resume after the fault cleared")
}

func TestPauseUpdates(t *testing.T) {
	tr, dev := newSimTracker(t, 1, 500)

	if err := tr.StartTracking(); err != nil {
		t.Fatalf("StartTracking returned unexpected error: %v", err)
	}
	defer tr.StopTracking()

	waitFor(t, 2*time.Second, func() bool { return dev.Frame() >= 2 }, "simulator produced no frames")

	tr.PauseUpdates()
	frozen := dev.Frame()
	time.Sleep(20 * time.Millisecond)
	if got := dev.Frame(); got != frozen {
		tr.ResumeUpdates()
		t.Fatalf("device polled while paused: frame %d, expected %d", got, frozen)
	}
	tr.ResumeUpdates()

	waitFor(t, 2*time.Second, func() bool { return dev.Frame() > frozen }, "acquisition did not resume after ResumeUpdates")
}

func TestClearAllBuffers(t *testing.T) {
	tr, _ := newSimTracker(t, 2, 100)
	for port := 0; port < 2; port++ {
		if err := tr.ToolTimeStampedUpdate(port, nil, tracking.StatusOK, 1, 1.0); err != nil {
			t.Fatalf("relay returned unexpected error: %v", err)
		}
	}

	tr.ClearAllBuffers()
	for port := 0; port < 2; port++ {
		tool, err := tr.GetTool(port)
		if err != nil {
			t.Fatalf("GetTool returned unexpected error: %v", err)
		}
		if tool.Store().Len() != 0 {
			t.Errorf("port %d store has %d samples after ClearAllBuffers", port, tool.Store().Len())
		}
	}
}

func TestStartTimePropagatesToStores(t *testing.T) {
	var stores []*buffer.Buffer
	dev := sim.New(2, nil)
	tr, err := tracking.New(tracking.Config{
		Device:        dev,
		NumberOfTools: 2,
		StoreFactory: func(port int) tracking.SampleStore {
			b := buffer.New(8)
			stores = append(stores, b)
			return b
		},
	})
	if err != nil {
		t.Fatalf("New returned unexpected error: %v", err)
	}

	tr.SetStartTime(42.5)
	if tr.StartTime() != 42.5 {
		t.Errorf("StartTime = %g, expected 42.5", tr.StartTime())
	}
	for i, b := range stores {
		if b.StartTime() != 42.5 {
			t.Errorf("store %d StartTime = %g, expected 42.5", i, b.StartTime())
		}
	}
}

func TestTrackerCalibratedFlag(t *testing.T) {
	tr, _ := newSimTracker(t, 1, 100)

	if tr.TrackerCalibrated() {
		t.Error("tracker reports calibrated by default")
	}
	tr.SetTrackerCalibrated(true)
	if !tr.TrackerCalibrated() {
		t.Error("SetTrackerCalibrated(true) did not stick")
	}
}

func TestDeepCopy(t *testing.T) {
	src, _ := newSimTracker(t, 2, 100)
	if err := src.SetToolName(0, "Reference"); err != nil {
		t.Fatalf("SetToolName returned unexpected error: %v", err)
	}
	if err := src.SetToolRole(0, tracking.RoleReference); err != nil {
		t.Fatalf("SetToolRole returned unexpected error: %v", err)
	}
	if err := src.SetToolEnabled(1, false); err != nil {
		t.Fatalf("SetToolEnabled returned unexpected error: %v", err)
	}
	calibration := transform.Translation(0, 0, 50)
	if err := src.SetToolCalibrationMatrix(0, calibration); err != nil {
		t.Fatalf("SetToolCalibrationMatrix returned unexpected error: %v", err)
	}
	world := transform.Translation(1, 2, 3)
	if err := src.SetWorldCalibrationMatrix(world); err != nil {
		t.Fatalf("SetWorldCalibrationMatrix returned unexpected error: %v", err)
	}
	if err := src.SetFrequency(77); err != nil {
		t.Fatalf("SetFrequency returned unexpected error: %v", err)
	}
	src.SetTrackerCalibrated(true)
	src.SetStartTime(9.5)

	dst, _ := newSimTracker(t, 2, 100)
	if err := dst.DeepCopy(src); err != nil {
		t.Fatalf("DeepCopy returned unexpected error: %v", err)
	}

	if dst.Frequency() != 77 {
		t.Errorf("copied frequency = %g, expected 77", dst.Frequency())
	}
	if !dst.TrackerCalibrated() {
		t.Error("calibrated flag was not copied")
	}
	if dst.StartTime() != 9.5 {
		t.Errorf("copied start time = %g, expected 9.5", dst.StartTime())
	}
	if !transform.Equal(dst.WorldCalibrationMatrix(), world, 0) {
		t.Error("world calibration was not copied")
	}

	tool, err := dst.GetTool(0)
	if err != nil {
		t.Fatalf("GetTool returned unexpected error: %v", err)
	}
	if tool.Name() != "Reference" || tool.Role() != tracking.RoleReference {
		t.Errorf("copied tool 0 = %q/%v, expected Reference/RoleReference", tool.Name(), tool.Role())
	}
	if !transform.Equal(tool.CalibrationMatrix(), calibration, 0) {
		t.Error("tool calibration was not copied")
	}
	tool1, err := dst.GetTool(1)
	if err != nil {
		t.Fatalf("GetTool returned unexpected error: %v", err)
	}
	if tool1.Enabled() {
		t.Error("disabled state of tool 1 was not copied")
	}

	// The copy must be independent of the source.
	if err := src.SetToolName(0, "Renamed"); err != nil {
		t.Fatalf("SetToolName returned unexpected error: %v", err)
	}
	if tool.Name() != "Reference" {
		t.Error("renaming the source tool changed the copy")
	}

	srcTool, err := src.GetTool(0)
	if err != nil {
		t.Fatalf("GetTool returned unexpected error: %v", err)
	}
	if srcTool.Store() == tool.Store() {
		t.Error("copied tool shares its sample store with the source")
	}
}

func TestDeepCopyRejectedWhileTracking(t *testing.T) {
	src, _ := newSimTracker(t, 1, 100)
	dst, _ := newSimTracker(t, 1, 100)

	if err := src.StartTracking(); err != nil {
		t.Fatalf("StartTracking returned unexpected error: %v", err)
	}
	defer src.StopTracking()

	if err := dst.DeepCopy(src); !errors.Is(err, tracking.ErrInvalidArgument) {
		t.Errorf("DeepCopy from a tracking source returned %v, expected ErrInvalidArgument", err)
	}
	if err := dst.DeepCopy(nil); !errors.Is(err, tracking.ErrInvalidArgument) {
		t.Errorf("DeepCopy from nil returned %v, expected ErrInvalidArgument", err)
	}
}

func TestSimulatedAcquisitionPoses(t *testing.T) {
	tr, _ := newSimTracker(t, 2, 500)

	if err := tr.StartTracking(); err != nil {
		t.Fatalf("StartTracking returned unexpected error: %v", err)
	}
	tool, err := tr.GetTool(1)
	if err != nil {
		t.Fatalf("GetTool returned unexpected error: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return tool.Store().Len() >= 3 }, "no samples acquired")
	if err := tr.StopTracking(); err != nil {
		t.Fatalf("StopTracking returned unexpected error: %v", err)
	}

	latest, err := tool.Store().Latest()
	if err != nil {
		t.Fatalf("Latest returned unexpected error: %v", err)
	}
	if latest.Pose == nil {
		t.Fatal("simulated sample has no pose")
	}
	if !transform.IsRigid(*latest.Pose) {
		t.Errorf("simulated pose is not rigid: %v", *latest.Pose)
	}
	if latest.Status != tracking.StatusOK {
		t.Errorf("simulated status = %v, expected StatusOK", latest.Status)
	}
	if latest.FrameNumber == 0 {
		t.Error("simulated frame number is zero")
	}
}
