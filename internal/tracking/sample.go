package tracking

import "github.com/saviola777/PlusLib/internal/transform"

// Sample is one time-stamped observation of a tool. A nil Pose with status
// Missing or OutOfView is valid and distinct from a present pose.
type Sample struct {
	Pose        *transform.Matrix
	Status      TrackerStatus
	FrameNumber uint64
	Timestamp   float64 // seconds since the Unix epoch
	Filtered    bool    // raw device sample vs internally time-filtered
}

// SampleStore is the per-tool time-stamped history the core relays samples
// into. The core only appends and queries; the store owns retention and
// interpolation policy. Implementations must be safe for one writer (the
// acquisition goroutine) and concurrent readers.
type SampleStore interface {
	// Add appends one sample. Samples arrive in relay-call order.
	Add(s Sample) error

	// Nearest returns the stored sample closest in time to timestamp.
	Nearest(timestamp float64) (Sample, error)

	// NearestCalibrated is Nearest with the tool and world calibration
	// transforms applied to the pose.
	NearestCalibrated(timestamp float64) (Sample, error)

	// Latest returns the most recently added sample.
	Latest() (Sample, error)

	// Timestamps returns the stored sample timestamps, oldest first.
	Timestamps() []float64

	// Len returns the number of stored samples.
	Len() int

	// Clear discards all stored samples.
	Clear()

	SetToolCalibration(m transform.Matrix)
	SetWorldCalibration(m transform.Matrix)
	SetStartTime(t float64)
}

// StoreFactory creates the SampleStore for one tool port. The tool table
// calls it once per port when the table is sized.
type StoreFactory func(port int) SampleStore
