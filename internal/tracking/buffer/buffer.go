// Package buffer implements the per-tool time-stamped sample store consumed
// by the tracking core: a fixed-capacity circular history of pose, status
// and frame number, queryable by timestamp.
package buffer

import (
	"fmt"
	"math"
	"sync"

	"github.com/saviola777/PlusLib/internal/tracking"
	"github.com/saviola777/PlusLib/internal/transform"
)

// DefaultCapacity is the ring size used when none is given.
const DefaultCapacity = 500

// Buffer is a fixed-capacity ring of samples, oldest overwritten first.
// One writer (the acquisition goroutine) and any number of readers.
type Buffer struct {
	mu sync.RWMutex

	items    []tracking.Sample
	capacity int
	head     int // next write position
	size     int

	toolCalibration  transform.Matrix
	worldCalibration transform.Matrix
	startTime        float64
	localTimeOffset  float64
}

// Compile-time check that Buffer satisfies the core's store contract.
var _ tracking.SampleStore = (*Buffer)(nil)

// New creates a Buffer with the given capacity.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		items:            make([]tracking.Sample, capacity),
		capacity:         capacity,
		toolCalibration:  transform.Identity(),
		worldCalibration: transform.Identity(),
	}
}

// Factory returns a tracking.StoreFactory producing one Buffer per port.
func Factory(capacity int) tracking.StoreFactory {
	return func(port int) tracking.SampleStore {
		return New(capacity)
	}
}

// Add appends one sample, overwriting the oldest when full. The local time
// offset is applied to the sample timestamp on the way in.
func (b *Buffer) Add(s tracking.Sample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s.Timestamp += b.localTimeOffset
	if s.Pose != nil {
		// Own a copy so the caller can reuse its matrix storage.
		pose := *s.Pose
		s.Pose = &pose
	}
	b.items[b.head] = s
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
	return nil
}

// Len returns the number of stored samples.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Capacity returns the ring size.
func (b *Buffer) Capacity() int { return b.capacity }

// Clear discards all stored samples.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		b.items[i] = tracking.Sample{}
	}
	b.head = 0
	b.size = 0
}

// Latest returns the most recently added sample.
func (b *Buffer) Latest() (tracking.Sample, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.size == 0 {
		return tracking.Sample{}, fmt.Errorf("%w: buffer is empty", tracking.ErrNotFound)
	}
	return b.at(b.size - 1), nil
}

// Nearest returns the stored sample closest in time to timestamp.
func (b *Buffer) Nearest(timestamp float64) (tracking.Sample, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.size == 0 {
		return tracking.Sample{}, fmt.Errorf("%w: buffer is empty", tracking.ErrNotFound)
	}

	best := b.at(0)
	bestDist := math.Abs(best.Timestamp - timestamp)
	for i := 1; i < b.size; i++ {
		s := b.at(i)
		if d := math.Abs(s.Timestamp - timestamp); d < bestDist {
			best, bestDist = s, d
		}
	}
	return best, nil
}

// NearestCalibrated is Nearest with the tool and world calibration applied:
// world * raw * tool.
func (b *Buffer) NearestCalibrated(timestamp float64) (tracking.Sample, error) {
	s, err := b.Nearest(timestamp)
	if err != nil {
		return tracking.Sample{}, err
	}
	if s.Pose == nil {
		return s, nil
	}
	b.mu.RLock()
	world := b.worldCalibration
	tool := b.toolCalibration
	b.mu.RUnlock()

	calibrated := transform.Mul(transform.Mul(world, *s.Pose), tool)
	s.Pose = &calibrated
	return s, nil
}

// Timestamps returns the stored sample timestamps, oldest first.
func (b *Buffer) Timestamps() []float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]float64, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.at(i).Timestamp
	}
	return out
}

// SetToolCalibration stores the tool calibration transform used by
// NearestCalibrated.
func (b *Buffer) SetToolCalibration(m transform.Matrix) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.toolCalibration = m
}

// SetWorldCalibration stores the world calibration transform used by
// NearestCalibrated.
func (b *Buffer) SetWorldCalibration(m transform.Matrix) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.worldCalibration = m
}

// SetStartTime records the acquisition start time for this buffer.
func (b *Buffer) SetStartTime(t float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.startTime = t
}

// StartTime returns the recorded acquisition start time.
func (b *Buffer) StartTime() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.startTime
}

// SetLocalTimeOffset sets the offset added to incoming sample timestamps,
// compensating for a device clock that differs from the host clock.
func (b *Buffer) SetLocalTimeOffset(offset float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.localTimeOffset = offset
}

// LocalTimeOffset returns the configured device-to-host clock offset.
func (b *Buffer) LocalTimeOffset() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.localTimeOffset
}

// at returns the i-th oldest sample. Callers must hold b.mu.
func (b *Buffer) at(i int) tracking.Sample {
	idx := (b.head - b.size + i + b.capacity) % b.capacity
	return b.items[idx]
}
