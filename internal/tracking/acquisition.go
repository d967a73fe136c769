package tracking

import (
	"fmt"
	"time"

	"github.com/saviola777/PlusLib/internal/monitoring"
)

// acquisitionLoop is the body of the single background goroutine spawned by
// StartTracking. Each iteration holds updateMu only across the device poll,
// then waits out the remainder of the period in a cancellable select so a
// stop request interrupts the sleep promptly.
func (t *Tracker) acquisitionLoop(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	consecutiveErrs := 0
	polls := 0
	loopStart := t.clock.Now()

	for {
		t.updateMu.Lock()
		err := t.device.InternalUpdate(t)
		t.updateMu.Unlock()
		polls++

		if err != nil {
			consecutiveErrs++
			t.setLastAcquisitionError(err)
			monitoring.Logf("tracking: poll failed (%d consecutive): %v", consecutiveErrs, err)
			if max := t.maxErrs(); max > 0 && consecutiveErrs >= max {
				// Persistent-failure policy: give up the loop but keep the
				// state machine in Tracking until StopTracking joins us.
				t.setLastAcquisitionError(fmt.Errorf("%w: %d consecutive poll failures, last: %v",
					ErrHardwareFailure, consecutiveErrs, err))
				monitoring.Logf("tracking: acquisition stopped after %d consecutive poll failures", consecutiveErrs)
				return
			}
		} else {
			consecutiveErrs = 0
		}

		if elapsed := t.clock.Since(loopStart).Seconds(); elapsed > 0 {
			t.setInternalUpdateRate(float64(polls) / elapsed)
		}

		timer := t.clock.NewTimer(t.samplePeriod())
		select {
		case <-stopCh:
			timer.Stop()
			return
		case <-timer.C():
		}
	}
}

// samplePeriod returns the wait between polls implied by the configured
// frequency.
func (t *Tracker) samplePeriod() time.Duration {
	t.mu.RLock()
	freq := t.frequency
	t.mu.RUnlock()
	if freq <= 0 {
		freq = DefaultFrequency
	}
	return time.Duration(float64(time.Second) / freq)
}

func (t *Tracker) maxErrs() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.maxConsecutiveErrors
}

func (t *Tracker) setLastAcquisitionError(err error) {
	t.mu.Lock()
	t.lastAcqErr = err
	t.mu.Unlock()
}

func (t *Tracker) setInternalUpdateRate(rate float64) {
	t.mu.Lock()
	t.internalUpdateRate = rate
	t.mu.Unlock()
}
