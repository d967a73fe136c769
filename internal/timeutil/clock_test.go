package timeutil

import (
	"testing"
	"time"
)

func TestMockClockNowAndSince(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	if got := clock.Now(); !got.Equal(start) {
		t.Errorf("Now = %v, expected %v", got, start)
	}

	clock.Advance(3 * time.Second)
	if got := clock.Since(start); got != 3*time.Second {
		t.Errorf("Since = %v, expected 3s", got)
	}
}

func TestMockTimerFiresOnAdvance(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	timer := clock.NewTimer(100 * time.Millisecond)

	select {
	case <-timer.C():
		t.Fatal("timer fired before the clock advanced")
	default:
	}

	clock.Advance(50 * time.Millisecond)
	select {
	case <-timer.C():
		t.Fatal("timer fired before its deadline")
	default:
	}

	clock.Advance(50 * time.Millisecond)
	select {
	case <-timer.C():
	case <-time.After(time.Second):
		t.Fatal("timer did not fire after advancing past its deadline")
	}
}

func TestMockTimerStop(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	timer := clock.NewTimer(10 * time.Millisecond)

	if !timer.Stop() {
		t.Error("Stop on an active timer returned false")
	}
	clock.Advance(time.Second)
	select {
	case <-timer.C():
		t.Error("stopped timer fired anyway")
	default:
	}

	if timer.Stop() {
		t.Error("Stop on a stopped timer returned true")
	}
}

func TestRealClockTimer(t *testing.T) {
	clock := RealClock{}
	timer := clock.NewTimer(time.Millisecond)

	select {
	case <-timer.C():
	case <-time.After(time.Second):
		t.Fatal("real timer did not fire")
	}
}
