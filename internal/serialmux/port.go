package serialmux

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Porter is the minimal interface a serial port must satisfy. The
// abstraction enables unit testing without real tracking hardware.
type Porter interface {
	io.ReadWriter
	io.Closer
}

// PortMode carries the serial parameters a tracking device is opened with.
type PortMode struct {
	BaudRate int
	DataBits int
	Parity   Parity
	StopBits StopBits
}

// Parity selects the serial parity scheme.
type Parity int

const (
	NoParity Parity = iota
	OddParity
	EvenParity
)

// StopBits selects the number of serial stop bits.
type StopBits int

const (
	OneStopBit StopBits = iota
	TwoStopBits
)

// DefaultPortMode returns the mode most line-protocol trackers ship with.
func DefaultPortMode() *PortMode {
	return &PortMode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   NoParity,
		StopBits: OneStopBit,
	}
}

// Open opens a real serial port at the given path.
func Open(path string, mode *PortMode) (Porter, error) {
	if mode == nil {
		mode = DefaultPortMode()
	}
	sm, err := serialMode(mode)
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, sm)
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", path, err)
	}
	return port, nil
}

func serialMode(mode *PortMode) (*serial.Mode, error) {
	sm := &serial.Mode{
		BaudRate: mode.BaudRate,
		DataBits: mode.DataBits,
	}
	switch mode.Parity {
	case NoParity:
		sm.Parity = serial.NoParity
	case OddParity:
		sm.Parity = serial.OddParity
	case EvenParity:
		sm.Parity = serial.EvenParity
	default:
		return nil, fmt.Errorf("unknown parity %d", mode.Parity)
	}
	switch mode.StopBits {
	case OneStopBit:
		sm.StopBits = serial.OneStopBit
	case TwoStopBits:
		sm.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("unknown stop bits %d", mode.StopBits)
	}
	return sm, nil
}
