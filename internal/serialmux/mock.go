package serialmux

import (
	"bytes"
	"errors"
	"sync"
)

// TestablePort implements Porter with configurable behaviour for tests:
// scripted reads, captured writes, injectable errors, and blocking reads
// that wake when data arrives.
type TestablePort struct {
	mu       sync.Mutex
	readCond *sync.Cond

	readBuf  bytes.Buffer
	writeBuf bytes.Buffer

	// ReadErr is returned by the next Read call if set, then cleared.
	ReadErr error

	// WriteErr is returned by the next Write call if set, then cleared.
	WriteErr error

	// BlockReads makes Read wait for data instead of returning io.EOF
	// semantics on an empty buffer.
	BlockReads bool

	closed bool
}

// NewTestablePort creates a TestablePort.
func NewTestablePort() *TestablePort {
	p := &TestablePort{}
	p.readCond = sync.NewCond(&p.mu)
	return p
}

func (p *TestablePort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, errors.New("serial port closed")
	}
	if p.ReadErr != nil {
		err := p.ReadErr
		p.ReadErr = nil
		return 0, err
	}
	if p.BlockReads {
		for !p.closed && p.readBuf.Len() == 0 {
			p.readCond.Wait()
		}
		if p.closed {
			return 0, errors.New("serial port closed")
		}
	}
	return p.readBuf.Read(buf)
}

func (p *TestablePort) Write(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, errors.New("serial port closed")
	}
	if p.WriteErr != nil {
		err := p.WriteErr
		p.WriteErr = nil
		return 0, err
	}
	return p.writeBuf.Write(buf)
}

func (p *TestablePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.readCond.Broadcast()
	return nil
}

// AddReadData queues data for subsequent Read calls and wakes blocked
// readers.
func (p *TestablePort) AddReadData(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readBuf.Write(data)
	p.readCond.Broadcast()
}

// WrittenData returns everything written to the port so far.
func (p *TestablePort) WrittenData() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.writeBuf.Bytes()...)
}

var _ Porter = (*TestablePort)(nil)
