package source

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	DefaultBaudRate    = 9600
	DefaultReadTimeout = 250 * time.Millisecond

	readChunk     = 1024
	maxBatchBytes = 64 * 1024
)

// SerialConfig describes the port. Framing is fixed at 8N1 without flow
// control.
type SerialConfig struct {
	Port        string
	BaudRate    int
	ReadTimeout time.Duration
}

// Port is the subset of serial.Port a SerialSource uses.
type Port interface {
	io.ReadCloser
	SetReadTimeout(t time.Duration) error
}

// SerialSource drains whatever the port has buffered on each ReadBatch.
// An incomplete trailing line is held until its terminator arrives.
type SerialSource struct {
	mu      sync.Mutex
	port    Port
	pending []byte
}

// OpenSerial opens cfg.Port and wraps it.
func OpenSerial(cfg SerialConfig) (*SerialSource, error) {
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", cfg.Port, err)
	}
	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("source: set read timeout: %w", err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("source: reset input buffer: %w", err)
	}
	return NewSerialSource(port), nil
}

func NewSerialSource(port Port) *SerialSource {
	return &SerialSource{port: port}
}

// ReadBatch reads until a read times out with no data, then returns the
// complete lines collected so far.
func (s *SerialSource) ReadBatch(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, readChunk)
	read := 0
	for read < maxBatchBytes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := s.port.Read(buf)
		if n > 0 {
			s.pending = append(s.pending, buf[:n]...)
			read += n
		}
		if err != nil {
			return nil, fmt.Errorf("source: read: %w", err)
		}
		if n == 0 {
			break
		}
	}

	lines, rest := SplitLines(s.pending)
	s.pending = append(s.pending[:0], rest...)
	return lines, nil
}

func (s *SerialSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port.Close()
}
