// Package monitor polls a line source on a fixed interval and hands every
// decoded batch to its sinks.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/danmuck/imgauge/internal/protocol"
	"github.com/danmuck/imgauge/internal/protocol/frame"
	"github.com/danmuck/imgauge/internal/source"
	"github.com/rs/zerolog"
)

const (
	DefaultInterval = 250 * time.Millisecond

	// maxCarryLines bounds the unterminated tail kept between polls.
	maxCarryLines = 1024
)

// Sink consumes decoded frames.
type Sink interface {
	Publish(ctx context.Context, frames []frame.Frame) error
}

type SinkFunc func(ctx context.Context, frames []frame.Frame) error

func (f SinkFunc) Publish(ctx context.Context, frames []frame.Frame) error {
	return f(ctx, frames)
}

type Monitor struct {
	src      source.LineSource
	dec      frame.Decoder
	interval time.Duration
	logger   zerolog.Logger
	sinks    []Sink

	carry []string
}

func New(src source.LineSource, dec frame.Decoder, interval time.Duration, logger zerolog.Logger, sinks ...Sink) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		src:      src,
		dec:      dec,
		interval: interval,
		logger:   logger,
		sinks:    sinks,
	}
}

// Run polls until ctx is done or the source fails. A source reaching io.EOF
// ends the run without error. Decode failures are logged and the loop keeps
// polling.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info().Dur("interval", m.interval).Msg("monitor started")
	for {
		if _, err := m.PollOnce(ctx); err != nil {
			switch {
			case errors.Is(err, io.EOF):
				m.logger.Info().Msg("monitor source exhausted")
				return nil
			case ctx.Err() != nil:
				return nil
			case isDecodeError(err):
				m.logger.Warn().Err(err).Str("reason", protocol.Reason(err)).Msg("batch rejected")
			default:
				return err
			}
		}

		select {
		case <-ctx.Done():
			m.logger.Info().Msg("monitor stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// PollOnce reads one batch and decodes every complete group in it. Lines
// after the last footer are kept and prepended to the next batch.
func (m *Monitor) PollOnce(ctx context.Context) ([]frame.Frame, error) {
	batch, err := m.src.ReadBatch(ctx)
	if err != nil {
		return nil, err
	}
	lines := append(m.carry, batch...)
	m.carry = nil

	last := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if protocol.IsFooter(lines[i]) {
			last = i
			break
		}
	}
	m.keepCarry(lines[last+1:])
	if last < 0 {
		return nil, nil
	}

	frames, err := m.dec.Decode(lines[:last+1])
	if err != nil {
		return nil, err
	}
	for _, f := range frames {
		m.logger.Info().
			Str("program", f.ProgramName).
			Str("kind", f.Kind.String()).
			Int("group", f.GroupIndex).
			Str("date", f.Date).
			Str("time", f.Time).
			Int("measurements", len(f.Measurements)).
			Int("out_of_tolerance", f.OutOfTolerance()).
			Msg("frame decoded")
	}
	for _, s := range m.sinks {
		if err := s.Publish(ctx, frames); err != nil {
			return frames, fmt.Errorf("monitor: publish: %w", err)
		}
	}
	return frames, nil
}

func (m *Monitor) keepCarry(tail []string) {
	if len(tail) > maxCarryLines {
		m.logger.Warn().Int("dropped", len(tail)-maxCarryLines).Msg("unterminated tail too long")
		tail = tail[len(tail)-maxCarryLines:]
	}
	m.carry = append([]string(nil), tail...)
}

func isDecodeError(err error) bool {
	return errors.Is(err, protocol.ErrMalformedFrame) ||
		errors.Is(err, protocol.ErrChecksumMismatch) ||
		errors.Is(err, protocol.ErrEmptyInput)
}
