package frame

import (
	"time"

	"github.com/danmuck/imgauge/internal/protocol"
	"github.com/rs/zerolog"
)

// Outcome summarises one Decoder.Decode call for observers.
type Outcome struct {
	Frames         int
	Measurements   int
	OutOfTolerance int
	Reason         string
	Duration       time.Duration
}

// Observer receives one Outcome per decoded batch.
type Observer interface {
	ObserveDecode(Outcome)
}

// Decoder runs DecodeAll with logging and an optional observer attached.
// It keeps no state between calls and is safe for concurrent use when its
// Observer is.
type Decoder struct {
	VerifyChecksum bool
	Logger         zerolog.Logger
	Observer       Observer
}

func NewDecoder(verifyChecksum bool, logger zerolog.Logger, observer Observer) Decoder {
	return Decoder{VerifyChecksum: verifyChecksum, Logger: logger, Observer: observer}
}

func (d Decoder) Decode(lines []string) ([]Frame, error) {
	start := time.Now()
	frames, err := DecodeAll(lines, d.VerifyChecksum)

	out := Outcome{Frames: len(frames), Duration: time.Since(start)}
	for _, f := range frames {
		out.Measurements += len(f.Measurements)
		out.OutOfTolerance += f.OutOfTolerance()
	}
	if err != nil {
		out.Reason = protocol.Reason(err)
		d.Logger.Debug().
			Err(err).
			Str("reason", out.Reason).
			Int("lines", len(lines)).
			Msg("frame.Decode failed")
	} else {
		d.Logger.Debug().
			Int("lines", len(lines)).
			Int("frames", out.Frames).
			Int("measurements", out.Measurements).
			Dur("duration", out.Duration).
			Msg("frame.Decode")
	}
	if d.Observer != nil {
		d.Observer.ObserveDecode(out)
	}
	return frames, err
}
