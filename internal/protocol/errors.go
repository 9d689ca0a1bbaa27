package protocol

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrChecksumMismatch = errors.New("protocol: checksum mismatch")
	ErrMalformedFrame   = errors.New("protocol: malformed frame")
	ErrEmptyInput       = errors.New("protocol: no complete frame")
	ErrMissingField     = errors.New("protocol: missing field")
)

// DecodeError locates a decode failure within a line group.
// Line is the 0-based position in the group, -1 when not tied to a line.
type DecodeError struct {
	Line   int
	Tag    Tag
	Reason string
	Err    error
	Cause  error
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString("protocol: decode failed")
	}
	if e.Line >= 0 {
		fmt.Fprintf(&b, ": line=%d", e.Line)
	}
	if e.Tag != "" {
		fmt.Fprintf(&b, " tag=%s", e.Tag)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *DecodeError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Err != nil {
		out = append(out, e.Err)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

// Malformed builds a DecodeError classified as ErrMalformedFrame.
func Malformed(line int, tag Tag, reason string, cause error) *DecodeError {
	return &DecodeError{Line: line, Tag: tag, Reason: reason, Err: ErrMalformedFrame, Cause: cause}
}

// Reason maps a decode error to a short label for metrics and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrChecksumMismatch):
		return "checksum"
	case errors.Is(err, ErrMalformedFrame):
		return "malformed"
	case errors.Is(err, ErrEmptyInput):
		return "empty"
	default:
		return "other"
	}
}
