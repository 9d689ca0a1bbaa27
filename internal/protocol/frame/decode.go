package frame

import (
	"errors"
	"fmt"
	"slices"

	"github.com/danmuck/imgauge/internal/measure"
	"github.com/danmuck/imgauge/internal/protocol"
)

// checkpoint is one fixed header line after the optional group header.
// A nil parse makes the line a structural checkpoint only.
type checkpoint struct {
	tag   protocol.Tag
	parse func(*Frame, protocol.Fields) error
}

var checkpoints = []checkpoint{
	{protocol.TagIdentity, parseIdentity},
	{protocol.TagDateTime, parseDateTime},
	{protocol.TagProgram, parseProgram},
	{protocol.TagLO, nil},
	{protocol.TagCH, nil},
}

// DecodeFrame decodes one footer-terminated line group.
//
// The group walks Start, an optional JG/JH group header, SE, DA, MS, LO, CH,
// then IT lines up to the footer. Every transition requires the exact tag;
// there is no backtracking. On error the returned Frame is the zero value.
func DecodeFrame(lines []string, verifyChecksum bool) (Frame, error) {
	if len(lines) == 0 {
		return Frame{}, protocol.Malformed(-1, "", "empty line group", nil)
	}
	if verifyChecksum {
		for i, line := range lines {
			if err := protocol.VerifyChecksum(line); err != nil {
				var decErr *protocol.DecodeError
				if errors.As(err, &decErr) {
					decErr.Line = i
				}
				return Frame{}, err
			}
		}
	}

	// The last line is the footer; headers and items must precede it.
	body := len(lines) - 1

	if !protocol.HasTag(lines[0], protocol.TagStart) {
		return Frame{}, protocol.Malformed(0, protocol.TagOf(lines[0]), "expected ST", nil)
	}
	if body < 2 {
		return Frame{}, protocol.Malformed(1, "", "truncated before SE", nil)
	}

	var f Frame
	kind, groupIndex, consumed, err := parseGroupHeader(protocol.Split(lines[1]))
	if err != nil {
		return Frame{}, protocol.Malformed(1, protocol.TagOf(lines[1]), "group index", err)
	}
	f.Kind = kind
	f.GroupIndex = groupIndex

	pos := 1 + consumed
	for _, cp := range checkpoints {
		if pos >= body {
			return Frame{}, protocol.Malformed(pos, "", fmt.Sprintf("truncated before %s", cp.tag), nil)
		}
		fields := protocol.Split(lines[pos])
		if got := fields.Tag(); got != cp.tag {
			return Frame{}, protocol.Malformed(pos, got, fmt.Sprintf("expected %s", cp.tag), nil)
		}
		if cp.parse != nil {
			if err := cp.parse(&f, fields); err != nil {
				return Frame{}, protocol.Malformed(pos, cp.tag, "header fields", err)
			}
		}
		pos++
	}

	measurements := make([]measure.Measurement, 0, body-pos)
	for ; pos < body; pos++ {
		fields := protocol.Split(lines[pos])
		if got := fields.Tag(); got != protocol.TagItem {
			return Frame{}, protocol.Malformed(pos, got, "expected IT", nil)
		}
		m, err := parseItem(fields, groupIndex)
		if err != nil {
			return Frame{}, protocol.Malformed(pos, protocol.TagItem, "item fields", err)
		}
		measurements = append(measurements, m)
	}

	f.Measurements = measurements
	f.RawLines = slices.Clone(lines)
	return f, nil
}

// DecodeAll groups lines and decodes every complete group in order. A
// failure in any group fails the whole batch and no frames are returned.
func DecodeAll(lines []string, verifyChecksum bool) ([]Frame, error) {
	groups := GroupLines(lines)
	if len(groups) == 0 {
		return nil, protocol.ErrEmptyInput
	}
	frames := make([]Frame, 0, len(groups))
	for i, group := range groups {
		f, err := DecodeFrame(group, verifyChecksum)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", i, err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}
