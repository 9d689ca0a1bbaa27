package frame

import (
	"fmt"

	"github.com/danmuck/imgauge/internal/measure"
)

// Kind tells how a frame's group index is interpreted.
type Kind int

const (
	KindSingle Kind = iota
	KindMultiProgram
	KindMultiPart
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindMultiProgram:
		return "multi_program"
	case KindMultiPart:
		return "multi_part"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case KindSingle, KindMultiProgram, KindMultiPart:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("frame: unknown kind %d", int(k))
	}
}

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "single":
		*k = KindSingle
	case "multi_program":
		*k = KindMultiProgram
	case "multi_part":
		*k = KindMultiPart
	default:
		return fmt.Errorf("frame: unknown kind %q", string(b))
	}
	return nil
}

// GroupLabel is the annotation attached to measurements of a multi-group
// frame, empty for single frames.
func (k Kind) GroupLabel(groupIndex int) string {
	switch k {
	case KindMultiProgram:
		return fmt.Sprintf("Program #%d", groupIndex)
	case KindMultiPart:
		return fmt.Sprintf("Part #%d", groupIndex)
	default:
		return ""
	}
}

// Frame is one decoded line group. Frames are built only by a successful
// decode and are not mutated afterwards.
type Frame struct {
	SerialNumber    string                `json:"serial_number" yaml:"serial_number" cbor:"1,keyasint"`
	FirmwareVersion string                `json:"firmware_version" yaml:"firmware_version" cbor:"2,keyasint"`
	Date            string                `json:"date" yaml:"date" cbor:"3,keyasint"`
	Time            string                `json:"time" yaml:"time" cbor:"4,keyasint"`
	ProgramName     string                `json:"program_name" yaml:"program_name" cbor:"5,keyasint"`
	Kind            Kind                  `json:"kind" yaml:"kind" cbor:"6,keyasint"`
	GroupIndex      int                   `json:"group_index" yaml:"group_index" cbor:"7,keyasint"`
	Measurements    []measure.Measurement `json:"measurements" yaml:"measurements" cbor:"8,keyasint"`
	RawLines        []string              `json:"raw_lines" yaml:"raw_lines" cbor:"9,keyasint"`
}

// OutOfTolerance counts measurements outside their band.
func (f Frame) OutOfTolerance() int {
	n := 0
	for _, m := range f.Measurements {
		if m.Status() == measure.StatusOutOfTolerance {
			n++
		}
	}
	return n
}
