package frame

import (
	"strings"

	"github.com/danmuck/imgauge/internal/measure"
	"github.com/danmuck/imgauge/internal/protocol"
)

// Trailing IT field positions, counted from the end of the split line.
const (
	itemDesignField = -5
	itemUpperField  = -4
	itemLowerField  = -3
	itemNameEnd     = -4
)

// Leading IT field positions.
const (
	itemIndexField = 1
	itemValueField = 2
	itemUnitField  = 3
	itemNameStart  = 4
)

// parseGroupHeader inspects line 1. JG/JH lines are consumed; any other tag
// marks a single-group frame and is left for the identity checkpoint.
func parseGroupHeader(fields protocol.Fields) (kind Kind, groupIndex int, consumed int, err error) {
	switch fields.Tag() {
	case protocol.TagPartGroup:
		groupIndex, err = fields.Int(2)
		return KindMultiPart, groupIndex, 1, err
	case protocol.TagProgramGroup:
		groupIndex, err = fields.Int(1)
		return KindMultiProgram, groupIndex, 1, err
	default:
		return KindSingle, 0, 0, nil
	}
}

func parseIdentity(f *Frame, fields protocol.Fields) error {
	sn, err := fields.Text(1)
	if err != nil {
		return err
	}
	ver, err := fields.Text(2)
	if err != nil {
		return err
	}
	f.SerialNumber, f.FirmwareVersion = sn, ver
	return nil
}

func parseDateTime(f *Frame, fields protocol.Fields) error {
	date, err := fields.Text(1)
	if err != nil {
		return err
	}
	tm, err := fields.Text(2)
	if err != nil {
		return err
	}
	f.Date, f.Time = date, tm
	return nil
}

func parseProgram(f *Frame, fields protocol.Fields) error {
	name, err := fields.Text(1)
	if err != nil {
		return err
	}
	f.ProgramName = name
	return nil
}

func parseItem(fields protocol.Fields, groupIndex int) (measure.Measurement, error) {
	rawIndex, err := fields.Text(itemIndexField)
	if err != nil {
		return measure.Measurement{}, err
	}
	index, err := fields.Int(itemIndexField)
	if err != nil {
		return measure.Measurement{}, err
	}
	item, err := fields.Decimal(itemValueField)
	if err != nil {
		return measure.Measurement{}, err
	}
	unit, err := fields.Text(itemUnitField)
	if err != nil {
		return measure.Measurement{}, err
	}
	design, err := fields.Decimal(itemDesignField)
	if err != nil {
		return measure.Measurement{}, err
	}
	upper, err := fields.Decimal(itemUpperField)
	if err != nil {
		return measure.Measurement{}, err
	}
	lower, err := fields.Decimal(itemLowerField)
	if err != nil {
		return measure.Measurement{}, err
	}

	name := "#" + rawIndex + " " + strings.Join(fields.Slice(itemNameStart, itemNameEnd), " ")
	return measure.Measurement{
		Design:     design,
		Lower:      lower,
		Upper:      upper,
		Item:       item,
		Unit:       unit,
		Name:       name,
		Index:      index,
		GroupIndex: groupIndex,
	}, nil
}
