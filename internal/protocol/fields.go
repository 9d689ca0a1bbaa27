package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Fields is a line split on FieldSeparator. Field 0 carries the tag.
type Fields []string

// Split breaks line into its positional fields.
func Split(line string) Fields {
	return Fields(strings.Split(line, FieldSeparator))
}

// Tag returns the tag prefix of field 0.
func (f Fields) Tag() Tag {
	if len(f) == 0 {
		return ""
	}
	return TagOf(f[0])
}

// Text returns field i. Negative i counts from the end, -1 being the last
// field.
func (f Fields) Text(i int) (string, error) {
	pos := i
	if pos < 0 {
		pos += len(f)
	}
	if pos < 0 || pos >= len(f) {
		return "", fmt.Errorf("%w: index %d of %d", ErrMissingField, i, len(f))
	}
	return f[pos], nil
}

// Int parses field i as a base-10 integer.
func (f Fields) Int(i int) (int, error) {
	raw, err := f.Text(i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("field %d: %w", i, err)
	}
	return v, nil
}

// Decimal parses field i as a float, accepting a comma as the fractional
// separator.
func (f Fields) Decimal(i int) (float64, error) {
	raw, err := f.Text(i)
	if err != nil {
		return 0, err
	}
	v, err := ParseDecimal(raw)
	if err != nil {
		return 0, fmt.Errorf("field %d: %w", i, err)
	}
	return v, nil
}

// Slice returns fields [from, to) with negative bounds counted from the end.
// Bounds are clamped; an inverted range yields nil.
func (f Fields) Slice(from, to int) []string {
	if from < 0 {
		from += len(f)
	}
	if to < 0 {
		to += len(f)
	}
	from = max(from, 0)
	to = min(to, len(f))
	if from >= to {
		return nil
	}
	return f[from:to]
}

// ParseDecimal normalises a device decimal ("12,345") and parses it.
func ParseDecimal(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), 64)
}
