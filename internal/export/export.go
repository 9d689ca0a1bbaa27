// Package export renders decoded frames as JSON or YAML documents with the
// computed deviation and tolerance status alongside each measurement.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/imgauge/internal/measure"
	"github.com/danmuck/imgauge/internal/protocol/frame"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" and "yml", case-insensitively.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("export: unknown format %q", raw)
	}
}

type MeasurementView struct {
	measure.Measurement `yaml:",inline"`
	Deviation           float64 `json:"deviation" yaml:"deviation"`
	Status              string  `json:"status" yaml:"status"`
	Min                 float64 `json:"min" yaml:"min"`
	Max                 float64 `json:"max" yaml:"max"`
	GroupLabel          string  `json:"group_label,omitempty" yaml:"group_label,omitempty"`
}

type FrameView struct {
	SerialNumber    string            `json:"serial_number" yaml:"serial_number"`
	FirmwareVersion string            `json:"firmware_version" yaml:"firmware_version"`
	Date            string            `json:"date" yaml:"date"`
	Time            string            `json:"time" yaml:"time"`
	ProgramName     string            `json:"program_name" yaml:"program_name"`
	Kind            frame.Kind        `json:"kind" yaml:"kind"`
	GroupIndex      int               `json:"group_index" yaml:"group_index"`
	OutOfTolerance  int               `json:"out_of_tolerance" yaml:"out_of_tolerance"`
	Measurements    []MeasurementView `json:"measurements" yaml:"measurements"`
	RawLines        []string          `json:"raw_lines,omitempty" yaml:"raw_lines,omitempty"`
}

// View derives the export document of f.
func View(f frame.Frame, withRaw bool) FrameView {
	v := FrameView{
		SerialNumber:    f.SerialNumber,
		FirmwareVersion: f.FirmwareVersion,
		Date:            f.Date,
		Time:            f.Time,
		ProgramName:     f.ProgramName,
		Kind:            f.Kind,
		GroupIndex:      f.GroupIndex,
		OutOfTolerance:  f.OutOfTolerance(),
		Measurements:    make([]MeasurementView, 0, len(f.Measurements)),
	}
	for _, m := range f.Measurements {
		v.Measurements = append(v.Measurements, MeasurementView{
			Measurement: m,
			Deviation:   m.Deviation(),
			Status:      m.Status().String(),
			Min:         m.Min(),
			Max:         m.Max(),
			GroupLabel:  f.Kind.GroupLabel(m.GroupIndex),
		})
	}
	if withRaw {
		v.RawLines = f.RawLines
	}
	return v
}

// Encoder writes frame documents to an underlying writer.
type Encoder struct {
	w       io.Writer
	format  Format
	withRaw bool
}

func NewEncoder(w io.Writer, format Format, withRaw bool) *Encoder {
	return &Encoder{w: w, format: format, withRaw: withRaw}
}

// Encode writes frames as one JSON array or one YAML sequence document.
func (e *Encoder) Encode(frames []frame.Frame) error {
	views := make([]FrameView, 0, len(frames))
	for _, f := range frames {
		views = append(views, View(f, e.withRaw))
	}
	switch e.format {
	case FormatJSON:
		enc := json.NewEncoder(e.w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case FormatYAML:
		enc := yaml.NewEncoder(e.w)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("export: unknown format %q", e.format)
	}
}
