// Package measure holds the tolerance-checked measurement record produced by
// the frame decoder and the scoring applied to it.
package measure

// Status classifies a measured value against its tolerance band.
type Status int

const (
	StatusInTolerance Status = iota
	StatusOutOfTolerance
)

func (s Status) String() string {
	switch s {
	case StatusInTolerance:
		return "ok"
	case StatusOutOfTolerance:
		return "ng"
	default:
		return "unknown"
	}
}

// Measurement is one tolerance-checked quantity within a frame.
// Lower and Upper are signed offsets relative to Design.
type Measurement struct {
	Design     float64 `json:"design" yaml:"design" cbor:"1,keyasint"`
	Lower      float64 `json:"lower" yaml:"lower" cbor:"2,keyasint"`
	Upper      float64 `json:"upper" yaml:"upper" cbor:"3,keyasint"`
	Item       float64 `json:"item" yaml:"item" cbor:"4,keyasint"`
	Unit       string  `json:"unit" yaml:"unit" cbor:"5,keyasint"`
	Name       string  `json:"name" yaml:"name" cbor:"6,keyasint"`
	Index      int     `json:"index" yaml:"index" cbor:"7,keyasint"`
	GroupIndex int     `json:"group_index" yaml:"group_index" cbor:"8,keyasint"`
}

// Band returns the tolerance band width.
func (m Measurement) Band() float64 {
	return m.Upper - m.Lower
}

// Min is the absolute lower limit of the band.
func (m Measurement) Min() float64 {
	return m.Design + m.Lower
}

// Max is the absolute upper limit of the band.
func (m Measurement) Max() float64 {
	return m.Design + m.Upper
}

// Nominal is the midpoint of the tolerance band.
func (m Measurement) Nominal() float64 {
	return m.Design + (m.Upper+m.Lower)/2
}

// Deviation is shorthand for Deviation(m).
func (m Measurement) Deviation() float64 {
	return Deviation(m)
}

// Status reports whether Item lies strictly inside the band. Values on
// either limit count as out of tolerance.
func (m Measurement) Status() Status {
	if m.Item >= m.Max() || m.Item <= m.Min() {
		return StatusOutOfTolerance
	}
	return StatusInTolerance
}

// Deviation returns the signed distance of Item from the band midpoint,
// scaled so the band edges sit at -1 and +1. A zero-width band scores 0.
func Deviation(m Measurement) float64 {
	band := m.Band()
	if band == 0 {
		return 0
	}
	return 2 * (m.Item - m.Nominal()) / band
}
