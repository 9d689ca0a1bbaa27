package protocol

// Tag is the two-character record prefix of every device line.
type Tag string

const (
	TagStart        Tag = "ST"
	TagPartGroup    Tag = "JG"
	TagProgramGroup Tag = "JH"
	TagIdentity     Tag = "SE"
	TagDateTime     Tag = "DA"
	TagProgram      Tag = "MS"
	TagLO           Tag = "LO"
	TagCH           Tag = "CH"
	TagItem         Tag = "IT"
	TagEnd          Tag = "EN"
)

// FieldSeparator splits a line into positional fields.
const FieldSeparator = "\t"

// TagOf returns the first two characters of line, or the whole line when
// shorter.
func TagOf(line string) Tag {
	if len(line) < 2 {
		return Tag(line)
	}
	return Tag(line[:2])
}

// HasTag reports whether line starts with tag.
func HasTag(line string, tag Tag) bool {
	return TagOf(line) == tag
}

// IsFooter reports whether line terminates a line group.
func IsFooter(line string) bool {
	return HasTag(line, TagEnd)
}
