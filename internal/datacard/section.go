package datacard

// Section is the canonical semantic label of a line.
type Section int

// Canonical sections. The numeric values of Header through Systematics are
// the canonical slot numbers; PreHeader and Other sit outside that range.
const (
	SectionPreHeader Section = iota - 1
	SectionHeader
	SectionShapes
	SectionChannels
	SectionProcesses
	SectionSystematics
	SectionOther
)

// String returns the display name of the section.
func (s Section) String() string {
	switch s {
	case SectionPreHeader:
		return "Pre-header"
	case SectionHeader:
		return "Header"
	case SectionShapes:
		return "Shapes"
	case SectionChannels:
		return "Channels"
	case SectionProcesses:
		return "Processes"
	case SectionSystematics:
		return "Systematics"
	default:
		return "Other"
	}
}

// primaryKeywords lists the keywords that define each section.
var primaryKeywords = map[Section][]string{
	SectionHeader:      {"imax", "jmax", "kmax"},
	SectionShapes:      {"shapes"},
	SectionChannels:    {"bin", "observation"},
	SectionProcesses:   {"bin", "process", "rate"},
	SectionSystematics: {"lnN", "gmN", "lnU", "shape", "rateParam", "discrete"},
}

// PrimaryKeywords returns the keywords that characterize s, used to rank
// completions and hovers. Sections without keywords return nil.
// The returned slice must not be modified.
func (s Section) PrimaryKeywords() []string {
	return primaryKeywords[s]
}

// IsPrimaryKeyword reports whether kw is one of the primary keywords of s.
func (s Section) IsPrimaryKeyword(kw string) bool {
	for _, k := range primaryKeywords[s] {
		if k == kw {
			return true
		}
	}
	return false
}

// SectionIndex is the raw segmentation record of a line.
type SectionIndex struct {
	// RawOrdinal counts the non-blank blocks strictly preceding the block
	// that contains the line.
	RawOrdinal int

	// HeaderBlockOrdinal is RawOrdinal evaluated at the header line, or 0
	// when there is no header.
	HeaderBlockOrdinal int

	// PreHeader is true when the line precedes the header line and the
	// header does not sit in the first block.
	PreHeader bool
}

// CanonicalSection maps a section index to its canonical label.
//
// When the optional Shapes block is absent every block after the header is
// shifted up by one slot, so Channels, Processes and Systematics land on the
// same canonical numbers whether or not shapes are declared.
func CanonicalSection(idx SectionIndex, hasShapesBlock bool) Section {
	if idx.PreHeader {
		return SectionPreHeader
	}

	relative := idx.RawOrdinal - idx.HeaderBlockOrdinal
	canonical := relative
	if !hasShapesBlock && relative != 0 {
		canonical = relative + 1
	}

	switch canonical {
	case 0:
		return SectionHeader
	case 1:
		return SectionShapes
	case 2:
		return SectionChannels
	case 3:
		return SectionProcesses
	case 4:
		return SectionSystematics
	default:
		return SectionOther
	}
}

// HasShapesBlock reports whether any line starts with the token "shapes",
// case-insensitively.
func HasShapesBlock(doc Document) bool {
	n := doc.LineCount()
	for i := 0; i < n; i++ {
		if IsShapesLine(doc.LineText(i)) {
			return true
		}
	}
	return false
}
