package datacard

// Analysis is the segmentation of one document snapshot: dividers, blocks,
// header position and the shapes flag, computed once so that per-line
// queries do not rescan the document.
type Analysis struct {
	lineCount int
	dividers  []int
	blocks    []Block
	blockOf   []int // line -> block index
	ordinals  []int // block index -> raw ordinal
	header    int
	hasHeader bool
	hasShapes bool
}

// Analyze segments doc.
func Analyze(doc Document) *Analysis {
	a := &Analysis{
		lineCount: doc.LineCount(),
		header:    -1,
	}

	a.dividers = FindDividers(doc)
	a.blocks = ComputeBlocks(doc, a.dividers)
	a.header, a.hasHeader = FindHeader(doc)
	a.hasShapes = HasShapesBlock(doc)

	a.blockOf = make([]int, a.lineCount)
	a.ordinals = make([]int, len(a.blocks))
	nonBlank := 0
	for i, b := range a.blocks {
		a.ordinals[i] = nonBlank
		for l := b.Start; l <= b.End; l++ {
			a.blockOf[l] = i
		}
		if !b.Blank {
			nonBlank++
		}
	}

	return a
}

// LineCount returns the number of lines of the analyzed document.
func (a *Analysis) LineCount() int { return a.lineCount }

// Dividers returns the divider line indexes. The slice must not be modified.
func (a *Analysis) Dividers() []int { return a.dividers }

// Blocks returns the blocks in document order. The slice must not be modified.
func (a *Analysis) Blocks() []Block { return a.blocks }

// Header returns the header line, if any.
func (a *Analysis) Header() (int, bool) { return a.header, a.hasHeader }

// Recognized reports whether the document carries the header marker.
func (a *Analysis) Recognized() bool { return a.hasHeader }

// HasShapes reports whether the document declares a shapes line.
func (a *Analysis) HasShapes() bool { return a.hasShapes }

// BlockIndex returns the index of the block that contains line.
func (a *Analysis) BlockIndex(line int) (int, bool) {
	if line < 0 || line >= a.lineCount {
		return -1, false
	}
	return a.blockOf[line], true
}

// Index returns the section index of line. Lines outside the document are
// clamped to the nearest line; an empty document yields the zero index.
func (a *Analysis) Index(line int) SectionIndex {
	if a.lineCount == 0 {
		return SectionIndex{}
	}
	line = a.clamp(line)

	idx := SectionIndex{RawOrdinal: a.ordinals[a.blockOf[line]]}
	if a.hasHeader {
		hb := a.blockOf[a.header]
		idx.HeaderBlockOrdinal = a.ordinals[hb]
		idx.PreHeader = hb != 0 && line < a.header
	}
	return idx
}

// Section returns the canonical section of line.
func (a *Analysis) Section(line int) Section {
	return CanonicalSection(a.Index(line), a.hasShapes)
}

// BlockSection returns the canonical section of block i, taken at its last
// line so that comment lines above the header marker inside the header block
// do not relabel the whole block.
func (a *Analysis) BlockSection(i int) Section {
	if i < 0 || i >= len(a.blocks) {
		return SectionOther
	}
	return a.Section(a.blocks[i].End)
}

// SectionRange returns the content line range of the first non-blank block
// labeled s.
func (a *Analysis) SectionRange(s Section) (start, end int, ok bool) {
	for i, b := range a.blocks {
		if b.Blank {
			continue
		}
		if a.BlockSection(i) == s {
			return b.ContentStart(), b.End, true
		}
	}
	return 0, 0, false
}

func (a *Analysis) clamp(line int) int {
	if line < 0 {
		return 0
	}
	if line >= a.lineCount {
		return a.lineCount - 1
	}
	return line
}

// SectionIndexAt returns the section index of line in doc.
func SectionIndexAt(doc Document, line int) SectionIndex {
	return Analyze(doc).Index(line)
}

// SectionAt returns the canonical section of line in doc.
func SectionAt(doc Document, line int) Section {
	return Analyze(doc).Section(line)
}
