package buffer

import "strings"

// Snapshot provides a read-only view of a buffer at a specific revision.
// It is safe for concurrent access and will not change even if the original
// buffer is modified.
type Snapshot struct {
	lines      []string
	revisionID RevisionID
	lineEnding LineEnding
}

// Text returns the full snapshot content joined with its line ending.
func (s *Snapshot) Text() string {
	return strings.Join(s.lines, s.lineEnding.Sequence())
}

// LineCount returns the number of lines.
func (s *Snapshot) LineCount() int {
	return len(s.lines)
}

// LineText returns the text of a specific line. Out-of-range lines return "".
func (s *Snapshot) LineText(line int) string {
	if line < 0 || line >= len(s.lines) {
		return ""
	}
	return s.lines[line]
}

// Lines returns a copy of all lines.
func (s *Snapshot) Lines() []string {
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

// PointToUTF16 converts a byte-column point to a UTF-16 column point.
func (s *Snapshot) PointToUTF16(p Point) PointUTF16 {
	line := s.LineText(p.Line)
	col := p.Column
	if col > len(line) {
		col = len(line)
	}
	return PointUTF16{Line: p.Line, Column: utf16ColumnFromString(line[:col])}
}

// PointFromUTF16 converts a UTF-16 column point to a byte-column point.
func (s *Snapshot) PointFromUTF16(p PointUTF16) Point {
	return Point{Line: p.Line, Column: byteOffsetFromUTF16Column(s.LineText(p.Line), p.Column)}
}

// RevisionID returns the revision ID of this snapshot.
func (s *Snapshot) RevisionID() RevisionID {
	return s.revisionID
}

// LineEnding returns the snapshot's line ending style.
func (s *Snapshot) LineEnding() LineEnding {
	return s.lineEnding
}
