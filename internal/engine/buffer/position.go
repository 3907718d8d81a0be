package buffer

import (
	"fmt"
	"sync/atomic"
	"unicode/utf8"
)

// Point represents a line and column position.
// Both Line and Column are 0-indexed.
// Column is measured in bytes from the start of the line.
type Point struct {
	Line   int
	Column int
}

// String returns a human-readable representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("(%d:%d)", p.Line, p.Column)
}

// PointUTF16 represents a line and column position where the column
// is measured in UTF-16 code units, as used by LSP clients.
type PointUTF16 struct {
	Line   int
	Column int
}

// String returns a human-readable representation of the point.
func (p PointUTF16) String() string {
	return fmt.Sprintf("(%d:%d utf16)", p.Line, p.Column)
}

// RevisionID uniquely identifies a buffer revision.
// Each modification to the buffer creates a new revision.
type RevisionID uint64

var revisionCounter atomic.Uint64

// NewRevisionID generates a new unique revision ID.
func NewRevisionID() RevisionID {
	return RevisionID(revisionCounter.Add(1))
}

// utf16ColumnFromString counts UTF-16 code units in a string.
func utf16ColumnFromString(s string) int {
	var col int
	for _, r := range s {
		if r >= 0x10000 {
			col += 2 // surrogate pair
		} else {
			col++
		}
	}
	return col
}

// byteOffsetFromUTF16Column converts a UTF-16 column to a byte offset within
// a line, clamped to the line length.
func byteOffsetFromUTF16Column(line string, utf16Col int) int {
	var col, byteOffset int
	for _, r := range line {
		if col >= utf16Col {
			break
		}
		if r >= 0x10000 {
			col += 2
		} else {
			col++
		}
		byteOffset += utf8.RuneLen(r)
	}
	return byteOffset
}
