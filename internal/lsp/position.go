package lsp

import (
	"unicode"
	"unicode/utf8"

	"github.com/dshills/datacard/internal/engine/buffer"
)

// toPoint converts an LSP position to a byte-column point in snap.
func toPoint(snap *buffer.Snapshot, pos Position) buffer.Point {
	return snap.PointFromUTF16(buffer.PointUTF16{Line: pos.Line, Column: pos.Character})
}

// fromPoint converts a byte-column point in snap to an LSP position.
func fromPoint(snap *buffer.Snapshot, p buffer.Point) Position {
	u := snap.PointToUTF16(p)
	return Position{Line: u.Line, Character: u.Column}
}

// lineRange returns the range from the start of line start to the end of
// line end.
func lineRange(snap *buffer.Snapshot, start, end int) Range {
	return Range{
		Start: Position{Line: start},
		End:   fromPoint(snap, buffer.Point{Line: end, Column: len(snap.LineText(end))}),
	}
}

// wordAt returns the byte range of the whitespace-delimited word touching
// col in line. start == end when col sits between two spaces.
func wordAt(line string, col int) (start, end int) {
	if col > len(line) {
		col = len(line)
	}
	start = col
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(line[:start])
		if unicode.IsSpace(r) {
			break
		}
		start -= size
	}
	end = col
	for end < len(line) {
		r, size := utf8.DecodeRuneInString(line[end:])
		if unicode.IsSpace(r) {
			break
		}
		end += size
	}
	return start, end
}

// applyChange applies a content change to text. A change without a range
// replaces the whole text.
func applyChange(text string, change TextDocumentContentChangeEvent) string {
	if change.Range == nil {
		return change.Text
	}
	snap := buffer.NewBufferFromString(text).Snapshot()
	start := byteOffset(snap, toPoint(snap, change.Range.Start))
	end := byteOffset(snap, toPoint(snap, change.Range.End))
	if end < start {
		start, end = end, start
	}
	return text[:start] + change.Text + text[end:]
}

// byteOffset converts a point to an offset into the "\n"-joined text.
func byteOffset(snap *buffer.Snapshot, p buffer.Point) int {
	if p.Line >= snap.LineCount() {
		p = buffer.Point{Line: snap.LineCount() - 1, Column: len(snap.LineText(snap.LineCount() - 1))}
	}
	off := 0
	for i := 0; i < p.Line; i++ {
		off += len(snap.LineText(i)) + 1
	}
	return off + p.Column
}
