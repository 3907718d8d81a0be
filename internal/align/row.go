package align

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

// Span is the byte range of one whitespace-delimited token within a line.
type Span struct {
	Start int // inclusive
	End   int // exclusive
}

// Tokenize returns the spans of every run of non-whitespace characters in
// line, ordered by start offset.
func Tokenize(line string) []Span {
	var spans []Span
	start := -1
	for i, r := range line {
		if unicode.IsSpace(r) {
			if start >= 0 {
				spans = append(spans, Span{Start: start, End: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, Span{Start: start, End: len(line)})
	}
	return spans
}

// mergeLeading merges spans 0 and 1 into one span covering both, keeping the
// whitespace between them. Rows with fewer than two spans are returned as is.
func mergeLeading(spans []Span) []Span {
	if len(spans) < 2 {
		return spans
	}
	merged := make([]Span, 0, len(spans)-1)
	merged = append(merged, Span{Start: spans[0].Start, End: spans[1].End})
	return append(merged, spans[2:]...)
}

// row is a line collected for alignment.
type row struct {
	line   int
	tokens []string
}

func newRow(line int, text string, merge bool) row {
	spans := Tokenize(text)
	if merge {
		spans = mergeLeading(spans)
	}
	tokens := make([]string, len(spans))
	for i, s := range spans {
		tokens[i] = text[s.Start:s.End]
	}
	return row{line: line, tokens: tokens}
}

// cellWidth returns the width of s in cells. Every rune takes at least one
// cell, so a tab or other control character inside a merged span is counted.
func cellWidth(s string) int {
	n := 0
	for _, r := range s {
		n += max(runewidth.RuneWidth(r), 1)
	}
	return n
}

// columnOffsets computes the target start offset of every column: column 0
// starts at 0 and each following column starts pad cells after the widest
// token of the previous column.
func columnOffsets(rows []row, pad int) []int {
	var widths []int
	for _, r := range rows {
		for k, tok := range r.tokens {
			w := cellWidth(tok)
			if k >= len(widths) {
				widths = append(widths, w)
			} else if w > widths[k] {
				widths[k] = w
			}
		}
	}

	offsets := make([]int, len(widths))
	for k := 1; k < len(widths); k++ {
		offsets[k] = offsets[k-1] + widths[k-1] + pad
	}
	return offsets
}

// build renders r with each token starting at its column offset. A token
// that would have to start before the end of the previous one is placed
// directly after it and reported as a warning.
func (r row) build(offsets []int) (string, []Warning) {
	var sb strings.Builder
	var warnings []Warning
	cur := 0
	for k, tok := range r.tokens {
		target := cur
		if k < len(offsets) {
			target = offsets[k]
		}
		gap := target - cur
		if gap < 0 {
			warnings = append(warnings, Warning{Line: r.line, Column: k, Deficit: -gap})
			gap = 0
		}
		if gap > 0 {
			sb.WriteString(strings.Repeat(" ", gap))
		}
		sb.WriteString(tok)
		cur += gap + cellWidth(tok)
	}
	return sb.String(), warnings
}
