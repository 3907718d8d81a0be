package datacard

import "strings"

// Document is a read-only, 0-indexed sequence of text lines.
// Implementations must not change while a call that received them is running.
type Document interface {
	// LineCount returns the number of lines.
	LineCount() int

	// LineText returns the text of line i without its line terminator.
	LineText(i int) string
}

// Lines is a Document backed by a string slice.
type Lines []string

// LineCount returns the number of lines.
func (l Lines) LineCount() int { return len(l) }

// LineText returns the text of line i.
func (l Lines) LineText(i int) string { return l[i] }

// SplitLines splits text into lines on "\n", dropping a trailing "\r" from
// each line. An empty text yields a single empty line, matching how editors
// present an empty buffer.
func SplitLines(text string) Lines {
	parts := strings.Split(text, "\n")
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\r")
	}
	return Lines(parts)
}

// JoinLines joins lines with "\n".
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// Collect copies every line of doc into a slice.
func Collect(doc Document) []string {
	n := doc.LineCount()
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = doc.LineText(i)
	}
	return out
}
