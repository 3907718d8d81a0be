package buffer

import "fmt"

// LineRange is an inclusive range of lines [Start, End].
type LineRange struct {
	Start int
	End   int
}

// String returns a human-readable representation of the range.
func (r LineRange) String() string {
	return fmt.Sprintf("[%d:%d]", r.Start, r.End)
}

// Len returns the number of lines covered.
func (r LineRange) Len() int {
	return r.End - r.Start + 1
}

// IsValid returns true if Start <= End.
func (r LineRange) IsValid() bool {
	return r.Start <= r.End
}

// Contains returns true if line falls within the range.
func (r LineRange) Contains(line int) bool {
	return line >= r.Start && line <= r.End
}

// LineEdit replaces a line range with new text.
type LineEdit struct {
	Range   LineRange // lines to replace
	NewText string    // replacement, "\n"-separated
}

// NewLineEdit creates a new LineEdit.
func NewLineEdit(start, end int, newText string) LineEdit {
	return LineEdit{Range: LineRange{Start: start, End: end}, NewText: newText}
}

// String returns a human-readable representation of the edit.
func (e LineEdit) String() string {
	return fmt.Sprintf("Replace%s with %q", e.Range, e.NewText)
}

// EditResult contains information about an applied edit.
type EditResult struct {
	OldRange LineRange // lines that were replaced
	NewRange LineRange // lines now holding the replacement
	OldText  string    // replaced text, "\n"-separated
	Delta    int       // change in line count
}
