// Package align reflows the Processes and Systematics blocks of a datacard
// into fixed-width columns.
//
// Alignment is computed against a snapshot of the document and produces a
// single line-range replacement covering the first Processes line through the
// last Systematics line. Token text is never changed, only repositioned.
package align

import (
	"strings"

	"github.com/dshills/datacard/internal/datacard"
)

// DefaultPad is the number of spaces between the widest token of a column
// and the start of the next column.
const DefaultPad = 3

// Edit replaces the inclusive line range [StartLine, EndLine] with NewText.
type Edit struct {
	StartLine int
	EndLine   int
	NewText   string
}

// Result is the outcome of a successful alignment.
type Result struct {
	// Edit is the single replacement to apply to the source document.
	Edit Edit

	// Lines is the full document with the edit applied.
	Lines []string

	// Changed is false when the span was already aligned.
	Changed bool

	// Warnings lists rows that could not be placed exactly.
	Warnings []Warning
}

// Text returns the aligned document joined with "\n".
func (r *Result) Text() string {
	return datacard.JoinLines(r.Lines)
}

// Aligner aligns datacard columns.
type Aligner struct {
	pad          int
	skipComments bool
}

// Option configures an Aligner.
type Option func(*Aligner)

// WithPad sets the spacing between columns. Values below 1 are ignored.
func WithPad(pad int) Option {
	return func(a *Aligner) {
		if pad > 0 {
			a.pad = pad
		}
	}
}

// WithSkipComments controls whether '#' comment lines inside the span are
// passed through untouched. Disabled by default: comment rows are aligned
// like any other row.
func WithSkipComments(skip bool) Option {
	return func(a *Aligner) {
		a.skipComments = skip
	}
}

// New creates an Aligner.
func New(opts ...Option) *Aligner {
	a := &Aligner{
		pad: DefaultPad,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Pad returns the configured column spacing.
func (a *Aligner) Pad() int {
	return a.pad
}

// Align aligns doc with the default options.
func Align(doc datacard.Document) (*Result, error) {
	return New().Align(doc)
}

// Align locates the Processes and Systematics blocks of doc and reflows them.
// On failure no edit is produced and the error is a *SectionNotFoundError or
// an *OrderingError.
func (a *Aligner) Align(doc datacard.Document) (*Result, error) {
	return a.AlignAnalyzed(doc, datacard.Analyze(doc))
}

// AlignAnalyzed is Align with a precomputed analysis of doc, for callers that
// keep a datacard.Cache.
func (a *Aligner) AlignAnalyzed(doc datacard.Document, an *datacard.Analysis) (*Result, error) {
	pStart, pEnd, ok := an.SectionRange(datacard.SectionProcesses)
	if !ok {
		return nil, &SectionNotFoundError{Section: datacard.SectionProcesses}
	}
	sStart, sEnd, ok := an.SectionRange(datacard.SectionSystematics)
	if !ok {
		return nil, &SectionNotFoundError{Section: datacard.SectionSystematics}
	}
	return a.alignSpan(datacard.Collect(doc), pStart, pEnd, sStart, sEnd)
}

// alignSpan reflows the processes rows [pStart, pEnd] and systematics rows
// [sStart, sEnd] of original.
func (a *Aligner) alignSpan(original []string, pStart, pEnd, sStart, sEnd int) (*Result, error) {
	if sStart <= pEnd {
		return nil, &OrderingError{ProcessesEnd: pEnd, SystematicsStart: sStart}
	}

	var rows []row
	for l := pStart; l <= sEnd; l++ {
		if l > pEnd && l < sStart {
			continue
		}
		if !a.collectable(original[l]) {
			continue
		}
		rows = append(rows, newRow(l, original[l], l >= sStart))
	}

	offsets := columnOffsets(rows, a.pad)

	span := make([]string, sEnd-pStart+1)
	copy(span, original[pStart:sEnd+1])
	var warnings []Warning
	for _, r := range rows {
		text, w := r.build(offsets)
		span[r.line-pStart] = text
		warnings = append(warnings, w...)
	}

	lines := make([]string, 0, len(original))
	lines = append(lines, original[:pStart]...)
	lines = append(lines, span...)
	lines = append(lines, original[sEnd+1:]...)

	newText := strings.Join(span, "\n")
	return &Result{
		Edit: Edit{
			StartLine: pStart,
			EndLine:   sEnd,
			NewText:   newText,
		},
		Lines:    lines,
		Changed:  newText != strings.Join(original[pStart:sEnd+1], "\n"),
		Warnings: warnings,
	}, nil
}

// collectable reports whether a line inside the span takes part in
// alignment. Blank, divider and (optionally) comment lines pass through.
func (a *Aligner) collectable(line string) bool {
	if datacard.IsBlank(line) || datacard.IsDivider(line) {
		return false
	}
	if a.skipComments && datacard.IsComment(line) {
		return false
	}
	return true
}
