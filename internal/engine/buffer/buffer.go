package buffer

import (
	"errors"
	"io"
	"strings"
	"sync"
)

// Errors returned by buffer operations.
var (
	ErrLineOutOfRange = errors.New("line out of range")
	ErrRangeInvalid   = errors.New("invalid range")
	ErrStaleRevision  = errors.New("buffer changed since snapshot")
)

// LineEnding specifies the line ending style used when the buffer is joined
// back into text.
type LineEnding uint8

const (
	LineEndingLF   LineEnding = iota // Unix: \n
	LineEndingCRLF                   // Windows: \r\n
	LineEndingCR                     // Old Mac: \r
)

// String returns the string representation of the line ending.
func (le LineEnding) String() string {
	switch le {
	case LineEndingCRLF:
		return "\\r\\n"
	case LineEndingCR:
		return "\\r"
	default:
		return "\\n"
	}
}

// Sequence returns the actual line ending characters.
func (le LineEnding) Sequence() string {
	switch le {
	case LineEndingCRLF:
		return "\r\n"
	case LineEndingCR:
		return "\r"
	default:
		return "\n"
	}
}

// Buffer holds a document as a slice of lines.
// All methods are thread-safe.
type Buffer struct {
	mu         sync.RWMutex
	lines      []string
	revisionID RevisionID
	lineEnding LineEnding

	// updateMu serializes Update calls so that two transforms of the same
	// buffer never interleave.
	updateMu sync.Mutex
}

// NewBuffer creates a new empty buffer. An empty buffer has one empty line.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{
		lines:      []string{""},
		revisionID: NewRevisionID(),
		lineEnding: LineEndingLF,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// NewBufferFromString creates a buffer with initial content.
func NewBufferFromString(s string, opts ...Option) *Buffer {
	b := NewBuffer(opts...)
	b.lines = splitLines(s)
	return b
}

// NewBufferFromReader creates a buffer from an io.Reader.
func NewBufferFromReader(r io.Reader, opts ...Option) (*Buffer, error) {
	// Read everything first; CRLF pairs may straddle read boundaries.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewBufferFromString(string(data), opts...), nil
}

// splitLines splits s on any line ending. The result always has at least one
// element.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}

// Read Operations

// Text returns the full buffer content joined with the buffer's line ending.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return strings.Join(b.lines, b.lineEnding.Sequence())
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// LineText returns the text of a specific line (without line ending).
// Out-of-range lines return "".
func (b *Buffer) LineText(line int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if line < 0 || line >= len(b.lines) {
		return ""
	}
	return b.lines[line]
}

// Write Operations

// SetText replaces the whole content of the buffer.
func (b *Buffer) SetText(s string) RevisionID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lines = splitLines(s)
	b.revisionID = NewRevisionID()
	return b.revisionID
}

// ReplaceLines replaces the inclusive line range [start, end] with text,
// which may itself span several lines.
func (b *Buffer) ReplaceLines(start, end int, text string) (EditResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.replaceLocked(LineEdit{Range: LineRange{Start: start, End: end}, NewText: text})
}

// ApplyEdit applies a single edit to the buffer.
func (b *Buffer) ApplyEdit(edit LineEdit) (EditResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.replaceLocked(edit)
}

// ApplyEditAt applies edit only if the buffer is still at revision rev.
// Otherwise it returns ErrStaleRevision and leaves the buffer untouched.
func (b *Buffer) ApplyEditAt(rev RevisionID, edit LineEdit) (EditResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.revisionID != rev {
		return EditResult{}, ErrStaleRevision
	}
	return b.replaceLocked(edit)
}

func (b *Buffer) replaceLocked(edit LineEdit) (EditResult, error) {
	r := edit.Range
	if !r.IsValid() {
		return EditResult{}, ErrRangeInvalid
	}
	if r.Start < 0 || r.End >= len(b.lines) {
		return EditResult{}, ErrLineOutOfRange
	}

	oldText := strings.Join(b.lines[r.Start:r.End+1], "\n")
	repl := splitLines(edit.NewText)

	// Build a fresh slice so snapshots sharing the old one stay valid.
	lines := make([]string, 0, len(b.lines)-r.Len()+len(repl))
	lines = append(lines, b.lines[:r.Start]...)
	lines = append(lines, repl...)
	lines = append(lines, b.lines[r.End+1:]...)

	b.lines = lines
	b.revisionID = NewRevisionID()

	return EditResult{
		OldRange: r,
		NewRange: LineRange{Start: r.Start, End: r.Start + len(repl) - 1},
		OldText:  oldText,
		Delta:    len(repl) - r.Len(),
	}, nil
}

// Update runs fn against a snapshot of the buffer and applies the edit it
// returns. Calls to Update on the same buffer are serialized. If fn reports
// no edit, the buffer is left alone. If the buffer was written by another
// path while fn ran, ErrStaleRevision is returned.
func (b *Buffer) Update(fn func(*Snapshot) (LineEdit, bool, error)) (bool, error) {
	b.updateMu.Lock()
	defer b.updateMu.Unlock()

	snap := b.Snapshot()
	edit, ok, err := fn(snap)
	if err != nil || !ok {
		return false, err
	}
	if _, err := b.ApplyEditAt(snap.RevisionID(), edit); err != nil {
		return false, err
	}
	return true, nil
}

// Buffer State

// RevisionID returns the current revision ID.
func (b *Buffer) RevisionID() RevisionID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revisionID
}

// IsEmpty returns true if the buffer holds a single empty line.
func (b *Buffer) IsEmpty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines) == 1 && b.lines[0] == ""
}

// LineEnding returns the buffer's line ending style.
func (b *Buffer) LineEnding() LineEnding {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lineEnding
}

// SetLineEnding sets the line ending used by Text.
func (b *Buffer) SetLineEnding(le LineEnding) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lineEnding = le
}

// Snapshot returns a read-only snapshot of the current buffer state.
// Safe for concurrent access from other goroutines.
func (b *Buffer) Snapshot() *Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return &Snapshot{
		lines:      b.lines, // never mutated in place
		revisionID: b.revisionID,
		lineEnding: b.lineEnding,
	}
}
