package align

import (
	"errors"
	"fmt"

	"github.com/dshills/datacard/internal/datacard"
)

// Errors returned by Align. Use errors.Is to test for them; the concrete
// error values carry the details.
var (
	// ErrSectionNotFound indicates the Processes or Systematics block is missing.
	ErrSectionNotFound = errors.New("section not found")

	// ErrOrdering indicates the Systematics block does not follow the
	// Processes block.
	ErrOrdering = errors.New("systematics block does not follow processes block")
)

// SectionNotFoundError reports which block could not be located.
type SectionNotFoundError struct {
	Section datacard.Section
}

// Error implements the error interface.
func (e *SectionNotFoundError) Error() string {
	return fmt.Sprintf("align: %s block not found", e.Section)
}

// Unwrap returns ErrSectionNotFound.
func (e *SectionNotFoundError) Unwrap() error {
	return ErrSectionNotFound
}

// OrderingError reports overlapping or reversed Processes and Systematics
// blocks.
type OrderingError struct {
	ProcessesEnd     int
	SystematicsStart int
}

// Error implements the error interface.
func (e *OrderingError) Error() string {
	return fmt.Sprintf("align: systematics block (line %d) must start after processes block ends (line %d)",
		e.SystematicsStart+1, e.ProcessesEnd+1)
}

// Unwrap returns ErrOrdering.
func (e *OrderingError) Unwrap() error {
	return ErrOrdering
}

// Warning records a row whose token did not fit its column at rebuild time.
// The row is still emitted with a single separating space, so it may render
// misaligned.
type Warning struct {
	Line    int // document line
	Column  int // column index within the row
	Deficit int // cells the token was shifted past its target offset
}

// String returns a human-readable representation of the warning.
func (w Warning) String() string {
	return fmt.Sprintf("line %d column %d shifted %d past its target", w.Line+1, w.Column, w.Deficit)
}
