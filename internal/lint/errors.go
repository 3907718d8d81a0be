package lint

import (
	"errors"
	"fmt"
)

// Errors for rule execution.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrTimeout is returned when a rule runs past its execution timeout.
	ErrTimeout = errors.New("lua execution timeout")

	// ErrNoCheckFunction is returned when a script does not define check.
	ErrNoCheckFunction = errors.New("script does not define a check function")
)

// RuleError wraps a failure of one user rule.
type RuleError struct {
	Script string
	Line   int // document line being checked, -1 while loading
	Err    error
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	if e.Line < 0 {
		return fmt.Sprintf("rule %s: %v", e.Script, e.Err)
	}
	return fmt.Sprintf("rule %s (line %d): %v", e.Script, e.Line+1, e.Err)
}

// Unwrap returns the underlying error.
func (e *RuleError) Unwrap() error {
	return e.Err
}
