package lint

import (
	"fmt"
	"strings"
)

// Severity of a diagnostic. The values match the LSP DiagnosticSeverity
// numbering.
type Severity int

const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
	SeverityHint        Severity = 4
)

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// ParseSeverity maps a name returned by a rule to a Severity. Unknown names
// yield SeverityWarning.
func ParseSeverity(name string) Severity {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "error":
		return SeverityError
	case "info", "information":
		return SeverityInformation
	case "hint":
		return SeverityHint
	default:
		return SeverityWarning
	}
}

// Built-in diagnostic codes.
const (
	CodeHeaderMissing  = "header-missing"
	CodeHeaderNotAtTop = "header-not-at-top"
	CodeSectionMissing = "section-missing"
	CodeMisaligned     = "misaligned"
	CodeColumnOverflow = "column-overflow"
)

// Diagnostic is a finding attached to a line range.
type Diagnostic struct {
	StartLine int
	EndLine   int
	Severity  Severity
	Code      string
	Message   string
}

// String formats the diagnostic as "line: severity [code] message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%d: %s [%s] %s", d.StartLine+1, d.Severity, d.Code, d.Message)
}
