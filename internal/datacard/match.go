package datacard

import (
	"regexp"
	"strings"
)

// Precompiled matchers. All of them operate on a single line and ignore
// surrounding whitespace.
var (
	dividerPattern = regexp.MustCompile(`^-{3,}$`)
	shapesPattern  = regexp.MustCompile(`(?i)^shapes(?:\s|$)`)
)

// HeaderKeywords are the line prefixes that, on three consecutive lines,
// mark the header block.
var HeaderKeywords = [3]string{"imax", "jmax", "kmax"}

// DividerMatch describes a divider line.
type DividerMatch struct {
	// Width is the number of dashes after trimming.
	Width int
}

// MatchDivider reports whether line, trimmed, consists solely of three or
// more '-' characters.
func MatchDivider(line string) (DividerMatch, bool) {
	t := strings.TrimSpace(line)
	if !dividerPattern.MatchString(t) {
		return DividerMatch{}, false
	}
	return DividerMatch{Width: len(t)}, true
}

// IsDivider reports whether line is a divider line.
func IsDivider(line string) bool {
	_, ok := MatchDivider(line)
	return ok
}

// IsBlank reports whether line is empty after trimming.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// IsComment reports whether line, trimmed, starts with '#'.
func IsComment(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "#")
}

// IsShapesLine reports whether line, trimmed, starts with the token "shapes"
// in any letter case.
func IsShapesLine(line string) bool {
	return shapesPattern.MatchString(strings.TrimSpace(line))
}

// HasHeaderPrefix reports whether line, trimmed, starts with the header
// keyword at position k (0 = imax, 1 = jmax, 2 = kmax).
func HasHeaderPrefix(line string, k int) bool {
	if k < 0 || k >= len(HeaderKeywords) {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(line), HeaderKeywords[k])
}

// FirstToken returns the first whitespace-delimited token of line, or "".
func FirstToken(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
