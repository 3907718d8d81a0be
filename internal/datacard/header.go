package datacard

// FindHeader returns the index of the first line that begins an
// imax/jmax/kmax run of three consecutive lines. The second result is false
// when no such run exists, meaning the document is not a datacard.
func FindHeader(doc Document) (int, bool) {
	n := doc.LineCount()
	for i := 0; i+2 < n; i++ {
		if HasHeaderPrefix(doc.LineText(i), 0) &&
			HasHeaderPrefix(doc.LineText(i+1), 1) &&
			HasHeaderPrefix(doc.LineText(i+2), 2) {
			return i, true
		}
	}
	return -1, false
}

// Detect reports whether doc is recognized as a datacard: the header marker
// exists anywhere in the document.
func Detect(doc Document) bool {
	_, ok := FindHeader(doc)
	return ok
}

// DetectStrict reports whether the header marker occupies exactly the first
// three lines. Editors use it to auto-classify plain text files without
// scanning them.
func DetectStrict(doc Document) bool {
	line, ok := FindHeader(doc)
	return ok && line == 0
}
