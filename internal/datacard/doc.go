// Package datacard recognizes and segments statistical-analysis datacards.
//
// A datacard is a line-oriented text file made of blocks separated by divider
// lines of three or more dashes. The mandatory header block is marked by three
// consecutive lines starting with imax, jmax and kmax. Optional shape-template
// and channel/process/systematics blocks follow.
//
// The package provides:
//
//   - Pattern matchers for divider, header and shapes lines
//   - Divider scanning and block computation
//   - Header location and format detection
//   - Per-line section indexes and canonical section classification
//   - Folding ranges and outline symbols derived from the segmentation
//
// Basic usage:
//
//	doc := datacard.SplitLines(text)
//	if !datacard.Detect(doc) {
//	    return
//	}
//	a := datacard.Analyze(doc)
//	section := a.Section(12) // e.g. SectionProcesses
//
// Every function is pure: results are derived from the document passed in and
// nothing is retained between calls except in an explicit Cache.
package datacard
