// Package buffer provides a thread-safe, line-addressable text buffer with
// revision tracking.
//
// The buffer package provides:
//
//   - Thread-safe read/write access via sync.RWMutex
//   - Line-range replacement as a single atomic step
//   - Read-only snapshots for concurrent access
//   - Revision IDs for stale-edit detection
//   - UTF-16 column conversion for LSP clients
//
// Basic usage:
//
//	buf := buffer.NewBufferFromString("bin a\nprocess s b")
//
//	// Replace line 1
//	buf.ReplaceLines(1, 1, "process   s   b")
//
//	// Transform from a snapshot; concurrent Updates are serialized and an
//	// intervening write makes the edit fail with ErrStaleRevision.
//	buf.Update(func(s *buffer.Snapshot) (buffer.LineEdit, bool, error) {
//	    return buffer.NewLineEdit(0, 0, strings.ToUpper(s.LineText(0))), true, nil
//	})
//
// Both Buffer and Snapshot satisfy datacard.Document, so either can be
// analyzed directly.
package buffer
