// Package watcher watches datacard files for changes and re-checks them.
//
// FSNotifyWatcher reports file system events for watched files and
// directories, filtered by file extension. DebouncedWatcher coalesces bursts
// of events on the same path. Runner consumes the events, re-runs detection
// and lint on each changed file, and optionally aligns it in place.
package watcher

import (
	"errors"
	"path/filepath"
	"strings"
	"time"
)

// Common errors returned by watcher operations.
var (
	ErrWatcherClosed   = errors.New("watcher is closed")
	ErrAlreadyWatching = errors.New("path is already being watched")
	ErrNotWatching     = errors.New("path is not being watched")
	ErrPathNotExist    = errors.New("path does not exist")
)

// Op represents the type of file system operation.
type Op uint32

const (
	// OpCreate indicates a file was created.
	OpCreate Op = 1 << iota
	// OpWrite indicates a file was written to.
	OpWrite
	// OpRemove indicates a file was removed.
	OpRemove
	// OpRename indicates a file was renamed.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Op) String() string {
	var parts []string
	for _, o := range []struct {
		op   Op
		name string
	}{
		{OpCreate, "CREATE"},
		{OpWrite, "WRITE"},
		{OpRemove, "REMOVE"},
		{OpRename, "RENAME"},
	} {
		if op.Has(o.op) {
			parts = append(parts, o.name)
		}
	}
	if len(parts) == 0 {
		return "UNKNOWN"
	}
	return strings.Join(parts, "|")
}

// Has returns true if the operation includes the given op.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// Event represents a file change.
type Event struct {
	// Path is the absolute path of the affected file.
	Path string

	// Op is the operation that occurred. Debounced events may combine
	// several operations.
	Op Op

	// Timestamp is when the (last) change was seen.
	Timestamp time.Time
}

// Watcher monitors file changes.
type Watcher interface {
	// Watch starts watching a file or a directory. Directories are watched
	// non-recursively. Returns ErrAlreadyWatching if the path is already
	// being watched.
	Watch(path string) error

	// Unwatch stops watching a path.
	// Returns ErrNotWatching if the path isn't being watched.
	Unwatch(path string) error

	// Events returns the channel of file change events.
	// The channel is closed when the watcher is closed.
	Events() <-chan Event

	// Errors returns the channel of watcher errors.
	// The channel is closed when the watcher is closed.
	Errors() <-chan error

	// Close stops the watcher and releases resources.
	Close() error

	// WatchedPaths returns all paths being watched.
	WatchedPaths() []string
}

// Config holds watcher configuration options.
type Config struct {
	// DebounceDelay is the quiet period before a change is delivered.
	// Default: 200ms
	DebounceDelay time.Duration

	// BufferSize is the size of the event and error channels.
	// Default: 100
	BufferSize int

	// Extensions lists the file extensions (with the leading dot) whose
	// changes are reported. Empty means every file.
	// Default: .txt, .dc
	Extensions []string

	// IgnoreHidden ignores files whose name starts with a dot.
	// Default: true
	IgnoreHidden bool
}

// DefaultConfig returns a Config with the default settings.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 200 * time.Millisecond,
		BufferSize:    100,
		Extensions:    []string{".txt", ".dc"},
		IgnoreHidden:  true,
	}
}

// Option configures a watcher.
type Option func(*Config)

// WithDebounceDelay sets the debounce delay.
func WithDebounceDelay(d time.Duration) Option {
	return func(c *Config) {
		c.DebounceDelay = d
	}
}

// WithBufferSize sets the channel buffer size.
func WithBufferSize(size int) Option {
	return func(c *Config) {
		c.BufferSize = size
	}
}

// WithExtensions sets the reported file extensions.
func WithExtensions(exts []string) Option {
	return func(c *Config) {
		c.Extensions = exts
	}
}

// WithIgnoreHidden controls whether dot files are ignored.
func WithIgnoreHidden(ignore bool) Option {
	return func(c *Config) {
		c.IgnoreHidden = ignore
	}
}

// Matches reports whether changes to path should be reported under c.
func (c Config) Matches(path string) bool {
	base := filepath.Base(path)
	if c.IgnoreHidden && strings.HasPrefix(base, ".") {
		return false
	}
	if len(c.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(base)
	for _, e := range c.Extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
