package watcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchSet records the watched paths and how many of them rely on each
// directory registered with fsnotify. A watched file registers its parent
// directory, so editors that save by writing a new file and renaming it
// over the old one are still seen.
type watchSet struct {
	paths map[string]bool // absolute path -> is a directory
	dirs  map[string]int  // fsnotify directory -> users
}

func newWatchSet() *watchSet {
	return &watchSet{paths: make(map[string]bool), dirs: make(map[string]int)}
}

// dirFor returns the directory fsnotify must watch for path.
func dirFor(path string, isDir bool) string {
	if isDir {
		return path
	}
	return filepath.Dir(path)
}

// add records path and reports whether its directory is new.
func (s *watchSet) add(path string, isDir bool) (dir string, fresh bool) {
	dir = dirFor(path, isDir)
	s.paths[path] = isDir
	s.dirs[dir]++
	return dir, s.dirs[dir] == 1
}

// remove forgets path and reports whether its directory has no users left.
func (s *watchSet) remove(path string) (dir string, unused bool) {
	dir = dirFor(path, s.paths[path])
	delete(s.paths, path)
	if s.dirs[dir]--; s.dirs[dir] > 0 {
		return dir, false
	}
	delete(s.dirs, dir)
	return dir, true
}

// covers reports whether path is a watched file or sits directly in a
// watched directory.
func (s *watchSet) covers(path string) bool {
	if isDir, ok := s.paths[path]; ok {
		return !isDir
	}
	return s.paths[filepath.Dir(path)]
}

// FSNotifyWatcher implements Watcher with fsnotify. Directories are watched
// one level deep; datacards do not live in nested trees.
type FSNotifyWatcher struct {
	config Config
	fsw    *fsnotify.Watcher

	mu     sync.RWMutex
	set    *watchSet
	closed bool

	events    chan Event
	errors    chan error
	delivered atomic.Int64
	stopped   chan struct{}
}

// NewFSNotifyWatcher creates a new fsnotify-based watcher.
func NewFSNotifyWatcher(opts ...Option) (*FSNotifyWatcher, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}

	fsw, err := fsnotify.NewBufferedWatcher(uint(config.BufferSize))
	if err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}

	w := &FSNotifyWatcher{
		config:  config,
		fsw:     fsw,
		set:     newWatchSet(),
		events:  make(chan Event, config.BufferSize),
		errors:  make(chan error, config.BufferSize),
		stopped: make(chan struct{}),
	}
	go w.pump()
	return w, nil
}

// Watch starts watching a file or directory.
func (w *FSNotifyWatcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		return ErrPathNotExist
	}
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.closed:
		return ErrWatcherClosed
	case w.hasLocked(abs):
		return ErrAlreadyWatching
	}

	dir, fresh := w.set.add(abs, info.IsDir())
	if !fresh {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		w.set.remove(abs)
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	return nil
}

// Unwatch stops watching a path.
func (w *FSNotifyWatcher) Unwatch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.closed:
		return ErrWatcherClosed
	case !w.hasLocked(abs):
		return ErrNotWatching
	}

	dir, unused := w.set.remove(abs)
	if !unused {
		return nil
	}
	// The directory may already be gone, taking its watch with it.
	if err := w.fsw.Remove(dir); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
		return err
	}
	return nil
}

func (w *FSNotifyWatcher) hasLocked(abs string) bool {
	_, ok := w.set.paths[abs]
	return ok
}

// Events returns the event channel.
func (w *FSNotifyWatcher) Events() <-chan Event {
	return w.events
}

// Errors returns the error channel.
func (w *FSNotifyWatcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and closes both channels.
func (w *FSNotifyWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	// Closing fsnotify closes its channels, which ends pump.
	err := w.fsw.Close()
	<-w.stopped
	return err
}

// IsWatching returns true if the path is being watched.
func (w *FSNotifyWatcher) IsWatching(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.hasLocked(abs)
}

// WatchedPaths returns all watched paths.
func (w *FSNotifyWatcher) WatchedPaths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	paths := make([]string, 0, len(w.set.paths))
	for p := range w.set.paths {
		paths = append(paths, p)
	}
	return paths
}

// TotalEvents returns the number of events delivered so far.
func (w *FSNotifyWatcher) TotalEvents() int64 {
	return w.delivered.Load()
}

// pump translates fsnotify events until fsnotify is closed.
func (w *FSNotifyWatcher) pump() {
	defer close(w.stopped)
	defer close(w.errors)
	defer close(w.events)

	fsEvents, fsErrors := w.fsw.Events, w.fsw.Errors
	for fsEvents != nil || fsErrors != nil {
		select {
		case fe, ok := <-fsEvents:
			if !ok {
				fsEvents = nil
				continue
			}
			if ev, keep := w.translate(fe); keep {
				w.deliver(ev)
			}
		case err, ok := <-fsErrors:
			if !ok {
				fsErrors = nil
				continue
			}
			w.report(err)
		}
	}
}

// translate converts fe, dropping chmod-only events and paths that are not
// watched or filtered out by the configuration.
func (w *FSNotifyWatcher) translate(fe fsnotify.Event) (Event, bool) {
	var op Op
	for _, m := range opMap {
		if fe.Op.Has(m.fs) {
			op |= m.op
		}
	}
	if op == 0 {
		return Event{}, false
	}

	path := filepath.Clean(fe.Name)
	w.mu.RLock()
	covered := w.set.covers(path)
	w.mu.RUnlock()
	if !covered || !w.config.Matches(path) {
		return Event{}, false
	}
	return Event{Path: path, Op: op, Timestamp: time.Now()}, true
}

var opMap = []struct {
	fs fsnotify.Op
	op Op
}{
	{fsnotify.Create, OpCreate},
	{fsnotify.Write, OpWrite},
	{fsnotify.Remove, OpRemove},
	{fsnotify.Rename, OpRename},
}

// deliver hands ev on, reporting an overflow instead of blocking fsnotify.
func (w *FSNotifyWatcher) deliver(ev Event) {
	select {
	case w.events <- ev:
		w.delivered.Add(1)
	default:
		w.report(fmt.Errorf("watcher: event buffer full, dropped %s %s", ev.Op, ev.Path))
	}
}

func (w *FSNotifyWatcher) report(err error) {
	select {
	case w.errors <- err:
	default:
	}
}

var _ Watcher = (*FSNotifyWatcher)(nil)
