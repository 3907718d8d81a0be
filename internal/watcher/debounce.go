package watcher

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// DebouncedWatcher wraps a Watcher and holds each path's events until the
// path has been quiet for the delay, then delivers one event carrying every
// operation seen in the meantime. Editors typically save a card as a
// truncate, a write and a chmod; the runner sees a single write.
//
// One goroutine owns the pending set, so events are never dropped: delivery
// waits for the consumer.
type DebouncedWatcher struct {
	inner Watcher
	delay time.Duration

	events  chan Event
	errors  chan error
	flushCh chan chan struct{}

	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	pending   atomic.Int32
}

// settling is an event waiting out its quiet period.
type settling struct {
	event Event
	due   time.Time
}

// NewDebouncedWatcher creates a debounced watcher wrapper.
// A non-positive delay selects the default of DefaultConfig.
func NewDebouncedWatcher(inner Watcher, delay time.Duration) *DebouncedWatcher {
	if delay <= 0 {
		delay = DefaultConfig().DebounceDelay
	}

	dw := &DebouncedWatcher{
		inner:   inner,
		delay:   delay,
		events:  make(chan Event, DefaultConfig().BufferSize),
		errors:  make(chan error, DefaultConfig().BufferSize),
		flushCh: make(chan chan struct{}),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go dw.loop()
	return dw
}

// Watch starts watching a path.
func (dw *DebouncedWatcher) Watch(path string) error {
	return dw.inner.Watch(path)
}

// Unwatch stops watching a path.
func (dw *DebouncedWatcher) Unwatch(path string) error {
	return dw.inner.Unwatch(path)
}

// Events returns the debounced event channel. It is closed when the
// watcher stops.
func (dw *DebouncedWatcher) Events() <-chan Event {
	return dw.events
}

// Errors returns the error channel.
func (dw *DebouncedWatcher) Errors() <-chan error {
	return dw.errors
}

// WatchedPaths returns all watched paths.
func (dw *DebouncedWatcher) WatchedPaths() []string {
	return dw.inner.WatchedPaths()
}

// Close stops the debounced watcher and the wrapped one. Events still
// settling are discarded.
func (dw *DebouncedWatcher) Close() error {
	first := false
	dw.closeOnce.Do(func() {
		first = true
		close(dw.done)
	})
	<-dw.stopped
	if !first {
		return nil
	}
	return dw.inner.Close()
}

// Flush delivers every settling event now, without waiting for its quiet
// period. It returns once they have been handed to the event channel.
func (dw *DebouncedWatcher) Flush() {
	ack := make(chan struct{})
	select {
	case dw.flushCh <- ack:
		<-ack
	case <-dw.stopped:
	}
}

// PendingCount returns the number of paths still settling.
func (dw *DebouncedWatcher) PendingCount() int {
	return int(dw.pending.Load())
}

func (dw *DebouncedWatcher) loop() {
	defer close(dw.stopped)
	defer close(dw.errors)
	defer close(dw.events)

	pending := make(map[string]*settling)
	timer := time.NewTimer(dw.delay)
	timer.Stop()
	defer timer.Stop()

	// rearm points the timer at the earliest deadline.
	rearm := func() {
		dw.pending.Store(int32(len(pending)))
		timer.Stop()
		var next time.Time
		for _, s := range pending {
			if next.IsZero() || s.due.Before(next) {
				next = s.due
			}
		}
		if !next.IsZero() {
			timer.Reset(time.Until(next))
		}
	}

	// release delivers the settled events in deadline order. It reports
	// false when the watcher was closed while waiting on the consumer.
	release := func(all bool) bool {
		now := time.Now()
		var ready []*settling
		for path, s := range pending {
			if all || !s.due.After(now) {
				ready = append(ready, s)
				delete(pending, path)
			}
		}
		slices.SortFunc(ready, func(a, b *settling) int {
			return a.due.Compare(b.due)
		})
		for _, s := range ready {
			select {
			case dw.events <- s.event:
			case <-dw.done:
				return false
			}
		}
		rearm()
		return true
	}

	for {
		select {
		case <-dw.done:
			return

		case ev, ok := <-dw.inner.Events():
			if !ok {
				return
			}
			if s, exists := pending[ev.Path]; exists {
				s.event.Op |= ev.Op
				s.event.Timestamp = ev.Timestamp
				s.due = time.Now().Add(dw.delay)
			} else {
				pending[ev.Path] = &settling{event: ev, due: time.Now().Add(dw.delay)}
			}
			rearm()

		case err, ok := <-dw.inner.Errors():
			if !ok {
				return
			}
			select {
			case dw.errors <- err:
			case <-dw.done:
				return
			}

		case <-timer.C:
			if !release(false) {
				return
			}

		case ack := <-dw.flushCh:
			ok := release(true)
			close(ack)
			if !ok {
				return
			}
		}
	}
}

var _ Watcher = (*DebouncedWatcher)(nil)
