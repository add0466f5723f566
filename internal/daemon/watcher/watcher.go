// Package watcher handles file system watching for the daemon.
package watcher

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/glance-io/glance/internal/config"
)

// EventType represents the type of file system event.
type EventType int

// Event types for file system changes.
const (
	EventSettingsChanged EventType = iota
	EventCalendarChanged           // events.yaml or the Google token changed
)

func (t EventType) String() string {
	switch t {
	case EventSettingsChanged:
		return "settings"
	case EventCalendarChanged:
		return "calendar"
	}
	return "unknown"
}

// DefaultDebounce coalesces the burst of events a single save produces.
const DefaultDebounce = 100 * time.Millisecond

// Event represents a file system change event.
type Event struct {
	Type EventType
	Path string
}

// Watcher watches the glance config directory.
type Watcher struct {
	dir        string
	delay      time.Duration
	logger     *slog.Logger
	fsWatcher  *fsnotify.Watcher
	eventsChan chan Event
	done       chan struct{}
	stopOnce   sync.Once
	debounce   map[string]*time.Timer
	debounceMu sync.Mutex
}

// New creates a watcher for dir. An empty dir means ~/.glance.
func New(dir string, logger *slog.Logger) (*Watcher, error) {
	if dir == "" {
		d, err := config.GlobalDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if logger == nil {
		logger = slog.Default()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		dir:        dir,
		delay:      DefaultDebounce,
		logger:     logger.With("component", "watcher"),
		fsWatcher:  fsWatcher,
		eventsChan: make(chan Event, 16),
		done:       make(chan struct{}),
		debounce:   make(map[string]*time.Timer),
	}

	return w, nil
}

// Events returns the channel for receiving events.
func (w *Watcher) Events() <-chan Event {
	return w.eventsChan
}

// Start starts the watcher.
func (w *Watcher) Start() error {
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return err
	}

	// Start processing events
	go w.processEvents()

	return nil
}

// Stop stops the watcher and cancels pending debounced events.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsWatcher.Close()
		w.debounceMu.Lock()
		for path, t := range w.debounce {
			t.Stop()
			delete(w.debounce, path)
		}
		w.debounceMu.Unlock()
	})
}

// processEvents processes file system events.
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// handleEvent processes a single file system event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Atomic saves (write tmp, rename onto target) arrive as Create or
	// Rename on the target path. Remove matters for events.yaml.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}
	typ, ok := classify(event.Name)
	if !ok {
		return
	}
	w.logger.Debug("fsnotify", "op", event.Op.String(), "path", event.Name)

	// Debounce events
	w.debounceEvent(event.Name, func() {
		w.emit(Event{Type: typ, Path: event.Name})
	})
}

// classify maps a file in the config directory to an event type.
func classify(path string) (EventType, bool) {
	switch filepath.Base(path) {
	case config.SettingsFileName:
		return EventSettingsChanged, true
	case config.EventsFileName, config.GoogleTokenFileName:
		return EventCalendarChanged, true
	}
	return 0, false
}

// debounceEvent debounces events for the same path.
func (w *Watcher) debounceEvent(path string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	// Cancel existing timer
	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}

	// Create new timer
	w.debounce[path] = time.AfterFunc(w.delay, func() {
		w.debounceMu.Lock()
		delete(w.debounce, path)
		w.debounceMu.Unlock()
		fn()
	})
}

func (w *Watcher) emit(e Event) {
	select {
	case <-w.done:
	case w.eventsChan <- e:
	}
}
