package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrClosed is returned when operations are called on a closed Watcher.
var ErrClosed = errors.New("watcher: watcher is closed")

// DefaultPollInterval is used when falling back to polling.
const DefaultPollInterval = time.Second

// Handler receives the events of one debounce window.
type Handler func(events []Event)

// ErrorHandler is called when a watch error occurs.
type ErrorHandler func(err error)

// Watcher watches directory trees recursively and delivers debounced
// event batches to its Handler.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	debouncer    *Debouncer
	handler      Handler
	errorHandler ErrorHandler
	ignore       func(path string) bool
	window       time.Duration

	// Poll mode (used when fsnotify is unavailable or forced)
	pollMode     bool
	forcePoll    bool
	pollInterval time.Duration
	snapshots    map[string]fileMeta
	closeCh      chan struct{}

	mu           sync.Mutex
	watchedPaths map[string]bool
	pending      []Event
	closed       bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce window.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.window = d
		}
	}
}

// WithIgnore sets a predicate for directories that must not be registered.
// Events are still delivered for paths the predicate matches; callers
// filter those themselves.
func WithIgnore(ignore func(path string) bool) Option {
	return func(w *Watcher) {
		w.ignore = ignore
	}
}

// WithErrorHandler sets the error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(w *Watcher) {
		w.errorHandler = handler
	}
}

// WithPollInterval sets the polling interval used in poll mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithPolling forces polling mode.
func WithPolling(force bool) Option {
	return func(w *Watcher) {
		w.forcePoll = force
	}
}

// New creates a Watcher. It falls back to polling when fsnotify cannot be
// initialised.
func New(handler Handler, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		handler:      handler,
		window:       DefaultDebounce,
		pollInterval: DefaultPollInterval,
		watchedPaths: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.window, w.flush)

	if w.forcePoll {
		w.pollMode = true
	} else {
		fsWatcher, err := fsnotify.NewWatcher()
		if err != nil {
			w.reportError(fmt.Errorf("fsnotify unavailable, using polling fallback: %w", err))
			w.pollMode = true
		} else {
			w.fsWatcher = fsWatcher
		}
	}

	if w.pollMode {
		w.snapshots = make(map[string]fileMeta)
		w.closeCh = make(chan struct{})
		go w.runPoll()
	} else {
		go w.run()
	}

	return w, nil
}

// Add watches path and, for directories, every non-ignored subdirectory.
func (w *Watcher) Add(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if w.watchedPaths[absPath] {
		return nil
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return err
	}

	if w.pollMode {
		entries, err := entriesForPath(absPath, info, w.isIgnored)
		if err != nil {
			return err
		}
		for p, meta := range entries {
			w.snapshots[p] = meta
		}
		w.watchedPaths[absPath] = true
		return nil
	}

	if info.IsDir() {
		return w.addRecursive(absPath)
	}
	if err := w.fsWatcher.Add(absPath); err != nil {
		return err
	}
	w.watchedPaths[absPath] = true
	return nil
}

// Close stops the watcher and releases resources. Pending events are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.debouncer.Stop()
	w.pending = nil

	if w.pollMode {
		close(w.closeCh)
		return nil
	}
	return w.fsWatcher.Close()
}

// WatchedPaths returns every path registered with the backend.
func (w *Watcher) WatchedPaths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0, len(w.watchedPaths))
	for p := range w.watchedPaths {
		paths = append(paths, p)
	}
	return paths
}

// Polling reports whether the watcher runs in poll mode.
func (w *Watcher) Polling() bool {
	return w.pollMode
}

func (w *Watcher) isIgnored(path string) bool {
	return w.ignore != nil && w.ignore(path)
}

func (w *Watcher) reportError(err error) {
	if w.errorHandler != nil {
		w.errorHandler(err)
	}
}

// addRecursive registers root and all of its subdirectories.
// Must be called with w.mu held.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			w.reportError(fmt.Errorf("walking %s: %w", path, err))
			return filepath.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.isIgnored(path) {
			return filepath.SkipDir
		}
		if w.watchedPaths[path] {
			return nil
		}
		if err := w.fsWatcher.Add(path); err != nil {
			if path == root {
				return err
			}
			// Typically the inotify watch limit; keep registering the rest.
			w.reportError(fmt.Errorf("watching %s: %w", path, err))
			return nil
		}
		w.watchedPaths[path] = true
		return nil
	})
}

// run processes events from fsnotify.
func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.reportError(err)
		}
	}
}

func (w *Watcher) handleEvent(fsEvent fsnotify.Event) {
	kind, ok := kindFromFsnotify(fsEvent.Op)
	if !ok {
		return
	}

	isDir := false
	if kind != Deleted {
		if info, err := os.Stat(fsEvent.Name); err == nil {
			isDir = info.IsDir()
		}
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	switch {
	case kind == Created && isDir && !w.isIgnored(fsEvent.Name):
		// Directories created after startup (including mkdir -p trees)
		// need their own registrations.
		if err := w.addRecursive(fsEvent.Name); err != nil {
			w.reportError(err)
		}
	case kind == Deleted:
		w.forgetTree(fsEvent.Name)
	}
	w.pending = append(w.pending, Event{Kind: kind, Path: fsEvent.Name, IsDir: isDir})
	w.mu.Unlock()

	w.debouncer.Trigger()
}

// forgetTree drops path and everything below it from watchedPaths, so a
// recreated tree is registered again. Callers hold w.mu.
func (w *Watcher) forgetTree(path string) {
	prefix := path + string(filepath.Separator)
	for p := range w.watchedPaths {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(w.watchedPaths, p)
		}
	}
}

// flush delivers the events collected during the elapsed window.
func (w *Watcher) flush() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	toDeliver := w.pending
	w.pending = nil
	w.mu.Unlock()

	if len(toDeliver) > 0 && w.handler != nil {
		w.handler(toDeliver)
	}
}
