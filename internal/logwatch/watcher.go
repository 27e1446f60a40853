// Package logwatch reopens log files that are moved or deleted out from
// under a running process, e.g. by logrotate or an operator.
package logwatch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

var (
	// ErrWatcherFailed indicates the filesystem watcher failed to initialize
	ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

	// ErrNoTargets indicates the watcher was created without anything to watch
	ErrNoTargets = errors.New("no log files to watch")
)

// DefaultDebounce is how long the watcher waits after the last event on a
// path before reopening it. Rotation tools usually rename and recreate in
// quick succession.
const DefaultDebounce = 100 * time.Millisecond

// Reopener is a log destination bound to a path. RotatingFileSink
// implements it.
type Reopener interface {
	Path() string
	Reopen() error
}

// Event reports one reopen attempt.
type Event struct {
	// Path is the absolute path of the log file
	Path string

	// Op is the filesystem operation that triggered the reopen
	Op fsnotify.Op

	// Err is the result of Reopen
	Err error

	// Timestamp is when the reopen ran
	Timestamp time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the delay between the last event on a path and the
// reopen. Zero reopens immediately.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = max(d, 0)
	}
}

// WithLogger sets the logger for watcher diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Watcher watches the directories holding its targets and calls Reopen when
// a target's path is removed, renamed or recreated.
type Watcher struct {
	watcher  *fsnotify.Watcher
	targets  map[string][]Reopener // keyed by absolute path
	dirs     []string
	debounce time.Duration
	logger   *zap.Logger

	events chan Event
	stop   chan struct{}

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// New creates a watcher for targets. Several targets may share a path.
func New(targets []Reopener, opts ...Option) (*Watcher, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	w := &Watcher{
		targets:  make(map[string][]Reopener),
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
		events:   make(chan Event, 16),
		stop:     make(chan struct{}),
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}

	seen := make(map[string]bool)
	for _, t := range targets {
		path, err := filepath.Abs(t.Path())
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", t.Path(), err)
		}
		w.targets[path] = append(w.targets[path], t)
		if dir := filepath.Dir(path); !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	w.watcher = watcher
	return w, nil
}

// Start begins watching. Events are processed on a background goroutine
// until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range w.dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.processEvents(ctx)
	}()
	return nil
}

// Stop stops the watcher, cancels pending reopens and waits for the event
// loop and any reopen already running to finish. Safe to call more than once.
func (w *Watcher) Stop() {
	select {
	case <-w.stop:
		return
	default:
		close(w.stop)
		_ = w.watcher.Close() // Best-effort cleanup, ignore error
	}

	w.mu.Lock()
	for path, timer := range w.pending {
		if timer.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// Events returns the channel of reopen results. Events are dropped when
// nobody reads them.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename|fsnotify.Create) == 0 {
				continue
			}
			path := filepath.Clean(event.Name)
			if _, watched := w.targets[path]; watched {
				w.schedule(path, event.Op)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Log error but continue watching
			w.logger.Warn("log watcher error", zap.Error(err))
		}
	}
}

// schedule runs reopen for path after the debounce delay, restarting the
// delay if one is already pending. Every timer holds a wg slot from creation
// until its callback returns or it is stopped before firing.
func (w *Watcher) schedule(path string, op fsnotify.Op) {
	if w.debounce == 0 {
		w.reopen(path, op)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[path]; ok && timer.Stop() {
		w.wg.Done()
	}

	w.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[path] == timer {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		w.reopen(path, op)
	})
	w.pending[path] = timer
}

func (w *Watcher) reopen(path string, op fsnotify.Op) {
	select {
	case <-w.stop:
		return
	default:
	}

	var errs []error
	for _, t := range w.targets[path] {
		if err := t.Reopen(); err != nil {
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		w.logger.Warn("failed to reopen log file", zap.String("path", path), zap.Error(err))
	} else {
		w.logger.Debug("log file checked after filesystem event",
			zap.String("path", path), zap.Stringer("op", op))
	}

	event := Event{Path: path, Op: op, Err: err, Timestamp: time.Now()}

	// Send event (non-blocking)
	select {
	case w.events <- event:
	default:
		// Channel full, skip event
	}
}
