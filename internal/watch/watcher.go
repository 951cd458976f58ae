// Package watch feeds changes of a single file into a store callback: the
// keyboard brightness attribute, and the daemon's own config file.
package watch

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses bursts of writes into one read.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reads a file after it changes and passes the value to a store
// callback. Handlers registered with OnChange run only when the store
// reports that it accepted the value.
type Watcher[T any] struct {
	path     string
	debounce time.Duration
	viaDir   bool
	read     func() (T, error)
	store    func(T) (bool, error)
	onError  func(error)
	logger   *slog.Logger

	mu       sync.Mutex
	handlers map[int]func(T)
	nextID   int

	fsw      *fsnotify.Watcher
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option[T any] func(*Watcher[T])

// WithDebounce sets how long the file must stay quiet before it is read.
// Zero reads on every event.
func WithDebounce[T any](d time.Duration) Option[T] {
	return func(w *Watcher[T]) { w.debounce = d }
}

// WithErrorHandler receives read and store errors, which are logged either way.
func WithErrorHandler[T any](fn func(error)) Option[T] {
	return func(w *Watcher[T]) { w.onError = fn }
}

// WithReplaceFollow watches the parent directory instead of the file, so a
// file replaced by rename, as editors and config management do, keeps
// being followed.
func WithReplaceFollow[T any]() Option[T] {
	return func(w *Watcher[T]) { w.viaDir = true }
}

// New creates a stopped watcher for path.
func New[T any](path string, read func() (T, error), store func(T) (bool, error), logger *slog.Logger, opts ...Option[T]) *Watcher[T] {
	w := &Watcher[T]{
		path:     filepath.Clean(path),
		debounce: DefaultDebounce,
		read:     read,
		store:    store,
		logger:   logger,
		handlers: make(map[int]func(T)),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// OnChange registers fn and returns a func that removes it.
func (w *Watcher[T]) OnChange(fn func(T)) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.handlers[id] = fn
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.handlers, id)
		w.mu.Unlock()
	}
}

// Start adds the inotify watch and starts the event loop.
func (w *Watcher[T]) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	target := w.path
	if w.viaDir {
		target = filepath.Dir(w.path)
	}
	if err := fsw.Add(target); err != nil {
		fsw.Close()
		return err
	}
	w.fsw = fsw

	w.logger.Info("Watching file", "path", w.path, "debounce", w.debounce, "via_dir", w.viaDir)
	go w.loop()
	return nil
}

// Stop ends the loop and waits for it. Safe to call more than once, and
// after a failed Start.
func (w *Watcher[T]) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.quit)
		if w.fsw == nil {
			return
		}
		err = w.fsw.Close()
		<-w.done
	})
	return err
}

func (w *Watcher[T]) relevant(ev fsnotify.Event) bool {
	return filepath.Clean(ev.Name) == w.path && (ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create))
}

func (w *Watcher[T]) loop() {
	defer close(w.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.quit:
			w.logger.Debug("Stopped watching file", "path", w.path)
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if w.debounce <= 0 {
				w.handle()
			} else {
				timer.Reset(w.debounce)
			}

		case <-timer.C:
			w.handle()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("inotify error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher[T]) handle() {
	value, err := w.read()
	if err != nil {
		w.report("Failed to read watched file", err)
		return
	}
	accepted, err := w.store(value)
	if err != nil {
		w.report("Failed to store watched value", err)
		return
	}
	if !accepted {
		return
	}

	w.mu.Lock()
	handlers := make([]func(T), 0, len(w.handlers))
	for _, fn := range w.handlers {
		handlers = append(handlers, fn)
	}
	w.mu.Unlock()

	for _, fn := range handlers {
		fn(value)
	}
}

func (w *Watcher[T]) report(msg string, err error) {
	w.logger.Warn(msg, "path", w.path, "error", err)
	if w.onError != nil {
		w.onError(err)
	}
}
