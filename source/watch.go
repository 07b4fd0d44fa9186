package source

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period a Watcher waits before reporting.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changes to one local payload file. Bursts of writes
// (editors often write, rename and chmod in quick succession) collapse
// into a single notification once the file has been quiet for the
// debounce window.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger

	fsw      *fsnotify.Watcher
	changes  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithWatchLogger sets the watcher's logger.
func WithWatchLogger(l *slog.Logger) WatchOption {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher watches path. The parent directory is watched so that
// replace-by-rename saves are seen.
func NewWatcher(path string, opts ...WatchOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		debounce: DefaultDebounce,
		logger:   applyOptions(nil).logger,
		fsw:      fsw,
		changes:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// C delivers one value per settled change. Undrained notifications
// coalesce.
func (w *Watcher) C() <-chan struct{} { return w.changes }

// Run processes file events until ctx is done or Close is called.
func (w *Watcher) Run(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("source: watch error", "path", w.path, "error", err)
		case <-timerC:
			timerC = nil
			w.logger.Debug("source: payload changed", "path", w.path)
			select {
			case w.changes <- struct{}{}:
			default:
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}
