package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces bursts of editor writes into one reload.
const DefaultDebounce = 250 * time.Millisecond

// reloader is the consumer interface the watcher drives.
type reloader interface {
	Reload(ctx context.Context) error
}

// Watcher reloads the registry when catalog files in a directory change.
type Watcher struct {
	dir      string
	pattern  string
	debounce time.Duration
	target   reloader
	logger   *zap.Logger
	// reloaded is signalled after each reload attempt (tests).
	reloaded chan error
}

// NewWatcher creates a watcher over dir. Only paths matching pattern trigger reloads.
func NewWatcher(dir, pattern string, target reloader, logger *zap.Logger) *Watcher {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:      dir,
		pattern:  pattern,
		debounce: DefaultDebounce,
		target:   target,
		logger:   logger,
	}
}

// WithDebounce overrides the debounce window.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// Run watches until ctx is cancelled. It blocks; run it in its own goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := w.addTree(fw); err != nil {
		return err
	}
	w.logger.Info("Watching catalog directory", zap.String("dir", w.dir), zap.String("pattern", w.pattern))

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					// new subdirectories are watched too; their files arrive as later events
					_ = fw.Add(event.Name)
				}
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("Catalog file changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Catalog watcher error", zap.Error(err))

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			err := w.target.Reload(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Warn("Catalog reload rejected", zap.Error(err))
			}
			if w.reloaded != nil {
				select {
				case w.reloaded <- err:
				default:
				}
			}
		}
	}
}

// relevant reports whether an event touches a catalog file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	rel, err := filepath.Rel(w.dir, event.Name)
	if err != nil {
		return false
	}
	ok, _ := doublestar.Match(w.pattern, filepath.ToSlash(rel))
	return ok
}

func (w *Watcher) addTree(fw *fsnotify.Watcher) error {
	err := filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := fw.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch catalog dir: %w", err)
	}
	return nil
}
