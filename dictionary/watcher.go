package dictionary

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is how long to wait for further writes before reloading.
// Editors and atomic-save tools often emit several events per save.
const defaultDebounce = 500 * time.Millisecond

// Watcher reloads a dictionary when its backing file changes. Watching is
// optional; without it the dictionary stays as loaded at startup.
type Watcher struct {
	dict     *Dictionary
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a watcher for a file-backed dictionary.
func NewWatcher(dict *Dictionary, logger *slog.Logger) (*Watcher, error) {
	if dict.path == "" {
		return nil, fmt.Errorf("dictionary has no backing file to watch")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		dict:     dict,
		debounce: defaultDebounce,
		logger:   logger,
	}, nil
}

// Run watches until ctx is cancelled. A failed reload keeps the previous
// word set and is logged.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory rather than the file: rename-and-replace saves
	// would otherwise drop the watch.
	dir := filepath.Dir(w.dict.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	w.logger.Info("Watching dictionary for changes", "path", w.dict.path)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.dict.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if err := w.dict.Reload(); err != nil {
				w.logger.Warn("Dictionary reload failed, keeping previous word set", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Dictionary watcher error", "error", err)
		}
	}
}
