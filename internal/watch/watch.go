// Package watch reruns generation when files under a project root change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before OnChange runs.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches Root recursively.
type Watcher struct {
	Root string

	// Exclude lists paths, absolute or relative to Root, whose events are
	// ignored. Generated output directories belong here.
	Exclude []string

	Debounce time.Duration
	Logger   *slog.Logger

	// OnChange runs once per burst of events. Errors are logged and
	// watching continues.
	OnChange func(ctx context.Context) error
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addRecursive(fw, w.Root, logger); err != nil {
		return fmt.Errorf("failed to add watchers: %w", err)
	}

	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if w.excluded(event.Name) {
				continue
			}
			logger.Debug("file event", slog.String("op", event.Op.String()), slog.String("path", event.Name))

			if event.Has(fsnotify.Create) {
				if stat, err := os.Stat(event.Name); err == nil && stat.IsDir() {
					if err := w.addRecursive(fw, event.Name, logger); err != nil {
						logger.Warn("watch new directory", slog.String("path", event.Name), slog.Any("error", err))
					}
				}
			}
			timer.Reset(debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.Error("watcher error", slog.Any("error", err))

		case <-timer.C:
			logger.Info("changes detected, regenerating")
			if err := w.OnChange(ctx); err != nil {
				logger.Error("regenerate failed", slog.Any("error", err))
			}
		}
	}
}

func (w *Watcher) excluded(path string) bool {
	rel, err := filepath.Rel(w.Root, path)
	if err != nil {
		return false
	}
	rel = filepath.Clean(rel)
	for _, ex := range append([]string{".git"}, w.Exclude...) {
		if filepath.IsAbs(ex) {
			if r, err := filepath.Rel(w.Root, ex); err == nil {
				ex = r
			}
		}
		ex = filepath.Clean(ex)
		if rel == ex || strings.HasPrefix(rel, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(fw *fsnotify.Watcher, root string, logger *slog.Logger) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.excluded(path) {
			logger.Debug("excluding directory", slog.String("path", path))
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("failed to add watcher for %s: %w", path, err)
		}
		return nil
	})
}
