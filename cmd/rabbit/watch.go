package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
)

// watchDebounce is how long the inputs must stay quiet before a re-run.
const watchDebounce = 250 * time.Millisecond

// watchFiles calls run each time one of paths is written or replaced,
// until ctx is cancelled. Parent directories are watched so that files
// replaced by rename are still seen.
func watchFiles(ctx context.Context, logger *slog.Logger, paths []string, run func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	watched := make(map[string]bool, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		watched[abs] = true
	}

	dirs := lo.Uniq(lo.Map(lo.Keys(watched), func(p string, _ int) string {
		return filepath.Dir(p)
	}))
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	logger.Info("watching inputs", "files", len(watched), "dirs", len(dirs))

	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("input changed", "path", event.Name, "op", event.Op.String())
			pending = time.After(watchDebounce)

		case <-pending:
			pending = nil
			if err := run(); err != nil {
				logger.Error("re-run failed", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)

		case <-ctx.Done():
			logger.Debug("watcher stopping")
			return nil
		}
	}
}
