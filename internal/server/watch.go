// internal/server/watch.go
//
// Source watching for the dev server.  fsnotify only watches single
// directories, so the watcher is installed recursively over each source
// root and newly created directories are added on the fly.  Events are
// debounced — editors fire bursts of writes per save — and each settled
// burst triggers one rebuild.
package server

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/yanizio/vellum/internal/metrics"
)

const debounce = 250 * time.Millisecond

// Watch rebuilds via the callback whenever a file under one of the roots
// changes.  Blocks until ctx is done.
func Watch(ctx context.Context, roots []string, rebuild func(context.Context) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, root := range roots {
		if err := addRecursive(w, root); err != nil {
			return err
		}
	}
	zap.S().Infow("watching for changes", "roots", roots)

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) {
				// New directories need their own watch.
				_ = addRecursive(w, ev.Name)
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
				!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			zap.S().Debugw("source changed", "file", ev.Name, "op", ev.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			zap.S().Warnw("watcher error", "err", err)

		case <-fire:
			start := time.Now()
			if err := rebuild(ctx); err != nil {
				metrics.RebuildErrorsTotal.Inc()
				zap.S().Errorw("rebuild failed", "err", err)
				continue
			}
			metrics.RebuildsTotal.Inc()
			metrics.RebuildSeconds.Observe(time.Since(start).Seconds())
			zap.S().Infow("rebuilt", "took", time.Since(start).String())
		}
	}
}

// addRecursive watches root and every directory below it.  Non-directory
// or missing paths are ignored.
func addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // vanished mid-walk or not a directory root
		}
		if !d.IsDir() || strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		return w.Add(path)
	})
}
