// Package watch reruns a callback when a single file changes on disk.
package watch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Debounce collapses bursts of events (editors often write a file in
	// several steps) into one callback.
	Debounce time.Duration
	Logger   *log.Logger
}

// Watcher monitors one file. The parent directory is watched so that
// atomic saves, which replace the file, are seen.
type Watcher struct {
	path     string
	onChange func(ctx context.Context, path string) error
	debounce time.Duration
	logger   *log.Logger
}

// New creates a watcher for path. onChange runs on the watcher goroutine,
// so calls never overlap.
func New(path string, onChange func(ctx context.Context, path string) error, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Watcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		debounce: opts.Debounce,
		logger:   opts.Logger,
	}
}

// Run blocks until ctx is cancelled. It returns nil on cancellation and an
// error only when the watch cannot be set up.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("watching", "path", w.path, "debounce", w.debounce)

	// Reset without draining relies on the Go 1.23 timer semantics.
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !relevant(ev.Op) {
				continue
			}
			w.logger.Debug("file event", "op", ev.Op.String())
			timer.Reset(w.debounce)

		case <-timer.C:
			if err := w.onChange(ctx, w.path); err != nil {
				w.logger.Warn("reload failed", "path", w.path, "err", err)
				continue
			}
			w.logger.Info("reloaded", "path", w.path)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "err", err)
		}
	}
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Write) || op.Has(fsnotify.Create) || op.Has(fsnotify.Rename)
}
