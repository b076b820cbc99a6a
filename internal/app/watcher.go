package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/pixscale/internal/ports"
)

// DefaultDebounce is the delay between the last source change and a rerun.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reruns a batch pass whenever one of the watched files changes.
type Watcher struct {
	paths    []string
	debounce time.Duration
	run      func(ctx context.Context) error
	logger   ports.Logger

	mu    sync.Mutex
	timer *time.Timer

	// runMu serializes reruns so two passes never overlap.
	runMu sync.Mutex
}

// NewWatcher creates a watcher over paths. run is invoked after changes
// settle for debounce.
func NewWatcher(paths []string, debounce time.Duration, run func(ctx context.Context) error, logger ports.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		paths:    paths,
		debounce: debounce,
		run:      run,
		logger:   logger,
	}
}

// Run watches the parent directories of the configured paths until ctx is
// canceled. Directories are watched rather than files so that editors
// replacing a file via rename keep being tracked.
func (w *Watcher) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	targets := make(map[string]bool, len(w.paths))
	dirs := make(map[string]bool)
	for _, p := range w.paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	watched := 0
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			w.logger.Warn("cannot watch directory", ports.String("dir", dir), ports.Err(err))
			continue
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("watch: none of the source directories exist")
	}

	w.logger.Info("watching sources",
		ports.Int("files", len(targets)),
		ports.Duration("debounce", w.debounce),
	)

	for {
		select {
		case <-ctx.Done():
			w.stop(cancel)
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				w.stop(cancel)
				return nil
			}
			if !targets[absOrSelf(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.logger.Debug("source changed", ports.String("path", event.Name), ports.String("op", event.Op.String()))
			w.schedule(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				w.stop(cancel)
				return nil
			}
			w.logger.Error("watcher error", ports.Err(err))
		}
	}
}

func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.rerun(ctx)
	})
}

func (w *Watcher) rerun(ctx context.Context) {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	if ctx.Err() != nil {
		return
	}
	w.logger.Info("sources changed, rerunning batch")
	if err := w.run(ctx); err != nil {
		w.logger.Error("rerun failed", ports.Err(err))
	}
}

// stop cancels a pending rerun and waits for one in flight. Canceling the
// rerun context first makes a timer that already fired return without
// running.
func (w *Watcher) stop(cancel context.CancelFunc) {
	cancel()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	w.runMu.Lock()
	defer w.runMu.Unlock()
}

func absOrSelf(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
