package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/antibyte/zen/pkg/history"
	"github.com/antibyte/zen/pkg/logger"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay groups the burst of events editors produce on save.
const debounceDelay = 150 * time.Millisecond

type activeRun struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Watch runs the script at path and runs it again every time it is
// written, cancelling a run that is still going. It returns when ctx is
// cancelled.
func Watch(ctx context.Context, path string, cfg Config) error {
	cfg = withDefaults(cfg)
	cfg.Origin = history.OriginWatch

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of
	// writing it in place.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	logger.Info(logger.AreaWatch, "Watching %s", abs)

	var current *activeRun
	start := func() {
		runCtx, cancel := context.WithCancel(ctx)
		run := &activeRun{cancel: cancel, done: make(chan struct{})}
		go func() {
			defer close(run.done)
			if _, err := RunFile(runCtx, abs, cfg); err != nil {
				fmt.Fprintln(cfg.Stderr, err)
			}
		}()
		current = run
	}
	stop := func() {
		if current != nil {
			current.cancel()
			<-current.done
			current = nil
		}
	}
	defer stop()

	start()

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				logger.Debug(logger.AreaWatch, "Change detected: %s", event)
				debounce = time.After(debounceDelay)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.Warn(logger.AreaWatch, "Watcher error: %v", err)

		case <-debounce:
			debounce = nil
			stop()
			fmt.Fprintf(cfg.Stderr, "--- %s changed, running again\n", filepath.Base(abs))
			logger.Info(logger.AreaWatch, "Re-running %s", abs)
			start()
		}
	}
}
