package config

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadCallback is called when the detection config file is successfully
// reloaded. If the callback returns an error, it is logged but the watcher
// continues watching.
type ReloadCallback func(cfg *DetectionConfig) error

// DetectionWatcherConfig holds configuration for the DetectionWatcher.
type DetectionWatcherConfig struct {
	// FilePath is the path to the detection thresholds YAML file to watch
	FilePath string

	// DebounceMillis is the debounce period in milliseconds.
	// Multiple file change events within this period are coalesced into a
	// single reload. Default: 500ms.
	DebounceMillis int
}

// DetectionWatcher watches a detection config file for changes and triggers
// reload callbacks with debouncing to prevent reload storms from editor save
// sequences.
//
// Invalid configs during reload are logged but do not crash the watcher - it
// continues watching with the previous valid thresholds.
type DetectionWatcher struct {
	config   DetectionWatcherConfig
	callback ReloadCallback
	cancel   context.CancelFunc
	stopped  chan struct{}
	ready    chan struct{} // signals when fsnotify watcher is fully initialized
	mu       sync.Mutex

	// debounceTimer is used to coalesce multiple file change events
	debounceTimer *time.Timer
}

// NewDetectionWatcher creates a new watcher for the given thresholds file.
// The callback is invoked with the initial config and again whenever the file
// changes and the new thresholds are valid.
func NewDetectionWatcher(config DetectionWatcherConfig, callback ReloadCallback) (*DetectionWatcher, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("FilePath cannot be empty")
	}

	if callback == nil {
		return nil, fmt.Errorf("callback cannot be nil")
	}

	if config.DebounceMillis == 0 {
		config.DebounceMillis = 500
	}

	return &DetectionWatcher{
		config:   config,
		callback: callback,
		stopped:  make(chan struct{}),
		ready:    make(chan struct{}),
	}, nil
}

// Start loads the initial thresholds, calls the callback, and then watches
// for file changes until Stop() is called or the context is cancelled.
// Returns an error if the initial load fails or the callback returns error.
func (w *DetectionWatcher) Start(ctx context.Context) error {
	initial, err := LoadDetectionFile(w.config.FilePath)
	if err != nil {
		return fmt.Errorf("failed to load initial detection config: %w", err)
	}

	if err := w.callback(initial); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}

	log.Printf("DetectionWatcher: loaded initial thresholds from %s", w.config.FilePath)

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	go w.watchLoop(watchCtx)

	// Wait for the watcher to be fully initialized before returning so file
	// changes are not missed due to a race with watchLoop startup.
	select {
	case <-w.ready:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for file watcher to initialize")
	}

	return nil
}

// signalReady safely closes the ready channel exactly once
func (w *DetectionWatcher) signalReady() {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.ready:
		// Already closed
	default:
		close(w.ready)
	}
}

// watchLoop is the main file watching loop
func (w *DetectionWatcher) watchLoop(ctx context.Context) {
	defer close(w.stopped)
	defer w.signalReady() // Ensure ready is signaled even on error paths

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("DetectionWatcher: failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(w.config.FilePath); err != nil {
		log.Printf("DetectionWatcher: failed to watch file %s: %v", w.config.FilePath, err)
		return
	}

	log.Printf("DetectionWatcher: watching %s for changes (debounce: %dms)",
		w.config.FilePath, w.config.DebounceMillis)

	w.signalReady()

	for {
		select {
		case <-ctx.Done():
			log.Printf("DetectionWatcher: context cancelled, stopping")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				log.Printf("DetectionWatcher: watcher events channel closed")
				return
			}

			// Remove/Rename matter for atomic writes where the old file is
			// unlinked before the new file is renamed into place - the watch
			// must be re-added because the inode changed.
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Rename == fsnotify.Rename ||
				event.Op&fsnotify.Remove == fsnotify.Remove {
				if event.Op&fsnotify.Rename == fsnotify.Rename ||
					event.Op&fsnotify.Remove == fsnotify.Remove {
					// Small delay to let the rename/recreate complete
					time.Sleep(50 * time.Millisecond)
					if err := watcher.Add(w.config.FilePath); err != nil {
						log.Printf("DetectionWatcher: failed to re-add watch after %s: %v", event.Op, err)
					}
				}
				w.handleFileChange(ctx)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				log.Printf("DetectionWatcher: watcher errors channel closed")
				return
			}
			log.Printf("DetectionWatcher: watcher error: %v", err)
		}
	}
}

// handleFileChange implements debouncing by resetting a timer on each event.
func (w *DetectionWatcher) handleFileChange(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(
		time.Duration(w.config.DebounceMillis)*time.Millisecond,
		func() {
			w.reloadConfig(ctx)
		},
	)
}

// reloadConfig reloads the thresholds file and calls the callback if
// successful. Invalid configs are logged but don't crash the watcher.
func (w *DetectionWatcher) reloadConfig(_ context.Context) {
	log.Printf("DetectionWatcher: reloading thresholds from %s", w.config.FilePath)

	newConfig, err := LoadDetectionFile(w.config.FilePath)
	if err != nil {
		log.Printf("DetectionWatcher: failed to load config (keeping previous thresholds): %v", err)
		return
	}

	if err := w.callback(newConfig); err != nil {
		log.Printf("DetectionWatcher: callback error (continuing to watch): %v", err)
		return
	}

	log.Printf("DetectionWatcher: thresholds reloaded successfully")
}

// Stop gracefully stops the file watcher.
// Waits for the watch loop to exit with a timeout of 5 seconds.
func (w *DetectionWatcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}

	timeout := time.After(5 * time.Second)
	select {
	case <-w.stopped:
		log.Printf("DetectionWatcher: stopped gracefully")
		return nil
	case <-timeout:
		return fmt.Errorf("timeout waiting for watcher to stop")
	}
}
