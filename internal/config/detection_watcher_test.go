package config

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, path string, callback ReloadCallback) *DetectionWatcher {
	t.Helper()

	watcher, err := NewDetectionWatcher(DetectionWatcherConfig{
		FilePath:       path,
		DebounceMillis: 100,
	}, callback)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	require.NoError(t, watcher.Start(ctx))
	t.Cleanup(func() { _ = watcher.Stop() })
	return watcher
}

func TestWatcherConstructorValidation(t *testing.T) {
	_, err := NewDetectionWatcher(DetectionWatcherConfig{}, func(*DetectionConfig) error { return nil })
	require.Error(t, err)

	_, err = NewDetectionWatcher(DetectionWatcherConfig{FilePath: "x.yaml"}, nil)
	require.Error(t, err)
}

func TestWatcherStartLoadsInitialThresholds(t *testing.T) {
	path := writeThresholds(t, "revenue:\n  drop_factor: 0.5\n")

	var mu sync.Mutex
	var received *DetectionConfig
	startWatcher(t, path, func(cfg *DetectionConfig) error {
		mu.Lock()
		received = cfg
		mu.Unlock()
		return nil
	})

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, received, "callback must fire with the initial thresholds")
	assert.Equal(t, 0.5, received.Revenue.DropFactor)
}

func TestWatcherStartFailsOnBadInitialFile(t *testing.T) {
	path := writeThresholds(t, "ewma:\n  alpha: 5\n")

	watcher, err := NewDetectionWatcher(DetectionWatcherConfig{FilePath: path}, func(*DetectionConfig) error { return nil })
	require.NoError(t, err)

	err = watcher.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load initial detection config")
}

func TestWatcherReloadsOnFileChange(t *testing.T) {
	path := writeThresholds(t, "revenue:\n  drop_factor: 0.5\n")

	var callCount atomic.Int32
	var mu sync.Mutex
	var last *DetectionConfig
	startWatcher(t, path, func(cfg *DetectionConfig) error {
		mu.Lock()
		last = cfg
		mu.Unlock()
		callCount.Add(1)
		return nil
	})

	require.Equal(t, int32(1), callCount.Load())

	require.NoError(t, os.WriteFile(path, []byte("revenue:\n  drop_factor: 0.6\n"), 0o644))

	require.Eventually(t, func() bool {
		return callCount.Load() == 2
	}, 3*time.Second, 50*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0.6, last.Revenue.DropFactor)
}

func TestWatcherKeepsPreviousThresholdsOnInvalidReload(t *testing.T) {
	path := writeThresholds(t, "revenue:\n  drop_factor: 0.5\n")

	var callCount atomic.Int32
	startWatcher(t, path, func(cfg *DetectionConfig) error {
		callCount.Add(1)
		return nil
	})

	require.Equal(t, int32(1), callCount.Load())

	// Invalid thresholds are logged and skipped, not delivered
	require.NoError(t, os.WriteFile(path, []byte("revenue:\n  drop_factor: 7\n"), 0o644))
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(1), callCount.Load())

	// The watcher survives and picks up the next valid write
	require.NoError(t, os.WriteFile(path, []byte("revenue:\n  drop_factor: 0.8\n"), 0o644))
	require.Eventually(t, func() bool {
		return callCount.Load() == 2
	}, 3*time.Second, 50*time.Millisecond)
}
