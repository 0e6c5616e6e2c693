package feed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/wayfinder/internal/dispatcher"
)

func waitEvent(t *testing.T, sink *recordingSink) dispatcher.Event {
	t.Helper()
	select {
	case e := <-sink.ch:
		return e
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for dispatch")
		return dispatcher.Event{}
	}
}

func TestFileWatcherLoadsAndReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "waypoints.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1,"title":"Base"}]`), 0o644))

	sink := newRecordingSink()
	w := NewFileWatcher(path, sink, nil, nil)
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	first := waitEvent(t, sink)
	assert.Equal(t, "file", first.Source)
	require.Len(t, first.Waypoints, 1)

	// atomic replace, the way the game writes it
	tmp := filepath.Join(dir, "waypoints.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`[{"id":1,"title":"Base"},{"id":2,"title":"Mine"}]`), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	second := waitEvent(t, sink)
	assert.Len(t, second.Waypoints, 2)

	cancel()
	require.NoError(t, <-done)
}

func TestFileWatcherRecordsUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "waypoints.json")
	require.NoError(t, os.WriteFile(path, []byte(`{broken`), 0o644))

	health := &recordingHealth{}
	w := NewFileWatcher(path, newRecordingSink(), health, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, w.Run(ctx))
	assert.Equal(t, 1, health.count())
}

func TestFileWatcherMissingFileIsNotAnError(t *testing.T) {
	health := &recordingHealth{}
	w := NewFileWatcher(filepath.Join(t.TempDir(), "later.json"), newRecordingSink(), health, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, w.Run(ctx))
	assert.Zero(t, health.count())
}
