package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/five82/wayfinder/internal/dispatcher"
)

const defaultDebounce = 150 * time.Millisecond

// FileWatcher reloads a waypoint file whenever the game rewrites it.
type FileWatcher struct {
	path     string
	sink     Sink
	health   HealthRecorder
	logger   *slog.Logger
	debounce time.Duration
}

// NewFileWatcher watches path.
func NewFileWatcher(path string, sink Sink, health HealthRecorder, logger *slog.Logger) *FileWatcher {
	return &FileWatcher{
		path:     filepath.Clean(path),
		sink:     sink,
		health:   health,
		logger:   orDiscard(logger),
		debounce: defaultDebounce,
	}
}

// Run loads the file once, then reloads it after every burst of changes
// until ctx is cancelled. The parent directory is watched so atomic
// rename-into-place writes are seen.
func (w *FileWatcher) Run(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("feed: ensure watch dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("feed: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("feed: watch %s: %w", dir, err)
	}

	w.reload()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(evt.Name) != w.path {
				continue
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(w.debounce)
		case <-timer.C:
			w.reload()
		}
	}
}

func (w *FileWatcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			w.logger.Debug("waypoint file not present yet", "path", w.path)
			return
		}
		w.fail(fmt.Errorf("read %s: %w", w.path, err))
		return
	}
	records, report, err := DecodeBatch(data)
	if err != nil {
		w.fail(err)
		return
	}
	if err := publish(w.sink, w.logger, "file", dispatcher.CommandWaypointsPush, records, report); err != nil {
		w.logger.Warn("dispatch waypoints failed", "error", err)
	}
}

func (w *FileWatcher) fail(err error) {
	if w.health != nil {
		w.health.RecordFeedError(err)
	}
	w.logger.Warn("waypoint file reload failed", "path", w.path, "error", err)
}
