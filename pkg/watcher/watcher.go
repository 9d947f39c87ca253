// Package watcher notices changes to import data files and turns them into
// recomputation triggers for the analysis pipeline.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/depscope/depscope/pkg/logging"
)

// ChangeEvent represents a batch of changed import data files.
type ChangeEvent struct {
	Paths     []string
	Timestamp time.Time
}

// DataWatcher watches an import data directory for graph file changes.
type DataWatcher struct {
	watcher *fsnotify.Watcher
	dir     string
	events  chan ChangeEvent
	done    chan struct{}
}

// NewDataWatcher creates a new file system watcher for an import data directory.
func NewDataWatcher(dir string) (*DataWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &DataWatcher{
		watcher: watcher,
		dir:     dir,
		events:  make(chan ChangeEvent, 100),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching for data file changes.
func (w *DataWatcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	logging.Info("watching import data directory", "path", w.dir)
	go w.processEvents(ctx)
	return nil
}

// Events returns the channel of batched change events.
func (w *DataWatcher) Events() <-chan ChangeEvent {
	return w.events
}

// Stop shuts down the watcher.
func (w *DataWatcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}

// processEvents batches raw fsnotify events so one save does not emit one
// event per write syscall.
func (w *DataWatcher) processEvents(ctx context.Context) {
	var pending []string

	flushTimer := time.NewTimer(100 * time.Millisecond)
	flushTimer.Stop()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		select {
		case w.events <- ChangeEvent{Paths: pending, Timestamp: time.Now()}:
		default:
			logging.Warn("change event channel full, dropping batch", "paths", len(pending))
		}
		pending = nil
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(w.events)
			return
		case <-w.done:
			flush()
			close(w.events)
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				flush()
				close(w.events)
				return
			}
			if !isImportFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			logging.Debug("data file changed", "path", event.Name, "op", event.Op.String())
			pending = append(pending, event.Name)
			flushTimer.Reset(100 * time.Millisecond)

		case <-flushTimer.C:
			flush()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				flush()
				close(w.events)
				return
			}
			logging.Warn("watcher error", "error", err)
		}
	}
}

func isImportFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
