// Package filewatcher monitors the docs directory so documents
// dropped in by an operator are picked up without a manual reindex.
package filewatcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/jggl/kb-assist/internal/domain/ports"
)

// Watcher implements ports.FileWatcher using fsnotify.
type Watcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
	log        *slog.Logger
}

// New creates a watcher filtering for the given extensions.
func New(extensions []string, log *slog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		extensions = []string{".pdf", ".txt", ".md"}
	}
	return &Watcher{watcher: w, extensions: extensions, log: log}, nil
}

// Watch starts monitoring dir and emits events until ctx is done.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	events := make(chan ports.FileEvent, 100)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.watched(event.Name) {
					continue
				}

				var op ports.FileOperation
				switch {
				case event.Op.Has(fsnotify.Create):
					op = ports.FileCreated
				case event.Op.Has(fsnotify.Write):
					op = ports.FileModified
				case event.Op.Has(fsnotify.Remove):
					op = ports.FileDeleted
				default:
					continue
				}

				select {
				case events <- ports.FileEvent{Path: event.Name, Operation: op}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.log.Error("watcher error", "error", err)
			}
		}
	}()

	return events, nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) watched(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
