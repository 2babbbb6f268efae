package indexer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"media-library/internal/logging"
	"media-library/internal/metrics"
)

// defaultDebounce collapses bursts of filesystem events into one index.
const defaultDebounce = 2 * time.Second

// watcher reports changes below root through trigger, debounced.
type watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	debounce time.Duration
	trigger  func()
	watched  int
}

func newWatcher(root string, debounce time.Duration, trigger func()) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	w := &watcher{fsw: fsw, root: root, debounce: debounce, trigger: trigger}
	w.addTree(root)
	logging.Debug("Watcher started, watching %d directories", w.watched)
	return w, nil
}

// addTree adds every visible directory below dir to the watch list.
func (w *watcher) addTree(dir string) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			logging.Warn("failed to add path to watcher %s: %v", path, err)
			metrics.WatcherErrors.Inc()
			return nil
		}
		w.watched++
		return nil
	})
	if err != nil {
		logging.Error("failed to walk %s for watcher: %v", dir, err)
		metrics.WatcherErrors.Inc()
	}
	metrics.WatchedDirectories.Set(float64(w.watched))
}

// hidden reports whether path lies in or is a hidden entry below root.
func (w *watcher) hidden(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return true
	}
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(seg, ".") && seg != "." {
			return true
		}
	}
	return false
}

// run processes events until ctx is done, then closes the watcher.
func (w *watcher) run(ctx context.Context) {
	defer func() {
		if err := w.fsw.Close(); err != nil {
			logging.Error("failed to close file watcher: %v", err)
		}
		metrics.WatchedDirectories.Set(0)
	}()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.handle(event) {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Error("Watcher error: %v", err)
			metrics.WatcherErrors.Inc()

		case <-timer.C:
			logging.Info("File changes detected, triggering re-index")
			w.trigger()
		}
	}
}

// handle records an event and reports whether it should schedule an index.
func (w *watcher) handle(event fsnotify.Event) bool {
	if w.hidden(event.Name) || event.Op == fsnotify.Chmod {
		return false
	}
	metrics.WatcherEventsTotal.WithLabelValues(eventType(event.Op)).Inc()

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addTree(event.Name)
		}
	}
	return true
}

func eventType(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return "other"
	}
}
