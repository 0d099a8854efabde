package promptregistry

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// fsWatcher is an optional optimization: it reloads the registry the
// moment the OS reports a write, instead of waiting for the next unrelated
// get() to run the stat check. It is never required for correctness — the
// stat-on-get path in registry.go is the authoritative contract.
type fsWatcher struct {
	w *fsnotify.Watcher
}

func newFSWatcher(dir string, onChange func()) (*fsWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					onChange()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("prompt registry: fsnotify error", "error", err)
			}
		}
	}()

	return &fsWatcher{w: w}, nil
}

func (f *fsWatcher) close() {
	_ = f.w.Close()
}
