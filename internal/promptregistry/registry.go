// Package promptregistry loads a prompt per key from disk, falls back to a
// built-in default, and hot-reloads on file change using an
// atomically-swapped snapshot.
package promptregistry

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// fingerprint identifies a file's content without reading it: mtime (in
// nanoseconds) plus size. Two reads of an unchanged file always agree.
type fingerprint struct {
	mtimeNS int64
	size    int64
}

// Registry is the thread-safe, snapshot-on-reload prompt store. Readers
// observe either the pre- or post-reload snapshot, never a half-built one.
type Registry struct {
	dir        string
	autoReload bool
	builtins   map[string]string

	mu          sync.RWMutex
	snapshot    map[string]string
	fingerprints map[string]fingerprint

	watcher *fsWatcher // nil if fsnotify could not start; stat-on-get still works.
}

// New constructs a Registry for the given keys, loading each from dir (or
// falling back to builtins) immediately. watchFS requests a best-effort
// fsnotify watcher on top of the mandatory stat-on-get check.
func New(dir string, keys []string, builtins map[string]string, autoReload, watchFS bool) *Registry {
	r := &Registry{
		dir:          dir,
		autoReload:   autoReload,
		builtins:     builtins,
		snapshot:     make(map[string]string, len(keys)),
		fingerprints: make(map[string]fingerprint, len(keys)),
	}
	r.reloadAll(keys)

	if watchFS {
		if w, err := newFSWatcher(dir, func() { r.reloadAll(keys) }); err != nil {
			slog.Warn("prompt registry: fsnotify watcher unavailable, relying on stat-on-get", "error", err)
		} else {
			r.watcher = w
		}
	}
	return r
}

// Close stops the background watcher, if one was started.
func (r *Registry) Close() {
	if r.watcher != nil {
		r.watcher.close()
	}
}

// Get returns the prompt for key. It never fails: it returns the latest
// on-disk prompt if auto-reload detects a change, or the last good snapshot
// (on-disk or built-in) otherwise.
func (r *Registry) Get(key string) string {
	if r.autoReload && r.fingerprintsChanged() {
		r.reloadAllLocked(r.knownKeys())
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.snapshot[key]; ok {
		return v
	}
	return r.builtins[key]
}

// Reload forces an immediate re-read of every known key from disk,
// bypassing the stat-on-get fingerprint check. Used by the maintenance
// scheduler's periodic forced-refresh sweep.
func (r *Registry) Reload() {
	r.reloadAll(r.knownKeys())
}

// Sources reports, for every currently loaded key, whether its prompt came
// from a file on disk or a built-in fallback. Used by the diagnostics
// endpoint to surface prompt-file resolution.
func (r *Registry) Sources() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sources := make(map[string]string, len(r.snapshot))
	for key := range r.snapshot {
		if _, onDisk := r.fingerprints[key]; onDisk {
			sources[key] = "file"
		} else {
			sources[key] = "builtin"
		}
	}
	return sources
}

func (r *Registry) knownKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.builtins))
	for k := range r.builtins {
		keys = append(keys, k)
	}
	return keys
}

func (r *Registry) fingerprintsChanged() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for key, fp := range r.fingerprints {
		current, err := statFingerprint(r.dir, key)
		if err != nil {
			// Unreadable now: keep the previous fingerprint/content, per the
			// "after a read error the previous contents are retained" law.
			continue
		}
		if current != fp {
			return true
		}
	}
	return false
}

func (r *Registry) reloadAllLocked(keys []string) {
	r.reloadAll(keys)
}

// reloadAll rebuilds the whole snapshot atomically: readers never observe a
// partially-replaced map.
func (r *Registry) reloadAll(keys []string) {
	newSnapshot := make(map[string]string, len(keys))
	newFingerprints := make(map[string]fingerprint, len(keys))

	r.mu.RLock()
	prevSnapshot := r.snapshot
	prevFingerprints := r.fingerprints
	r.mu.RUnlock()

	for _, key := range keys {
		content, fp, err := readPrompt(r.dir, key)
		switch {
		case err == nil && strings.TrimSpace(content) != "":
			newSnapshot[key] = strings.TrimRight(content, " \t\r\n")
			newFingerprints[key] = fp
		case prevSnapshot != nil && prevSnapshot[key] != "":
			// Previously loaded from disk; a transient read error keeps the
			// old content rather than silently falling back to built-in.
			newSnapshot[key] = prevSnapshot[key]
			if old, ok := prevFingerprints[key]; ok {
				newFingerprints[key] = old
			}
			if err != nil {
				slog.Warn("prompt registry: re-read failed, keeping previous content", "key", key, "error", err)
			}
		default:
			if builtin, ok := r.builtins[key]; ok {
				newSnapshot[key] = strings.TrimRight(builtin, " \t\r\n")
			}
			if err != nil {
				slog.Warn("prompt registry: falling back to built-in prompt", "key", key, "error", err)
			}
		}
	}

	r.mu.Lock()
	r.snapshot = newSnapshot
	r.fingerprints = newFingerprints
	r.mu.Unlock()
}

func readPrompt(dir, key string) (string, fingerprint, error) {
	path := filepath.Join(dir, key+".md")
	info, err := os.Stat(path)
	if err != nil {
		return "", fingerprint{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fingerprint{}, err
	}
	return string(data), fingerprint{mtimeNS: info.ModTime().UnixNano(), size: info.Size()}, nil
}

func statFingerprint(dir, key string) (fingerprint, error) {
	path := filepath.Join(dir, key+".md")
	info, err := os.Stat(path)
	if err != nil {
		return fingerprint{}, err
	}
	return fingerprint{mtimeNS: info.ModTime().UnixNano(), size: info.Size()}, nil
}
