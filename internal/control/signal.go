// Package control coordinates processes sharing a state directory: the
// file-based stop signal written by "deskpilot stop" and the lock that keeps
// a second run off the desktop.
package control

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const stopFile = "stop"

// SignalDir returns the signals directory under the state directory.
func SignalDir(stateDir string) string {
	return filepath.Join(stateDir, "signals")
}

// Watcher reports a stop request written to the signals directory.
// It watches with fsnotify and falls back to a stat on every check.
type Watcher struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	stopped bool

	watcher *fsnotify.Watcher
	done    chan struct{}
	once    sync.Once
}

// NewWatcher creates the signals directory and starts watching it.
// A stale stop file from an earlier run is removed first.
func NewWatcher(dir string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create signals directory: %w", err)
	}
	if err := os.Remove(filepath.Join(dir, stopFile)); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("clear stop signal: %w", err)
	}

	w := &Watcher{
		dir:    dir,
		logger: logger,
		done:   make(chan struct{}),
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("file watcher unavailable, using stat fallback", "error", err)
		return w, nil
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		logger.Warn("cannot watch signals directory, using stat fallback", "dir", dir, "error", err)
		return w, nil
	}
	w.watcher = fw

	go w.watch()

	return w, nil
}

func (w *Watcher) watch() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) == stopFile && event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				// Events can arrive after Clear; only the file on disk counts.
				w.mu.Lock()
				if _, err := os.Stat(event.Name); err == nil {
					w.stopped = true
					w.logger.Info("stop signal received")
				}
				w.mu.Unlock()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Debug("signal watcher error", "error", err)
		}
	}
}

// ShouldStop reports whether a stop signal has been received.
func (w *Watcher) ShouldStop() bool {
	// The watcher can miss events, so check the file directly too.
	if _, err := os.Stat(filepath.Join(w.dir, stopFile)); err == nil {
		w.mu.Lock()
		w.stopped = true
		w.mu.Unlock()
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stopped
}

// Clear removes the stop file and resets the signal.
func (w *Watcher) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = false
	os.Remove(filepath.Join(w.dir, stopFile))
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() {
	w.once.Do(func() {
		close(w.done)
		if w.watcher != nil {
			w.watcher.Close()
		}
	})
}

// SendStop writes the stop file into dir, creating it if needed.
func SendStop(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create signals directory: %w", err)
	}
	path := filepath.Join(dir, stopFile)
	if err := os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644); err != nil {
		return fmt.Errorf("write stop signal: %w", err)
	}
	return nil
}
