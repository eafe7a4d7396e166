package terminal

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stwalsh4118/prompter/internal/logger"
)

const (
	defaultWatchPollInterval = 1 * time.Second
	watchDebounceWindow      = 200 * time.Millisecond
)

// FileWatcher reports new contents of a script file while it is being
// presented. Editors often replace a file instead of writing it in place, so
// the containing directory is watched and events are matched by name.
type FileWatcher struct {
	path         string
	pollInterval time.Duration
	usePolling   bool

	changes  chan string
	stopChan chan struct{}
	done     chan struct{}
	fsw      *fsnotify.Watcher

	mu          sync.Mutex
	pendingAt   time.Time
	lastContent string
	lastMod     time.Time
	started     bool
	stopped     bool
}

// NewFileWatcher creates a watcher for path. A non-positive pollInterval
// uses the default.
func NewFileWatcher(path string, pollInterval time.Duration) (*FileWatcher, error) {
	if path == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve script path: %w", err)
	}
	if pollInterval <= 0 {
		pollInterval = defaultWatchPollInterval
	}

	return &FileWatcher{
		path:         abs,
		pollInterval: pollInterval,
		changes:      make(chan string, 1),
		stopChan:     make(chan struct{}),
		done:         make(chan struct{}),
	}, nil
}

// Changes delivers the file contents after each edit. Only the latest
// contents are kept if the reader falls behind.
func (w *FileWatcher) Changes() <-chan string {
	return w.changes
}

// Start reads the current contents and begins watching.
func (w *FileWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return fmt.Errorf("watcher has been stopped")
	}
	if w.started {
		return nil
	}

	content, mod, err := readScriptFile(w.path)
	if err != nil {
		return err
	}
	w.lastContent, w.lastMod = content, mod

	if !w.usePolling {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			logger.Log.Warn().
				Err(err).
				Str("path", w.path).
				Msg("Failed to create fsnotify watcher, falling back to polling")
		} else if err := fsw.Add(filepath.Dir(w.path)); err != nil {
			logger.Log.Warn().
				Err(err).
				Str("path", w.path).
				Msg("Failed to watch script directory, falling back to polling")
			_ = fsw.Close()
		} else {
			w.fsw = fsw
		}
	}

	w.started = true
	go w.run()

	logger.Log.Info().
		Str("path", w.path).
		Bool("using_fsnotify", w.fsw != nil).
		Msg("Script file watcher started")
	return nil
}

// Stop ends watching and waits for the watch goroutine to exit.
func (w *FileWatcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	started := w.started
	w.mu.Unlock()

	close(w.stopChan)
	if !started {
		return nil
	}

	if w.fsw != nil {
		if err := w.fsw.Close(); err != nil {
			logger.Log.Warn().Err(err).Msg("Error closing fsnotify watcher")
		}
	}
	<-w.done
	return nil
}

func (w *FileWatcher) run() {
	defer close(w.done)

	if w.fsw != nil {
		w.watchEvents()
	} else {
		w.poll()
	}
}

func (w *FileWatcher) watchEvents() {
	ticker := time.NewTicker(watchDebounceWindow)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename) {
				w.mu.Lock()
				if w.pendingAt.IsZero() {
					w.pendingAt = time.Now()
				}
				w.mu.Unlock()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Log.Warn().Err(err).Msg("fsnotify error, continuing")
		case <-ticker.C:
			w.flushPending()
		}
	}
}

func (w *FileWatcher) poll() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			info, err := os.Stat(w.path)
			if err != nil {
				continue
			}
			w.mu.Lock()
			changed := !info.ModTime().Equal(w.lastMod)
			w.mu.Unlock()
			if changed {
				w.reload()
			}
		}
	}
}

// flushPending reloads the file once events have settled for a debounce window
func (w *FileWatcher) flushPending() {
	w.mu.Lock()
	pendingAt := w.pendingAt
	if pendingAt.IsZero() || time.Since(pendingAt) < watchDebounceWindow {
		w.mu.Unlock()
		return
	}
	w.pendingAt = time.Time{}
	w.mu.Unlock()

	w.reload()
}

func (w *FileWatcher) reload() {
	content, mod, err := readScriptFile(w.path)
	if err != nil {
		// Mid-replace; the next event or tick picks it up
		logger.Log.Debug().Err(err).Str("path", w.path).Msg("Script file not readable yet")
		return
	}

	w.mu.Lock()
	w.lastMod = mod
	if content == w.lastContent {
		w.mu.Unlock()
		return
	}
	w.lastContent = content
	w.mu.Unlock()

	select {
	case <-w.changes:
	default:
	}
	w.changes <- content

	logger.Log.Debug().
		Str("path", w.path).
		Int("bytes", len(content)).
		Msg("Script file changed")
}

func readScriptFile(path string) (string, time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to stat script file: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to read script file: %w", err)
	}
	return string(data), info.ModTime(), nil
}
