package scheduler

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/quotatrack/quotatrack/internal/logger"
)

// watcher follows the targets file for external edits, debouncing rapid
// writes before reloading.
type watcher struct {
	fs   *fsnotify.Watcher
	path string
	done chan struct{}
	once sync.Once

	mu            sync.Mutex
	debounceTimer *time.Timer
}

func (s *Service) startWatcher() error {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	w := &watcher{
		fs:   fs,
		path: s.cfg.TargetsPath,
		done: make(chan struct{}),
	}

	// Watch the directory to catch file creation and editor rename-replace.
	if err := fs.Add(filepath.Dir(w.path)); err != nil {
		_ = fs.Close()
		return err
	}

	s.watcher = w
	go w.loop(s.reloadTargets)
	return nil
}

func (w *watcher) loop(onChange func()) {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.mu.Lock()
				if w.debounceTimer != nil {
					w.debounceTimer.Stop()
				}
				w.debounceTimer = time.AfterFunc(debounceInterval, onChange)
				w.mu.Unlock()
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Error("targets watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *watcher) close() {
	w.once.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.mu.Unlock()
		if err := w.fs.Close(); err != nil {
			logger.Error("failed to close targets watcher", "error", err)
		}
	})
}
