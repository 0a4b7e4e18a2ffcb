package fs

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/justyntemme/docview/internal/debug"
)

// Watcher reports debounced content changes of listed containers.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu       sync.Mutex
	watching map[string]bool

	changes chan string
	done    chan struct{}
	once    sync.Once
}

// NewWatcher starts a watcher. A debounce of zero or less means 200ms.
func NewWatcher(debounce time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	dw := &Watcher{
		watcher:  w,
		debounce: debounce,
		watching: make(map[string]bool),
		changes:  make(chan string, 10),
		done:     make(chan struct{}),
	}
	go dw.run()
	return dw, nil
}

func (w *Watcher) run() {
	lastEvent := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
				continue
			}

			// Events name the changed child; attribute them to the watched parent
			dir := filepath.Dir(event.Name)
			w.mu.Lock()
			switch {
			case w.watching[dir]:
			case w.watching[event.Name]:
				dir = event.Name
			default:
				dir = ""
			}
			w.mu.Unlock()
			if dir != "" {
				lastEvent[dir] = time.Now()
				debug.Log(debug.FS, "Watcher: %s on %s", event.Op, event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			debug.Warn(debug.FS, "Watcher error: %v", err)

		case now := <-ticker.C:
			for dir, at := range lastEvent {
				if now.Sub(at) < w.debounce {
					continue
				}
				select {
				case w.changes <- dir:
					debug.Log(debug.FS, "Watcher: %s changed", dir)
				default:
				}
				delete(lastEvent, dir)
			}
		}
	}
}

// Watch adds dir to the watch list.
func (w *Watcher) Watch(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watching[dir] {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	w.watching[dir] = true
	return nil
}

// WatchOnly makes dir the single watched container.
func (w *Watcher) WatchOnly(dir string) error {
	w.mu.Lock()
	for path := range w.watching {
		if path != dir {
			_ = w.watcher.Remove(path)
			delete(w.watching, path)
		}
	}
	w.mu.Unlock()
	return w.Watch(dir)
}

// Changes receives the path of each changed container.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
