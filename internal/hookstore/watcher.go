// ABOUTME: fsnotify wrapper observing hook directories with per-file debouncing
// ABOUTME: Collapses editor write bursts into one callback; Stop tears down cleanly

package hookstore

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/agentdeck/agentdeck/internal/log"
)

// debounceInterval is how long a file must stay quiet before its event
// fires. Editors often emit several writes per save.
const debounceInterval = 100 * time.Millisecond

// FileEvent is a debounced filesystem change delivered to the store.
type FileEvent struct {
	Path    string
	Removed bool
	Time    time.Time
}

// Watcher observes a set of directories and invokes a callback with
// debounced per-file events.
type Watcher struct {
	fsw      *fsnotify.Watcher
	onEvent  func(FileEvent)
	stop     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer
}

// NewWatcher watches dirs (created if missing by the caller) and starts
// its event loop immediately.
func NewWatcher(dirs []string, onEvent func(FileEvent)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:            fsw,
		onEvent:        onEvent,
		stop:           make(chan struct{}),
		stopped:        make(chan struct{}),
		debounceTimers: make(map[string]*time.Timer),
	}

	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	go w.loop()
	return w, nil
}

// Stop halts the watcher and cancels pending debounce timers. Safe to call
// multiple times.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		<-w.stopped
		w.fsw.Close()

		w.debounceMu.Lock()
		for path, timer := range w.debounceTimers {
			timer.Stop()
			delete(w.debounceTimers, path)
		}
		w.debounceMu.Unlock()
	})
}

func (w *Watcher) loop() {
	defer close(w.stopped)

	for {
		select {
		case <-w.stop:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn("hook watcher: %v", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	switch {
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		// Removals fire immediately: a vanished file must stop matching
		// without waiting out a debounce window.
		w.cancelDebounce(ev.Name)
		w.onEvent(FileEvent{Path: ev.Name, Removed: true, Time: time.Now()})
	case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write):
		w.debounce(ev.Name)
	}
}

// debounce (re)arms the per-file timer; the event fires after the file has
// been quiet for debounceInterval.
func (w *Watcher) debounce(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounceTimers[path]; ok {
		timer.Reset(debounceInterval)
		return
	}

	w.debounceTimers[path] = time.AfterFunc(debounceInterval, func() {
		w.debounceMu.Lock()
		delete(w.debounceTimers, path)
		w.debounceMu.Unlock()

		select {
		case <-w.stop:
			return
		default:
		}
		w.onEvent(FileEvent{Path: filepath.Clean(path), Time: time.Now()})
	})
}

func (w *Watcher) cancelDebounce(path string) {
	w.debounceMu.Lock()
	if timer, ok := w.debounceTimers[path]; ok {
		timer.Stop()
		delete(w.debounceTimers, path)
	}
	w.debounceMu.Unlock()
}
