package plugin

import (
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 200 * time.Millisecond

// ManifestWatcher watches the manifest file's directory and invokes a
// callback after writes settle. Watching the directory rather than the
// file survives editors and atomic saves that replace the file by
// rename.
type ManifestWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func()

	mu    sync.Mutex
	timer *time.Timer
	done  chan struct{}
}

// WatchManifest starts watching the manifest at path. onChange runs on
// the watcher goroutine after events debounce; callers that need to
// touch the main loop should enqueue work rather than mutate state
// directly.
func WatchManifest(path string, onChange func()) (*ManifestWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	mw := &ManifestWatcher{
		watcher:  w,
		path:     abs,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go mw.run()
	return mw, nil
}

func (mw *ManifestWatcher) run() {
	for {
		select {
		case ev, ok := <-mw.watcher.Events:
			if !ok {
				return
			}
			if !mw.relevant(ev) {
				continue
			}
			mw.bump()
		case err, ok := <-mw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("manifest watch: %v", err)
		case <-mw.done:
			return
		}
	}
}

func (mw *ManifestWatcher) relevant(ev fsnotify.Event) bool {
	if ev.Name != mw.path {
		return false
	}
	return ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename)
}

// bump arms or extends the debounce timer.
func (mw *ManifestWatcher) bump() {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if mw.timer != nil {
		mw.timer.Stop()
	}
	mw.timer = time.AfterFunc(watchDebounce, mw.onChange)
}

// Close stops the watcher and cancels any pending callback.
func (mw *ManifestWatcher) Close() error {
	close(mw.done)
	mw.mu.Lock()
	if mw.timer != nil {
		mw.timer.Stop()
	}
	mw.mu.Unlock()
	return mw.watcher.Close()
}
