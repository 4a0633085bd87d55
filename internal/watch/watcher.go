// Package watch reports day files written to the journal directory by other programs.
package watch

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("watch")

// Watcher watches one directory at a time.
type Watcher struct {
	mu      sync.Mutex
	dir     string
	match   func(path string) bool
	handler func(path string)

	watcher *fsnotify.Watcher
	closed  chan struct{}
	done    chan struct{}
}

// New starts watching dir. handler is called from the watch goroutine for
// every create or write of a path accepted by match.
func New(dir string, match func(path string) bool, handler func(path string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		match:   match,
		handler: handler,
		watcher: fw,
		closed:  make(chan struct{}),
		done:    make(chan struct{}),
	}

	if err := w.Retarget(dir); err != nil {
		fw.Close()
		return nil, err
	}

	go w.loop()
	return w, nil
}

// Dir returns the directory being watched.
func (w *Watcher) Dir() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dir
}

// Retarget moves the watch to dir, creating it if needed.
func (w *Watcher) Retarget(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if dir == w.dir {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create watch dir: %w", err)
	}
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	if w.dir != "" {
		if err := w.watcher.Remove(w.dir); err != nil {
			log.Debugf("unwatch %s: %v", w.dir, err)
		}
	}
	w.dir = dir
	log.Infof("watching %s", dir)
	return nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.closed:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if w.match != nil && !w.match(event.Name) {
				continue
			}
			w.handler(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("watcher error: %v", err)
		}
	}
}

// Close stops the watch loop.
func (w *Watcher) Close() error {
	select {
	case <-w.closed:
		return nil
	default:
	}
	close(w.closed)
	err := w.watcher.Close()
	<-w.done
	return err
}
