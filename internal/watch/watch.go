// Package watch reports when a single input file has been rewritten.
package watch

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before a change is
// reported.
const DefaultDebounce = 250 * time.Millisecond

// Watcher monitors one file for writes using fsnotify. The parent directory
// is watched rather than the file itself so that editors and exporters that
// replace the file by rename are still seen.
type Watcher struct {
	Path    string
	Changes <-chan string // Read-only external channel

	changes  chan string
	errs     chan error
	done     chan struct{}
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// New creates a watcher for path. A debounce of zero uses DefaultDebounce.
func New(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ch := make(chan string, 1)
	return &Watcher{
		Path:     abs,
		Changes:  ch,
		changes:  ch,
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
		debounce: debounce,
		watcher:  fw,
	}, nil
}

// Errors returns non-fatal watch errors. Errors are dropped when nobody is
// reading.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Start begins watching.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.Path)); err != nil {
		w.watcher.Close() //nolint:errcheck // the add error is the one worth reporting
		return fmt.Errorf("watch: add %s: %w", filepath.Dir(w.Path), err)
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and its channels.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	var (
		pending  bool
		lastSeen time.Time
	)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				if pending {
					w.emit()
				}
				return
			}
			if filepath.Clean(event.Name) != w.Path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				pending = true
				lastSeen = time.Now()
			}

		case <-ticker.C:
			if pending && time.Since(lastSeen) >= w.debounce {
				w.emit()
				pending = false
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

// emit reports a change, coalescing with one that has not been read yet.
func (w *Watcher) emit() {
	select {
	case w.changes <- w.Path:
	default:
	}
}
