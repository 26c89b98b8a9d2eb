// Package watch reports external changes under a project directory.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher coalesces filesystem events under a root into debounced callbacks.
// Hidden entries (leading '.') are neither watched nor reported.
type Watcher struct {
	root     string
	debounce time.Duration
	onChange func()
	log      *logrus.Entry

	watcher *fsnotify.Watcher
	closed  chan struct{}
	done    chan struct{}
	once    sync.Once
}

// New starts watching root and its non-hidden subdirectories. onChange runs
// on the watcher goroutine once events have been quiet for debounce.
func New(root string, debounce time.Duration, onChange func(), log *logrus.Entry) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	w := &Watcher{
		root:     root,
		debounce: debounce,
		onChange: onChange,
		log:      log,
		watcher:  fw,
		closed:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}

	go w.watchLoop()
	log.WithField("root", root).Debug("watching project")
	return w, nil
}

// Root returns the watched directory.
func (w *Watcher) Root() string { return w.root }

// Close stops the watcher and waits for its goroutine to exit. No callback
// runs after Close returns.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closed)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && hidden(p) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			w.log.WithError(err).WithField("dir", p).Warn("cannot watch directory")
		}
		return nil
	})
}

func (w *Watcher) watchLoop() {
	defer close(w.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.closed:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if hidden(event.Name) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if st, err := os.Lstat(event.Name); err == nil && st.IsDir() {
					_ = w.addTree(event.Name)
				}
			}
			timer.Reset(w.debounce)
		case <-timer.C:
			select {
			case <-w.closed:
				return
			default:
			}
			w.onChange()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("watcher error")
		}
	}
}

func hidden(p string) bool {
	return strings.HasPrefix(filepath.Base(p), ".")
}
