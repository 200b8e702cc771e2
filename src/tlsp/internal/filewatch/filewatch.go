// Package filewatch reports file system changes below a session's working directory.
package filewatch

import (
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/toitware/tlsp/src/tlsp/entity"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const _debounceTimeout = 50 * time.Millisecond

// Module provides the watcher factory to an Fx application.
var Module = fx.Provide(New)

// ChangeFunc receives a batch of file events.
type ChangeFunc func(changes []*protocol.FileEvent)

// Watcher is a running watch. Close stops it.
type Watcher interface {
	Close() error
}

// Factory creates watchers.
type Factory interface {
	// Watch reports changes to files matching pattern until the returned Watcher is closed.
	Watch(pattern entity.WatchPattern, onChange ChangeFunc) (Watcher, error)
}

// Params are the dependencies of the Factory.
type Params struct {
	fx.In

	Logger *zap.SugaredLogger
}

type factory struct {
	logger   *zap.SugaredLogger
	debounce time.Duration
}

// New returns a Factory backed by fsnotify.
func New(p Params) Factory {
	return &factory{
		logger:   p.Logger,
		debounce: _debounceTimeout,
	}
}

type watcher struct {
	logger   *zap.SugaredLogger
	pattern  entity.WatchPattern
	onChange ChangeFunc
	debounce time.Duration
	fsw      *fsnotify.Watcher
	done     chan struct{}
	closed   chan struct{}

	mu      sync.Mutex
	pending map[string]protocol.FileChangeType
	order   []string
	timer   *time.Timer

	closeOnce sync.Once
	closeErr  error
}

func (f *factory) Watch(pattern entity.WatchPattern, onChange ChangeFunc) (Watcher, error) {
	if !doublestar.ValidatePattern(pattern.Glob) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern.Glob)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &watcher{
		logger:   f.logger.With("base", pattern.Base, "glob", pattern.Glob),
		pattern:  pattern,
		onChange: onChange,
		debounce: f.debounce,
		fsw:      fsw,
		done:     make(chan struct{}),
		closed:   make(chan struct{}),
		pending:  make(map[string]protocol.FileChangeType),
	}

	if pattern.Recursive() {
		err = w.addRecursive(pattern.Base)
	} else {
		err = fsw.Add(pattern.Base)
	}
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %q: %w", pattern.Base, err)
	}

	go w.loop()
	return w, nil
}

// addRecursive adds root and all directories below it, skipping hidden ones.
func (w *watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *watcher) loop() {
	defer close(w.closed)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warnf("Failure in file watcher: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *watcher) handle(event fsnotify.Event) {
	if w.pattern.Recursive() && event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !strings.HasPrefix(info.Name(), ".") {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warnf("Unable to watch new directory %q: %v", event.Name, err)
			}
		}
	}

	changeType, ok := changeTypeOf(event.Op)
	if !ok || !w.matches(event.Name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, seen := w.pending[event.Name]; !seen {
		w.order = append(w.order, event.Name)
	}
	w.pending[event.Name] = mergeChange(w.pending[event.Name], changeType)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *watcher) flush() {
	w.mu.Lock()
	changes := make([]*protocol.FileEvent, 0, len(w.order))
	for _, name := range w.order {
		changes = append(changes, &protocol.FileEvent{Type: w.pending[name], URI: uri.File(name)})
	}
	w.pending = make(map[string]protocol.FileChangeType)
	w.order = nil
	w.timer = nil
	w.mu.Unlock()

	select {
	case <-w.done:
		return
	default:
	}
	if len(changes) > 0 {
		w.onChange(changes)
	}
}

func (w *watcher) matches(path string) bool {
	rel, err := filepath.Rel(w.pattern.Base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	ok, err := doublestar.Match(w.pattern.Glob, filepath.ToSlash(rel))
	return err == nil && ok
}

// Close stops the watcher. Pending changes are dropped.
func (w *watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		w.closeErr = w.fsw.Close()
		<-w.closed

		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	})
	return w.closeErr
}

func changeTypeOf(op fsnotify.Op) (protocol.FileChangeType, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return protocol.FileChangeTypeCreated, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return protocol.FileChangeTypeDeleted, true
	case op.Has(fsnotify.Write):
		return protocol.FileChangeTypeChanged, true
	default:
		return 0, false
	}
}

// mergeChange folds a new event into the pending one for the same file.
func mergeChange(previous, next protocol.FileChangeType) protocol.FileChangeType {
	switch {
	case previous == 0:
		return next
	case previous == protocol.FileChangeTypeCreated && next == protocol.FileChangeTypeChanged:
		return protocol.FileChangeTypeCreated
	default:
		return next
	}
}
