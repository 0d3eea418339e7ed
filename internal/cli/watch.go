package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports changes of the Go sources under a set of roots. Changes
// arriving within the debounce period are coalesced into one call.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	ignore   func(path string) bool
	log      *zap.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
}

// NewWatcher watches every directory under roots, skipping hidden ones and
// vendor trees. Changes of paths for which ignore returns true are dropped.
func NewWatcher(roots []string, debounce time.Duration, ignore func(string) bool, log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	w := &Watcher{
		fsw:      fsw,
		debounce: debounce,
		ignore:   ignore,
		log:      log,
		pending:  make(map[string]struct{}),
	}
	if w.ignore == nil {
		w.ignore = func(string) bool { return false }
	}
	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		w.log.Debug("watching", zap.String("dir", path))
		return nil
	})
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata" || name == "node_modules"
}

// Run calls onChange with the sorted changed files after each quiet
// period, until ctx is done. Errors of onChange are logged.
func (w *Watcher) Run(ctx context.Context, onChange func(files []string)) error {
	defer w.fsw.Close()
	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			w.stop()
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev, fire)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		case <-fire:
			if files := w.drain(); len(files) > 0 {
				onChange(files)
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event, fire chan<- struct{}) {
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !skipDir(info.Name()) {
			if err := w.addTree(ev.Name); err != nil {
				w.log.Warn("watch new directory", zap.Error(err))
			}
			return
		}
	}
	if filepath.Ext(ev.Name) != ".go" || w.ignore(ev.Name) {
		return
	}
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return
	}
	w.add(ev.Name, fire)
}

// add records a changed file and restarts the quiet period.
func (w *Watcher) add(path string, fire chan<- struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	files := make([]string, 0, len(w.pending))
	for f := range w.pending {
		files = append(files, f)
	}
	clear(w.pending)
	slices.Sort(files)
	return files
}

func (w *Watcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
