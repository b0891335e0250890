package dict

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/wordsift/wordsift/internal/checkers"
)

// DefaultDebounce coalesces the burst of events editors emit per save.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reapplies a Loader whenever one of its files changes.
type Watcher struct {
	Loader   *Loader
	Dict     *checkers.Dictionary
	Tags     *TagIndex
	Paths    []string
	Debounce time.Duration
	// OnReload, if set, is called after every reload attempt.
	OnReload func(err error)

	fw   *fsnotify.Watcher
	once sync.Once
	done chan struct{}
}

// Start watches the parent directories of Paths (so atomic renames are
// seen) and reloads in the background until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	watched := map[string]bool{}
	files := map[string]bool{}
	for _, p := range w.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fw.Close()
			return err
		}
		files[abs] = true
		dir := filepath.Dir(abs)
		if watched[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return err
		}
		watched[dir] = true
	}
	w.fw = fw
	w.done = make(chan struct{})
	go w.loop(ctx, files)
	return nil
}

func (w *Watcher) loop(ctx context.Context, files map[string]bool) {
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !files[filepath.Clean(ev.Name)] {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.reload(ctx)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.Loader.logger().Warn("dictionary watch error", "error", err)
		case <-ctx.Done():
			_ = w.Stop()
			return
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	err := w.Loader.Apply(ctx, w.Dict, w.Tags)
	if err != nil {
		w.Loader.logger().Error("dictionary reload failed, keeping previous terms", "error", err)
	} else {
		w.Loader.logger().Info("dictionary reloaded", "generation", w.Dict.Generation())
	}
	if w.OnReload != nil {
		w.OnReload(err)
	}
}

// Stop ends watching. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() {
		if w.done != nil {
			close(w.done)
		}
		if w.fw != nil {
			err = w.fw.Close()
		}
	})
	return err
}
