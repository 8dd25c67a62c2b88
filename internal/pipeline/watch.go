package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period before changed sources are imported.
const DefaultDebounce = 250 * time.Millisecond

// WatchFunc receives the outcome of each re-import.
type WatchFunc func(path string, res *Result, err error)

// Watch imports sources under dir whenever they change, until ctx is done.
// Bursts of events are collapsed into one import per path.
func (im *Importer) Watch(ctx context.Context, dir string, debounce time.Duration, fn WatchFunc) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := addTree(w, dir); err != nil {
		return err
	}
	im.log.Info("watching", zap.String("dir", dir))

	pending := make(map[string]bool)
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := addTree(w, ev.Name); err != nil {
						im.log.Warn("watch subdirectory", zap.Error(err))
					}
					continue
				}
			}
			if _, ok := KindOf(ev.Name); !ok {
				continue
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				delete(pending, ev.Name)
				im.cache.Delete(im.SourceKey(ev.Name))
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				pending[ev.Name] = true
				timer.Reset(debounce)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			im.log.Warn("watcher error", zap.Error(err))

		case <-timer.C:
			for path := range pending {
				res, err := im.ImportFile(path)
				if err != nil {
					im.log.Error("re-import failed", zap.String("path", path), zap.Error(err))
				}
				if fn != nil {
					fn(path, res, err)
				}
			}
			clear(pending)
		}
	}
}

func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
