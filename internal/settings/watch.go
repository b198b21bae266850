package settings

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/present"
)

// debounce coalesces the bursts of events editors produce on save.
const debounce = 100 * time.Millisecond

// Watch calls fn with the reloaded settings whenever the file at path is
// written or created. The parent directory is watched
// so that atomic replacement by editors is seen. Reload errors are logged
// and the previous settings stay in effect.
//
// Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, fn func(Settings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settings: failed creating file watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("settings: watch %s: %w", filepath.Dir(abs), err)
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			present.Logger().Warn("settings: watcher error", "err", err)
		case <-timer.C:
			s, err := Load(abs)
			if err != nil {
				present.Logger().Warn("settings: reload failed", "path", abs, "err", err)
				continue
			}
			fn(s)
		}
	}
}
