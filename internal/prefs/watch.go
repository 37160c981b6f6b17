package prefs

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wethinkt/go-niiview/internal/tuilog"
)

// Watch calls fn after the file at path is written or replaced by another
// process. Bursts of events within debounce collapse into one call. It
// watches the parent directory so atomic renames are seen, and blocks until
// ctx is cancelled.
func Watch(ctx context.Context, path string, debounce time.Duration, fn func()) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(path)); err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	target := filepath.Clean(path)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, fn)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			tuilog.Log.Warn("prefs watcher: fsnotify error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}
