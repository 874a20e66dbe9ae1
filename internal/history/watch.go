package history

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// DebounceDelay coalesces bursts of write events into one reload.
const DebounceDelay = 500 * time.Millisecond

// Watch loads path once, then reloads it after every settled write or
// create event and passes the result to onChange. Reload errors are
// logged and skipped; a partially written file is picked up by the next
// event. onChange runs on the calling goroutine, one call at a time.
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, onChange func(History)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer watcher.Close()

	// The directory is watched so that editors replacing the file by
	// rename keep delivering events.
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, "resolve history path")
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrap(err, "watch history directory")
	}

	reload := func() {
		h, err := Load(abs)
		if err != nil {
			slog.Warn("Failed to reload history", "path", abs, "error", err)
			return
		}
		onChange(h)
	}
	reload()

	// The timer fires into the select loop, so onChange never runs
	// concurrently with itself and never runs after Watch returns.
	debounce := time.NewTimer(DebounceDelay)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-debounce.C:
			slog.Debug("History changed, reloading", "path", abs)
			reload()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			debounce.Reset(DebounceDelay)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("History watcher error", "error", err)
		}
	}
}
