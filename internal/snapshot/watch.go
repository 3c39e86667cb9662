package snapshot

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors dir for writes to the named files and calls onChange
// with the file stem each time one of them is (re)written. It runs until
// ctx is cancelled.
//
// Extracts are typically replaced atomically (write to temp, rename), so
// create events are treated the same as writes.
func Watch(ctx context.Context, dir string, files []string, onChange func(file string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	watched := make(map[string]bool, len(files))
	for _, f := range files {
		watched[f] = true
	}

	slog.Info("snapshot: watching for new extracts", "dir", dir, "files", files)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			name := filepath.Base(event.Name)
			if !watched[name] {
				continue
			}
			slog.Info("snapshot: extract updated", "file", name)
			onChange(name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("snapshot: watcher error", "err", err)
		}
	}
}
