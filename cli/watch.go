package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/contactscan/logging"
	"go.viam.com/contactscan/utils"
)

// defaultWatchDelay coalesces the burst of events an editor produces on save.
const defaultWatchDelay = 250 * time.Millisecond

// watchFiles signals on the returned channel, at most once per delay, after any of paths is
// written or recreated. The parent directories are watched rather than the files themselves so a
// file replaced by a rename is still followed. Watching stops when ctx is done.
func watchFiles(ctx context.Context, paths []string, delay time.Duration, logger logging.Logger) (<-chan struct{}, error) {
	watched := make(map[string]bool, len(paths))
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		watched[abs] = true
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "error creating file watcher")
	}
	dirs := lo.Uniq(lo.Map(lo.Keys(watched), func(path string, _ int) string { return filepath.Dir(path) }))
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			utils.UncheckedError(watcher.Close())
			return nil, errors.Wrapf(err, "watching %q", dir)
		}
	}

	changes := make(chan struct{}, 1)
	notify := func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}
	debounced := debounce.New(delay)
	go func() {
		defer func() {
			utils.UncheckedError(watcher.Close())
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !watched[filepath.Clean(event.Name)] {
					continue
				}
				logger.Debugw("file changed", "file", event.Name, "op", event.Op.String())
				debounced(notify)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnw("file watcher error", "error", err)
			}
		}
	}()
	return changes, nil
}
