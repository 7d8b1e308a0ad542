package dictionary

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events editors produce on save.
const reloadDelay = 250 * time.Millisecond

// Watch reloads the bundle whenever a message file in dir changes. It blocks
// until ctx is cancelled. Reload failures are logged and the previous
// messages stay active.
func (b *Bundle) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	b.logger.Info("watching message files", "dir", dir)

	timer := time.NewTimer(reloadDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isMessageFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				b.logger.Debug("message file changed", "file", event.Name, "op", event.Op.String())
				timer.Reset(reloadDelay)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.logger.Warn("message watcher error", "error", err)

		case <-timer.C:
			if err := b.Reload(); err != nil {
				b.logger.Error("message reload failed", "error", err)
				continue
			}
			b.logger.Info("message files reloaded", "dir", dir)
		}
	}
}

func isMessageFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, "messages.") && strings.HasSuffix(base, ".toml")
}
