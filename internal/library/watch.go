package library

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay batches bursts of filesystem events (a copy of an
// album folder fires hundreds) into a single rescan.
const debounceDelay = 2 * time.Second

// Watch rescans the library whenever a supported file under folders
// changes. It blocks until ctx is cancelled. onChange, if non-nil, runs
// after each completed rescan.
func (l *Library) Watch(ctx context.Context, folders []string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	addRecursive := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // unreadable subtree, keep going
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && path != root {
					return filepath.SkipDir
				}
				if err := watcher.Add(path); err != nil {
					l.logger.Warn("watch failed", "path", path, "error", err)
				}
			}
			return nil
		})
	}

	for _, folder := range folders {
		if err := addRecursive(folder); err != nil {
			return fmt.Errorf("watch %s: %w", folder, err)
		}
	}

	rescan := make(chan struct{}, 1)

	var debounceMu sync.Mutex
	var debounceTimer *time.Timer

	trigger := func() {
		debounceMu.Lock()
		defer debounceMu.Unlock()

		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(debounceDelay, func() {
			select {
			case rescan <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// Newly created directories need their own watch.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addRecursive(event.Name)
					trigger()
					continue
				}
			}

			if !Supported(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				trigger()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("watch error", "error", err)

		case <-rescan:
			result := l.Scan(folders)
			if result.HasErrors() {
				l.logger.Warn("rescan finished with errors", "errors", len(result.Errors))
			}
			if onChange != nil {
				onChange()
			}
		}
	}
}
