package manager

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchEvent describes a single filesystem change observed by Watch.
type WatchEvent struct {
	Path string
	Op   fsnotify.Op
}

// Watch monitors the manifest and lockfile directories for changes and
// invokes onChange with a debounced event whenever either file is
// written. It blocks until ctx is cancelled or the watcher errors.
// Debouncing collapses the burst of writes a single save (editor
// atomic-rename, or our own lockfile temp+rename) otherwise produces.
func (m *Manager) Watch(ctx context.Context, manifestPath string, onChange func(WatchEvent)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dirs := map[string]bool{
		filepath.Dir(manifestPath):         true,
		filepath.Dir(m.cfg.LockfilePath):    true,
	}
	for dir := range dirs {
		if dir == "" {
			dir = "."
		}
		if err := watcher.Add(dir); err != nil {
			return err
		}
	}

	targets := map[string]bool{
		filepath.Clean(manifestPath):        true,
		filepath.Clean(m.cfg.LockfilePath):  true,
	}

	const debounce = 200 * time.Millisecond
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	var pending *WatchEvent

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !targets[filepath.Clean(ev.Name)] {
				continue
			}
			pending = &WatchEvent{Path: ev.Name, Op: ev.Op}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
		case <-timer.C:
			if pending != nil {
				onChange(*pending)
				pending = nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
