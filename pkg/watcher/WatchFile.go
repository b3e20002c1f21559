// Package watcher with a debounced file watcher
package watcher

import (
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is the delay after the last change before the handler is invoked
const DefaultDebounce = 100 * time.Millisecond

// WatchFile invokes the handler when the file changes.
// Multiple quick changes are debounced into a single callback. After the callback the file
// is watched again to handle renames that replace the file inode, as done by editors and
// by atomic writes.
//  path of the file to watch
//  debounce delay after the last change. 0 for DefaultDebounce.
//  handler to invoke on change
// This returns the fsnotify watcher. Close it when done.
func WatchFile(path string, debounce time.Duration, handler func() error) (*fsnotify.Watcher, error) {
	if debounce == 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logrus.Errorf("WatchFile: unable to create watcher: %s", err)
		return nil, err
	}
	callbackTimer := time.AfterFunc(0, func() {
		logrus.Debugf("WatchFile: invoking callback for %s", path)
		if err := handler(); err != nil {
			logrus.Warningf("WatchFile: callback for %s failed: %s", path, err)
		}
		// file renames change the inode of the filename, resubscribe
		_ = watcher.Remove(path)
		_ = watcher.Add(path)
	})
	callbackTimer.Stop()

	err = watcher.Add(path)
	if err != nil {
		logrus.Errorf("WatchFile: unable to watch %s for changes: %s", path, err)
		watcher.Close()
		return nil, err
	}
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					callbackTimer.Stop()
					return
				}
				logrus.Debugf("WatchFile: event: %s. Modified file: %s", event, event.Name)
				callbackTimer.Reset(debounce)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logrus.Errorf("WatchFile: Error: %s", err)
			}
		}
	}()
	return watcher, nil
}
