package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"

	"advisor/internal/dispatch"
)

// RulesWatcher re-reads the rules file whenever it changes and hands the
// fresh ruleset to the apply callback. Editors that replace the file on
// save (rename + create) are handled by re-adding the watch path.
type RulesWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	apply   func(dispatch.Rules)
	onError func(error)
	done    chan struct{}
}

// WatchRules starts watching the rules file. apply receives every
// successfully reloaded ruleset; onError (optional) receives reload
// failures, after which the previous ruleset stays active.
func WatchRules(path string, apply func(dispatch.Rules), onError func(error)) (*RulesWatcher, error) {
	if path == "" {
		return nil, fmt.Errorf("rules watcher requires a path")
	}
	if apply == nil {
		return nil, fmt.Errorf("rules watcher requires an apply callback")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create rules watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch rules file: %w", err)
	}

	w := &RulesWatcher{
		path:    path,
		watcher: watcher,
		apply:   apply,
		onError: onError,
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *RulesWatcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.reload()
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				// Atomic saves replace the inode; re-add the path so the
				// next write is still observed.
				if err := w.watcher.Add(w.path); err == nil {
					w.reload()
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.fail(err)
		}
	}
}

func (w *RulesWatcher) reload() {
	rules, err := LoadRules(w.path)
	if err != nil {
		w.fail(err)
		return
	}
	w.apply(rules)
}

func (w *RulesWatcher) fail(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}

// Close stops watching and waits for the watch loop to exit.
func (w *RulesWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
