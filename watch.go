package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultWatchDebounce = 300 * time.Millisecond

// projectWatcher collapses bursts of file system events under a project root
// into single calls of onChange.
type projectWatcher struct {
	fsWatcher   *fsnotify.Watcher
	root        string
	debounce    time.Duration
	allowedExts map[string]bool
	matchers    []GlobMatcher
	onChange    func()

	// callbackMu serializes onChange runs and guards closed.
	callbackMu sync.Mutex
	closed     bool

	pendingMu sync.Mutex
	pending   map[string]struct{}
	timer     *time.Timer
}

func newProjectWatcher(root string, cfg Config, debounce time.Duration, onChange func()) (*projectWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &projectWatcher{
		fsWatcher:   fsw,
		root:        root,
		debounce:    debounce,
		allowedExts: cfg.ExtensionSet(),
		matchers:    append(FindAndProcessGitIgnoreFilesUpToRepoRoot(root), CreateGlobMatchers(cfg.Ignore, root)...),
		onChange:    onChange,
		pending:     map[string]struct{}{},
	}, nil
}

// Watch runs onChange once, then again after every debounced batch of
// changes to source files under root, until ctx is done.
func Watch(ctx context.Context, root string, cfg Config, debounce time.Duration, onChange func()) error {
	if _, err := os.ReadDir(root); err != nil {
		return err
	}
	w, err := newProjectWatcher(root, cfg, debounce, onChange)
	if err != nil {
		return err
	}
	defer w.close()

	if err := w.watchRecursive(root); err != nil {
		return err
	}
	slog.Info("watching for changes", "root", root)
	w.fire()
	return w.run(ctx)
}

func (w *projectWatcher) skipDir(path string) bool {
	if path == w.root {
		return false
	}
	if _, excluded := defaultExcludedDirs[filepath.Base(path)]; excluded {
		return true
	}
	return MatchesAnyGlobMatcher(path+"/", w.matchers)
}

func (w *projectWatcher) watchRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			slog.Debug("skipping unreadable path", "path", path, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.skipDir(path) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *projectWatcher) relevant(path string) bool {
	return hasCorrectExtension(path, w.allowedExts) && !MatchesAnyGlobMatcher(path, w.matchers)
}

func (w *projectWatcher) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.skipDir(event.Name) {
						if err := w.watchRecursive(event.Name); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "err", err)
						}
						w.schedule(event.Name)
					}
					continue
				}
			}
			if !w.relevant(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.schedule(event.Name)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "err", err)
		}
	}
}

func (w *projectWatcher) schedule(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *projectWatcher) flush() {
	w.pendingMu.Lock()
	count := len(w.pending)
	w.pending = map[string]struct{}{}
	w.pendingMu.Unlock()

	if count == 0 {
		return
	}
	slog.Debug("changes detected", "paths", count)
	w.fire()
}

func (w *projectWatcher) fire() {
	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	if w.closed {
		return
	}
	w.onChange()
}

// close waits for a running onChange to return. No callback runs afterwards.
func (w *projectWatcher) close() {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()

	w.callbackMu.Lock()
	w.closed = true
	w.callbackMu.Unlock()
	if err := w.fsWatcher.Close(); err != nil {
		slog.Debug("failed to close watcher", "err", err)
	}
}
