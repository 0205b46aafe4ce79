package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event kinds passed to an EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventCallback receives debounced vault changes. path is vault-relative
// with forward slashes.
type EventCallback func(kind string, path string)

// DefaultDebounce coalesces bursts of writes to the same file.
const DefaultDebounce = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the vault root and reports changes to
// Markdown files until ctx is cancelled. The watcher never writes to the
// store: the callback decides what to rescan or forget, so that all store
// mutations stay on the caller's loop.
//
// New directories created at runtime are added to the watch list and the
// files already inside them are reported as created. Hidden directories
// are not watched.
func Watch(ctx context.Context, vaultRoot string, debounce time.Duration, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	pending := make(map[string]string)
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	schedule := func(kind, rel string) {
		// A delete followed by a create within the window is an update.
		if prev, ok := pending[rel]; ok && prev == EventDeleted && kind == EventCreated {
			kind = EventUpdated
		} else if ok && prev == EventCreated && kind == EventUpdated {
			kind = EventCreated
		}
		pending[rel] = kind
		if flushTimer == nil {
			flushTimer = time.NewTimer(debounce)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			for rel, kind := range pending {
				logger.Debug("watcher: change", slog.String("path", rel), slog.String("op", kind))
				if cb != nil {
					cb(kind, rel)
				}
			}
			pending = make(map[string]string)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if strings.HasPrefix(info.Name(), ".") {
						continue
					}
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
						continue
					}
					logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					walkMarkdown(vaultRoot, absPath, func(rel string) { schedule(EventCreated, rel) })
					continue
				}
			}

			if !strings.EqualFold(filepath.Ext(absPath), ".md") {
				continue
			}
			rel, relErr := filepath.Rel(vaultRoot, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&fsnotify.Create != 0:
				schedule(EventCreated, rel)
			case ev.Op&fsnotify.Write != 0:
				schedule(EventUpdated, rel)
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// fsnotify reports Rename on the old path; the new path
				// arrives as its own Create.
				schedule(EventDeleted, rel)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// walkMarkdown reports every .md file under dir relative to root.
func walkMarkdown(root, dir string, fn func(rel string)) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		if rel, relErr := filepath.Rel(root, path); relErr == nil {
			fn(filepath.ToSlash(rel))
		}
		return nil
	})
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
