// Package watcher turns filesystem events under the document root into
// debounced ingest runs. Edits usually arrive in bursts (editors write,
// rename, and touch), so events only arm a timer; the ingest trigger fires
// once the tree has been quiet for the debounce window and change detection
// sorts out what actually needs work.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jmhartley/docdex/internal/extractor"
	"github.com/jmhartley/docdex/internal/ingest"
)

// DefaultDebounce is the quiet window before a burst of events becomes a run.
const DefaultDebounce = 500 * time.Millisecond

// Trigger starts one ingest pass over the document root.
type Trigger func(ctx context.Context) error

// Watcher drives a recursive fsnotify watch over one directory tree.
type Watcher struct {
	root     string
	debounce time.Duration
	trigger  Trigger
}

// New creates a Watcher over root. A debounce of zero or less falls back to
// DefaultDebounce.
func New(root string, debounce time.Duration, trigger Trigger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		root:     root,
		debounce: debounce,
		trigger:  trigger,
	}
}

// Run watches the tree and blocks until the context is cancelled. Directories
// created while watching are picked up, so a new collection folder does not
// require a restart. A trigger that reports an active ingest run re-arms the
// timer instead of dropping the pending changes.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create filesystem watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := addTree(fsw, w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	slog.Info("watching for changes", "root", w.root, "debounce", w.debounce)

	// A nil channel never fires; it is armed by the first relevant event.
	var quiet <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(fsw, event) {
				continue
			}
			slog.Debug("filesystem event", "op", event.Op.String(), "path", event.Name)
			quiet = time.After(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("filesystem watcher error", "error", err)

		case <-quiet:
			quiet = nil
			if err := w.trigger(ctx); err != nil {
				if errors.Is(err, ingest.ErrRunActive) {
					// Changes landed during a run; retry after the window.
					quiet = time.After(w.debounce)
					continue
				}
				slog.Error("watch-triggered ingest failed", "error", err)
			}
		}
	}
}

// handleEvent reports whether the event should arm the debounce timer, and
// extends the watch into directories created under the root.
func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) bool {
	if event.Op.Has(fsnotify.Chmod) && event.Op&^fsnotify.Chmod == 0 {
		return false
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !watchableDir(filepath.Base(event.Name)) {
				return false
			}
			if err := addTree(fsw, event.Name); err != nil {
				slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
			return true
		}
	}

	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	// Remove and rename targets no longer stat; the extension still tells
	// whether the index could have held them.
	return extractor.Supported(event.Name)
}

// addTree registers dir and every watchable subdirectory with the watcher.
func addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && !watchableDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("add watch on %s: %w", path, err)
		}
		return nil
	})
}

// watchableDir mirrors discovery's pruning: hidden and tooling directories
// never produce ingestable files, so their events are noise.
func watchableDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return !extractor.IgnoredDir(name)
}
