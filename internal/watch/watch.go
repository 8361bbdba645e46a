// Package watch re-grades a submission whenever it changes on disk. Events
// are debounced and deduplicated by content hash, so editors that write
// through temp files and atomic renames trigger exactly one re-run.
package watch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mercere99/emperfect/pkg/panicerr"
)

// DebounceInterval is the delay after an fsnotify event before checking the
// checksum, letting rapid event bursts settle.
const DebounceInterval = 100 * time.Millisecond

// Watcher re-runs a grading callback when any watched file changes.
type Watcher struct {
	paths  map[string][sha256.Size]byte // watched file -> last content hash
	logger *slog.Logger
	rerun  func(context.Context) error
}

func New(paths []string, logger *slog.Logger, rerun func(context.Context) error) (*Watcher, error) {
	w := &Watcher{
		paths:  make(map[string][sha256.Size]byte, len(paths)),
		logger: logger,
		rerun:  panicerr.SafeContext(rerun),
	}
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("cannot resolve %s: %w", path, err)
		}
		hash, err := HashFile(abs)
		if err != nil {
			return nil, err
		}
		w.paths[abs] = hash
	}
	return w, nil
}

// Run blocks, watching the parent directories of every registered file and
// re-grading on content changes, until the context is canceled.
//
// Directories are watched rather than the files themselves: editors and
// build tools replace files atomically (write temp, rename), which changes
// the inode and would silently detach a file watch.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	dirs := make(map[string]bool)
	for path := range w.paths {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("cannot watch %s: %w", dir, err)
		}
	}
	w.logger.Info("watching for changes", "files", len(w.paths))

	var debounceTimer *time.Timer
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, watched := w.paths[abs]; !watched {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			path := abs
			debounceTimer = time.AfterFunc(DebounceInterval, func() {
				w.checkAndRerun(ctx, path)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("fsnotify error", "err", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Watcher) checkAndRerun(ctx context.Context, path string) {
	newHash, err := HashFile(path)
	if err != nil {
		w.logger.Warn("cannot hash changed file", "path", path, "err", err)
		return
	}
	if newHash == w.paths[path] {
		w.logger.Debug("event but checksum unchanged, ignoring", "path", path)
		return
	}
	w.paths[path] = newHash
	w.logger.Info("submission changed, re-grading", "path", path)
	if err := w.rerun(ctx); err != nil {
		w.logger.Error("re-grade failed", "err", err)
	}
}

// HashFile computes the SHA256 hash of the file at the given path.
func HashFile(path string) ([sha256.Size]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return [sha256.Size]byte{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return [sha256.Size]byte{}, fmt.Errorf("hash %s: %w", path, err)
	}

	var result [sha256.Size]byte
	copy(result[:], h.Sum(nil))
	return result, nil
}
