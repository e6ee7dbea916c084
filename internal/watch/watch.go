// Package watch implements the optional integrity watcher: an fsnotify-based
// goroutine that reports every filesystem event under the engine's root
// directory, so a caller running with WithIntegrityWatch can detect
// concurrent out-of-band tampering or a second process sharing the same
// root. The events of this process's own writes are reported as well. It is off by default and purely observational - it never
// blocks or rejects a write, only reports one.
//
// Grounded on pkg/sync/file_watcher.go's fsnotify wiring (watcher
// construction, recursive directory registration, a buffered event channel
// drained by a background goroutine), trimmed to this package's narrower
// purpose: no debounce timers, no sync-event protocol, just integrity
// diagnostics.
package watch

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/cabinetdb/cabinet/internal/diagnostics"
)

// Watcher observes a root directory tree for filesystem events and reports
// them as diagnostics. fsnotify cannot distinguish the engine's own atomic
// writes from a concurrent writer, so every event - including this
// process's own Save/Delete calls - is reported; callers should expect and
// filter their own traffic rather than treat every event as tampering.
type Watcher struct {
	fsw      *fsnotify.Watcher
	reporter *diagnostics.Reporter
	logger   *zap.SugaredLogger
	cancel   context.CancelFunc
}

// New creates a Watcher rooted at dir and begins watching it and all of its
// subdirectories recursively. Events are reported to reporter; a nil
// reporter is valid and simply discards them.
func New(ctx context.Context, dir string, reporter *diagnostics.Reporter, logger *zap.SugaredLogger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := addRecursive(fsw, dir); err != nil {
		fsw.Close()
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w := &Watcher{fsw: fsw, reporter: reporter, logger: logger, cancel: cancel}
	go w.loop(watchCtx)
	return w, nil
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.reporter.Report(diagnostics.Diagnostic{
				Severity: diagnostics.SeverityWarning,
				Source:   "watch",
				ID:       ev.Name,
				Message:  "out-of-band filesystem event observed: " + ev.Op.String(),
			})
			if w.logger != nil {
				w.logger.Debugw("integrity watch event", "path", ev.Name, "op", ev.Op.String())
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warnw("integrity watch error", "error", err)
			}
		}
	}
}

// Close stops the watcher and releases its fsnotify handle.
func (w *Watcher) Close() error {
	w.cancel()
	return w.fsw.Close()
}
