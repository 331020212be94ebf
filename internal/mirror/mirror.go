// Package mirror keeps a plain Markdown copy of the note next to the
// database so external editors can read and edit the sticky note. Saves are
// mirrored out atomically; external writes are watched and reloaded into the
// controller.
package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/berkana/internal/checksum"
	"github.com/starford/berkana/internal/widget"
)

// reloadDelay debounces bursts of file events from editors that write in
// several steps (truncate, write, rename).
const reloadDelay = 200 * time.Millisecond

// Mirror mirrors note content to a file and reloads external edits.
type Mirror struct {
	path   string
	ctrl   *widget.Controller
	logger *slog.Logger

	mu      sync.Mutex
	lastSum string // checksum of the last content written by us
}

// New creates a Mirror for the given file path.
func New(path string, ctrl *widget.Controller, logger *slog.Logger) (*Mirror, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("mirror: resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("mirror: mkdir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{path: abs, ctrl: ctrl, logger: logger}, nil
}

// Path returns the absolute mirror file path.
func (m *Mirror) Path() string {
	return m.path
}

// WriteSnapshot writes text to the mirror file: tmp file → fsync → rename.
// The content checksum is recorded so the watcher can tell our own rename
// apart from an external edit.
func (m *Mirror) WriteSnapshot(text string) error {
	m.mu.Lock()
	m.lastSum = checksum.SumString(text)
	m.mu.Unlock()

	dir := filepath.Dir(m.path)
	tmp, err := os.CreateTemp(dir, ".berkana-tmp-*")
	if err != nil {
		return fmt.Errorf("mirror: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(text); err != nil {
		return fmt.Errorf("mirror: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("mirror: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("mirror: close temp: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		return fmt.Errorf("mirror: rename: %w", err)
	}
	success = true
	return nil
}

// Watch observes the mirror file until ctx is cancelled and reloads external
// edits into the controller. The parent directory is watched rather than the
// file itself so that editors replacing the file via rename stay visible.
func (m *Mirror) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(m.path)); err != nil {
		return fmt.Errorf("mirror: watch dir: %w", err)
	}

	m.logger.Info("mirror: watching", slog.String("path", m.path))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(reloadDelay)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(reloadDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			m.logger.Info("mirror: stopped")
			return nil

		case <-reloadCh:
			m.reload()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != m.path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			m.logger.Error("mirror: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// reload reads the mirror file and pushes changed content into the
// controller. Self-writes and no-op edits are detected by checksum.
func (m *Mirror) reload() {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.Warn("mirror: read failed", slog.String("error", err.Error()))
		}
		return
	}

	sum := checksum.Sum(data)
	m.mu.Lock()
	same := sum == m.lastSum
	if !same {
		m.lastSum = sum
	}
	m.mu.Unlock()
	if same {
		return
	}

	if _, err := m.ctrl.Reload(string(data)); err != nil {
		m.logger.Warn("mirror: reload failed", slog.String("error", err.Error()))
		return
	}
	m.logger.Debug("mirror: reloaded external edit", slog.String("path", m.path))
}
