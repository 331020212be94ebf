// Package widget implements the sticky-note widget controller: it owns the
// live note state, persists edits to the key-value store after a quiet
// period, and forwards pin/transparency/close actions to the host bridge.
package widget

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/starford/berkana/internal/bridge"
	"github.com/starford/berkana/internal/checksum"
	"github.com/starford/berkana/internal/kv"
	"github.com/starford/berkana/internal/theme"
)

// DefaultSaveWindow is the debounce window between the last edit and the
// persistence write.
const DefaultSaveWindow = 500 * time.Millisecond

// EventCallback is invoked after controller state changes. kind is one of
// "note.saved", "state.changed", "note.reloaded".
type EventCallback func(kind string, snap Snapshot)

// Snapshot is a point-in-time view of the widget state, served to the UI and
// broadcast over SSE.
type Snapshot struct {
	Text         string  `json:"text"`
	Pinned       bool    `json:"pinned"`
	Transparency float64 `json:"transparency"`
	// Opacity is Transparency mapped through theme.Curve; Background keeps
	// the raw level.
	Opacity       float64 `json:"opacity"`
	ThemeIndex    int     `json:"theme_index"`
	Theme         string  `json:"theme"`
	Background    string  `json:"background"`
	TextColor     string  `json:"text_color"`
	Border        string  `json:"border"`
	SavedChecksum string  `json:"saved_checksum"`
	Dirty         bool    `json:"dirty"`
}

// Controller is the note widget controller. One instance per widget; all
// state is owned here and guarded by a single mutex since edit events arrive
// on HTTP handler goroutines and the save task fires on a timer goroutine.
type Controller struct {
	store  kv.Store
	bridge bridge.Bridge
	logger *slog.Logger
	cb     EventCallback
	saver  *debouncer

	persistTheme bool

	// writeMu serializes note-content store writes so a reload cannot race
	// an in-flight flush.
	writeMu sync.Mutex

	mu           sync.Mutex
	ready        bool
	closed       bool
	text         string
	gen          uint64
	dirty        bool
	pinned       bool
	transparency float64
	themeIndex   int
	savedSum     string
}

// Options configures a Controller.
type Options struct {
	// SaveWindow is the debounce window; DefaultSaveWindow when zero.
	SaveWindow time.Duration
	// Transparency is the initial level in [0, 1].
	Transparency float64
	// PersistTheme controls whether theme cycling writes the theme key.
	PersistTheme bool
	// OnEvent receives state change notifications; may be nil.
	OnEvent EventCallback
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// New creates a Controller. A nil hostBridge means the host is absent: local
// effects still occur and notifications are skipped.
func New(store kv.Store, hostBridge bridge.Bridge, opts Options) *Controller {
	if opts.SaveWindow <= 0 {
		opts.SaveWindow = DefaultSaveWindow
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	c := &Controller{
		store:        store,
		bridge:       bridge.OrNoop(hostBridge),
		logger:       opts.Logger,
		cb:           opts.OnEvent,
		transparency: opts.Transparency,
		persistTheme: opts.PersistTheme,
	}
	c.saver = newDebouncer(opts.SaveWindow, c.saveNow)
	return c
}

// Ready marks the host bridge as available and loads persisted state. An
// absent stored note is a valid state: the text stays empty. Ready is a
// no-op after the first call.
func (c *Controller) Ready() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return nil
	}

	content, ok, err := c.store.Get(kv.KeyNoteContent)
	if err != nil {
		return fmt.Errorf("widget: load note: %w", err)
	}
	if ok {
		c.text = content
		c.savedSum = checksum.SumString(content)
	}

	if raw, ok, err := c.store.Get(kv.KeyThemeIndex); err == nil && ok {
		if idx, convErr := strconv.Atoi(raw); convErr == nil {
			c.themeIndex = idx
		}
	}

	c.ready = true
	return nil
}

// SetText records an edit and restarts the save task: if no further edit
// arrives within the window, the current text is persisted. Only one write
// is ever pending.
func (c *Controller) SetText(text string) Snapshot {
	c.mu.Lock()
	c.text = text
	c.dirty = true
	snap := c.snapshotLocked()
	closed := c.closed
	c.mu.Unlock()

	if !closed {
		c.saver.Restart()
	}
	return snap
}

// saveNow is the debounced persistence write.
func (c *Controller) saveNow() {
	if err := c.Flush(); err != nil {
		c.logger.Error("widget: autosave failed", slog.String("error", err.Error()))
	}
}

// Flush cancels any pending save task and persists the current text
// immediately. It is a no-op when nothing changed since the last save.
func (c *Controller) Flush() error {
	c.saver.Cancel()

	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return nil
	}
	text := c.text
	gen := c.gen
	c.mu.Unlock()

	c.writeMu.Lock()
	c.mu.Lock()
	stale := c.gen != gen
	c.mu.Unlock()
	if stale {
		// A reload replaced the text after this flush captured it; the
		// reloaded content is authoritative and must not be overwritten.
		c.writeMu.Unlock()
		return nil
	}
	err := c.store.Set(kv.KeyNoteContent, text)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("widget: persist note: %w", err)
	}

	c.mu.Lock()
	if c.gen != gen {
		// A reload landed after the write and already re-persisted; its
		// bookkeeping stands.
		c.mu.Unlock()
		return nil
	}
	// A later edit may have landed while the write was in flight; only clear
	// dirty if the persisted text is still current.
	if c.text == text {
		c.dirty = false
	}
	c.savedSum = checksum.SumString(text)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.emit("note.saved", snap)
	return nil
}

// TogglePin flips the pinned flag and notifies the host. The local flip
// happens regardless of host presence.
func (c *Controller) TogglePin() Snapshot {
	c.mu.Lock()
	c.pinned = !c.pinned
	pinned := c.pinned
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.bridge.TogglePin(pinned)
	c.emit("state.changed", snap)
	return snap
}

// SetTransparency applies the level to the background color and forwards the
// raw value to the host on every call, non-debounced. The notification is
// advisory; local state stays authoritative.
func (c *Controller) SetTransparency(level float64) Snapshot {
	c.mu.Lock()
	c.transparency = level
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.bridge.SetTransparency(level)
	c.emit("state.changed", snap)
	return snap
}

// CycleTheme advances to the next theme and persists the index when
// configured to.
func (c *Controller) CycleTheme() Snapshot {
	c.mu.Lock()
	c.themeIndex = theme.Next(c.themeIndex)
	idx := c.themeIndex
	persist := c.persistTheme
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if persist {
		if err := c.store.Set(kv.KeyThemeIndex, strconv.Itoa(idx)); err != nil {
			c.logger.Warn("widget: persist theme failed", slog.String("error", err.Error()))
		}
	}
	c.emit("state.changed", snap)
	return snap
}

// RequestClose forwards a close request to the host. No local state changes;
// with an absent host this is a no-op.
func (c *Controller) RequestClose() {
	c.bridge.CloseApp()
}

// Reload replaces the live text from an external source (the mirror file)
// and persists it immediately, bypassing the debounce window.
func (c *Controller) Reload(text string) (Snapshot, error) {
	c.saver.Cancel()

	c.writeMu.Lock()
	c.mu.Lock()
	c.gen++
	c.text = text
	c.dirty = false
	c.savedSum = checksum.SumString(text)
	c.mu.Unlock()

	err := c.store.Set(kv.KeyNoteContent, text)
	c.writeMu.Unlock()
	if err != nil {
		return Snapshot{}, fmt.Errorf("widget: persist reloaded note: %w", err)
	}

	c.mu.Lock()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.emit("note.reloaded", snap)
	return snap, nil
}

// State returns a snapshot of the current widget state.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close tears the controller down: the save task is stopped and any unsaved
// text is flushed so a trailing edit burst is never lost.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	return c.Flush()
}

func (c *Controller) snapshotLocked() Snapshot {
	th := theme.Get(c.themeIndex)
	return Snapshot{
		Text:          c.text,
		Pinned:        c.pinned,
		Transparency:  c.transparency,
		Opacity:       theme.Curve(c.transparency),
		ThemeIndex:    c.themeIndex,
		Theme:         th.Name,
		Background:    theme.Background(th.BG, c.transparency),
		TextColor:     th.Text,
		Border:        th.Border,
		SavedChecksum: c.savedSum,
		Dirty:         c.dirty,
	}
}

func (c *Controller) emit(kind string, snap Snapshot) {
	if c.cb != nil {
		c.cb(kind, snap)
	}
}
