// Package bridge defines the host-shell capability the widget notifies about
// pin, transparency, and close actions. The bridge is one-way: nothing it
// returns is consumed, and a missing host is modelled by Noop rather than a
// presence check at every call site.
package bridge

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

// Bridge is the host capability surface. All operations are fire-and-forget
// notifications; implementations must never block the caller on host state.
type Bridge interface {
	// TogglePin notifies the host of the new pinned state.
	TogglePin(pinned bool)
	// SetTransparency notifies the host of the raw transparency level.
	// Advisory only: the widget's local state stays authoritative.
	SetTransparency(level float64)
	// CloseApp asks the host to close the application window.
	CloseApp()
}

// Noop is the absent host bridge. Local effects still occur in the widget;
// notifications are silently skipped.
type Noop struct{}

func (Noop) TogglePin(bool)          {}
func (Noop) SetTransparency(float64) {}
func (Noop) CloseApp()               {}

// OrNoop substitutes Noop for a nil bridge.
func OrNoop(b Bridge) Bridge {
	if b == nil {
		return Noop{}
	}
	return b
}

// command is the wire form of a single bridge notification.
type command struct {
	Op     string   `json:"op"`
	Pinned *bool    `json:"pinned,omitempty"`
	Level  *float64 `json:"level,omitempty"`
}

// Stdio implements Bridge by emitting one JSON line per notification on a
// writer, for a supervising native shell reading the process's output pipe.
// Write failures are logged and dropped: skip, never raise, never retry.
type Stdio struct {
	mu     sync.Mutex
	enc    *json.Encoder
	logger *slog.Logger
}

// NewStdio creates a Stdio bridge writing to w.
func NewStdio(w io.Writer, logger *slog.Logger) *Stdio {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stdio{enc: json.NewEncoder(w), logger: logger}
}

func (s *Stdio) emit(cmd command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(cmd); err != nil {
		s.logger.Warn("bridge: emit failed",
			slog.String("op", cmd.Op),
			slog.String("error", err.Error()))
	}
}

func (s *Stdio) TogglePin(pinned bool) {
	s.emit(command{Op: "toggle_pin", Pinned: &pinned})
}

func (s *Stdio) SetTransparency(level float64) {
	s.emit(command{Op: "set_transparency", Level: &level})
}

func (s *Stdio) CloseApp() {
	s.emit(command{Op: "close_app"})
}
