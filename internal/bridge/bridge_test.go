package bridge

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestStdioEmitsOneLinePerCall(t *testing.T) {
	var buf bytes.Buffer
	b := NewStdio(&buf, nil)

	b.TogglePin(true)
	b.SetTransparency(0.75)
	b.CloseApp()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3: %q", len(lines), buf.String())
	}

	var cmd struct {
		Op     string   `json:"op"`
		Pinned *bool    `json:"pinned"`
		Level  *float64 `json:"level"`
	}

	if err := json.Unmarshal([]byte(lines[0]), &cmd); err != nil {
		t.Fatalf("line 0: %v", err)
	}
	if cmd.Op != "toggle_pin" || cmd.Pinned == nil || !*cmd.Pinned {
		t.Errorf("line 0 = %q", lines[0])
	}

	if err := json.Unmarshal([]byte(lines[1]), &cmd); err != nil {
		t.Fatalf("line 1: %v", err)
	}
	if cmd.Op != "set_transparency" || cmd.Level == nil || *cmd.Level != 0.75 {
		t.Errorf("line 1 = %q", lines[1])
	}

	if err := json.Unmarshal([]byte(lines[2]), &cmd); err != nil {
		t.Fatalf("line 2: %v", err)
	}
	if cmd.Op != "close_app" {
		t.Errorf("line 2 = %q", lines[2])
	}
}

func TestCloseAppCarriesNoPayload(t *testing.T) {
	var buf bytes.Buffer
	NewStdio(&buf, nil).CloseApp()
	line := strings.TrimSpace(buf.String())
	if line != `{"op":"close_app"}` {
		t.Errorf("line = %q", line)
	}
}

func TestOrNoop(t *testing.T) {
	b := OrNoop(nil)
	if _, ok := b.(Noop); !ok {
		t.Fatalf("OrNoop(nil) = %T, want Noop", b)
	}
	// Must be callable without any host present.
	b.TogglePin(true)
	b.SetTransparency(0.3)
	b.CloseApp()

	rec := &Recorder{}
	if OrNoop(rec) != Bridge(rec) {
		t.Error("OrNoop should pass through a non-nil bridge")
	}
}

func TestRecorderCounts(t *testing.T) {
	rec := &Recorder{}
	rec.TogglePin(true)
	rec.TogglePin(false)
	rec.SetTransparency(0.5)
	rec.CloseApp()

	if got := rec.PinCalls(); len(got) != 2 || !got[0] || got[1] {
		t.Errorf("pin calls = %v", got)
	}
	if got := rec.TransparencyCalls(); len(got) != 1 || got[0] != 0.5 {
		t.Errorf("transparency calls = %v", got)
	}
	if rec.CloseCalls() != 1 {
		t.Errorf("close calls = %d", rec.CloseCalls())
	}
}
