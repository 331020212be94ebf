package internal

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/berkana/internal/bridge"
	"github.com/starford/berkana/internal/testutil"
	"github.com/starford/berkana/internal/widget"
)

// The bridge writer carries a JSON-line protocol; HTTP request logging must
// never interleave with it.
func TestRequestLogsStayOffBridgeStream(t *testing.T) {
	store := testutil.TestStore(t)

	var bridgeOut bytes.Buffer
	var logOut bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logOut, nil))

	ctrl := widget.New(store, bridge.NewStdio(&bridgeOut, logger), widget.Options{
		SaveWindow: time.Minute,
		Logger:     logger,
	})
	t.Cleanup(func() { _ = ctrl.Close() })
	if err := ctrl.Ready(); err != nil {
		t.Fatalf("Ready: %v", err)
	}

	h := newHTTPHandler(ctrl, NewDefaultConfig(), nil, logger)

	requests := []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/state", nil),
		httptest.NewRequest(http.MethodPost, "/api/pin", nil),
		httptest.NewRequest(http.MethodPut, "/api/transparency", strings.NewReader(`{"level":0.5}`)),
	}
	for _, req := range requests {
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s %s: status %d", req.Method, req.URL.Path, rec.Code)
		}
	}

	lines := strings.Split(strings.TrimSpace(bridgeOut.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("bridge stream has %d lines, want 2 frames: %q", len(lines), bridgeOut.String())
	}
	for _, line := range lines {
		var cmd map[string]interface{}
		if err := json.Unmarshal([]byte(line), &cmd); err != nil {
			t.Fatalf("non-frame data on bridge stream: %q", line)
		}
		if _, ok := cmd["op"]; !ok {
			t.Errorf("bridge frame missing op: %q", line)
		}
	}

	if !strings.Contains(logOut.String(), `"path":"/api/state"`) {
		t.Errorf("request log not routed through slog: %s", logOut.String())
	}
}
