package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/berkana/internal/bridge"
	"github.com/starford/berkana/internal/kv"
	"github.com/starford/berkana/internal/testutil"
	"github.com/starford/berkana/internal/widget"
)

// testEnv sets up a temp store, controller with a recorder bridge, and
// router. An empty authToken means disabled auth mode.
func testEnv(t *testing.T, authToken string) (*widget.Controller, *bridge.Recorder, kv.Store, http.Handler) {
	t.Helper()

	store := testutil.TestStore(t)
	rec := &bridge.Recorder{}
	ctrl := widget.New(store, rec, widget.Options{SaveWindow: 40 * time.Millisecond})
	t.Cleanup(func() { _ = ctrl.Close() })
	if err := ctrl.Ready(); err != nil {
		t.Fatalf("Ready: %v", err)
	}

	router := NewRouter(ctrl, authToken != "", authToken, nil)
	return ctrl, rec, store, router
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUpdateAndGetNote(t *testing.T) {
	_, _, _, router := testEnv(t, "")

	w := do(t, router, http.MethodPut, "/note", map[string]string{"content": "groceries"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/note", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var note NoteResponse
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.Text != "groceries" {
		t.Errorf("text = %q", note.Text)
	}
	if !note.Dirty {
		t.Error("note should be dirty before the save window elapses")
	}
}

func TestUpdateNoteAllowsEmptyContent(t *testing.T) {
	ctrl, _, _, router := testEnv(t, "")
	ctrl.SetText("something")

	w := do(t, router, http.MethodPut, "/note", map[string]string{"content": ""})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := ctrl.State().Text; got != "" {
		t.Errorf("text = %q, want cleared", got)
	}
}

func TestUpdateNoteMissingContent(t *testing.T) {
	_, _, _, router := testEnv(t, "")
	w := do(t, router, http.MethodPut, "/note", map[string]int{"other": 1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestFlushPersists(t *testing.T) {
	_, _, store, router := testEnv(t, "")

	do(t, router, http.MethodPut, "/note", map[string]string{"content": "quick"})
	w := do(t, router, http.MethodPost, "/note/flush", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("flush status = %d", w.Code)
	}

	value, ok, _ := store.Get(kv.KeyNoteContent)
	if !ok || value != "quick" {
		t.Errorf("persisted = (%q, %v)", value, ok)
	}
}

func TestPinEndpoint(t *testing.T) {
	_, rec, _, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/pin", nil)
	var snap StateResponse
	_ = json.Unmarshal(w.Body.Bytes(), &snap)
	if !snap.Pinned {
		t.Error("first toggle should pin")
	}

	w = do(t, router, http.MethodPost, "/pin", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &snap)
	if snap.Pinned {
		t.Error("second toggle should unpin")
	}

	if calls := rec.PinCalls(); len(calls) != 2 || !calls[0] || calls[1] {
		t.Errorf("bridge pin calls = %v", calls)
	}
}

func TestTransparencyEndpoint(t *testing.T) {
	_, rec, _, router := testEnv(t, "")

	w := do(t, router, http.MethodPut, "/transparency", map[string]float64{"level": 0.4})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var snap StateResponse
	_ = json.Unmarshal(w.Body.Bytes(), &snap)
	if snap.Background != "rgba(30,30,30,0.4)" {
		t.Errorf("background = %q", snap.Background)
	}
	if calls := rec.TransparencyCalls(); len(calls) != 1 || calls[0] != 0.4 {
		t.Errorf("bridge calls = %v", calls)
	}
}

func TestTransparencyRejectsOutOfRange(t *testing.T) {
	_, rec, _, router := testEnv(t, "")

	w := do(t, router, http.MethodPut, "/transparency", map[string]float64{"level": 1.5})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if len(rec.TransparencyCalls()) != 0 {
		t.Error("rejected level must not reach the bridge")
	}
}

func TestCloseEndpoint(t *testing.T) {
	ctrl, rec, _, router := testEnv(t, "")
	ctrl.SetText("still here")

	w := do(t, router, http.MethodPost, "/close", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	if rec.CloseCalls() != 1 {
		t.Errorf("close calls = %d", rec.CloseCalls())
	}
	if got := ctrl.State().Text; got != "still here" {
		t.Errorf("text = %q, close must not mutate state", got)
	}
}

func TestThemeCycleEndpoint(t *testing.T) {
	_, _, _, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/theme/cycle", nil)
	var snap StateResponse
	_ = json.Unmarshal(w.Body.Bytes(), &snap)
	if snap.Theme != "Classic" {
		t.Errorf("theme = %q, want Classic", snap.Theme)
	}
}

func TestStateEndpoint(t *testing.T) {
	ctrl, _, _, router := testEnv(t, "")
	ctrl.SetTransparency(0.9)

	w := do(t, router, http.MethodGet, "/state", nil)
	var snap StateResponse
	_ = json.Unmarshal(w.Body.Bytes(), &snap)
	if snap.Transparency != 0.9 || snap.Theme != "Dark" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestAuthRequired(t *testing.T) {
	_, _, _, router := testEnv(t, "sekrit")

	w := do(t, router, http.MethodGet, "/state", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("with token status = %d", rec.Code)
	}
}

func TestAuthWrongToken(t *testing.T) {
	_, _, _, router := testEnv(t, "sekrit")
	req := httptest.NewRequest(http.MethodPost, "/pin", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
