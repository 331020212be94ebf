package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starford/berkana/internal/widget"
)

// Handler holds API route handlers bound to the widget controller.
type Handler struct {
	ctrl *widget.Controller
}

// NewHandler creates a new Handler.
func NewHandler(ctrl *widget.Controller) *Handler {
	return &Handler{ctrl: ctrl}
}

func noteView(snap widget.Snapshot) NoteResponse {
	return NoteResponse{
		Text:          snap.Text,
		SavedChecksum: snap.SavedChecksum,
		Dirty:         snap.Dirty,
	}
}

// GetNote handles GET /api/note.
func (h *Handler) GetNote(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, noteView(h.ctrl.State()))
}

// UpdateNote handles PUT /api/note. Every call is one edit event: the live
// text is replaced and the save task restarted.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	snap := h.ctrl.SetText(*req.Content)
	writeJSON(w, http.StatusOK, noteView(snap))
}

// FlushNote handles POST /api/note/flush. The UI calls this before unload so
// a trailing edit burst is persisted without waiting out the window.
func (h *Handler) FlushNote(w http.ResponseWriter, _ *http.Request) {
	if err := h.ctrl.Flush(); err != nil {
		slog.Error("flush failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, noteView(h.ctrl.State()))
}

// GetState handles GET /api/state.
func (h *Handler) GetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.State())
}

// TogglePin handles POST /api/pin.
func (h *Handler) TogglePin(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.TogglePin())
}

// SetTransparency handles PUT /api/transparency.
func (h *Handler) SetTransparency(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 4096)
	var req TransparencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.SetTransparency(req.Level))
}

// CycleTheme handles POST /api/theme/cycle.
func (h *Handler) CycleTheme(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.CycleTheme())
}

// Close handles POST /api/close. The close request is forwarded to the host
// bridge; nothing changes locally, so the response is a bare acceptance.
func (h *Handler) Close(w http.ResponseWriter, _ *http.Request) {
	h.ctrl.RequestClose()
	w.WriteHeader(http.StatusAccepted)
}
