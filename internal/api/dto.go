package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/berkana/internal/widget"
)

// UpdateNoteRequest is the request body for an edit event. Content is a
// pointer so that clearing the note (empty string) is distinguishable from a
// missing field.
type UpdateNoteRequest struct {
	Content *string `json:"content"`
}

// Validate validates the edit request.
func (r UpdateNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.NotNil),
	)
}

// TransparencyRequest is the request body for a slider movement.
type TransparencyRequest struct {
	Level float64 `json:"level"`
}

// Validate validates the transparency request. Zero is a legal level, so
// only the range is checked.
func (r TransparencyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Level, validation.Min(0.0), validation.Max(1.0)),
	)
}

// StateResponse is the full widget snapshot (aliased from the domain layer).
type StateResponse = widget.Snapshot

// NoteResponse is the note-only view of the snapshot.
type NoteResponse struct {
	Text          string `json:"text"`
	SavedChecksum string `json:"saved_checksum"`
	Dirty         bool   `json:"dirty"`
}
