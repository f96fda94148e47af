// Package remote abstracts the remote document store the notes are
// mirrored to: create/update/delete/list of JSON documents keyed by a
// deterministic path.
package remote

import (
	"context"
	"encoding/json"
)

// DocumentStore is the fixed interface of the remote store. Operations
// are replace-by-id or delete-by-id, so replaying one that already
// applied is a no-op on the remote side.
type DocumentStore interface {
	// SetDocument creates or fully replaces the document at path.
	SetDocument(ctx context.Context, path string, data any) error

	// UpdateDocument applies a partial update to the document at path.
	UpdateDocument(ctx context.Context, path string, partial any) error

	// DeleteDocument removes the document at path. Deleting an absent
	// document is a no-op.
	DeleteDocument(ctx context.Context, path string) error

	// ListDocuments returns every document under the collection path.
	ListDocuments(ctx context.Context, path string) ([]json.RawMessage, error)
}

// NotesPath is the collection path for a user's notes.
func NotesPath(userID string) string {
	return "users/" + userID + "/notes"
}

// NotePath is the document path for one note.
func NotePath(userID, noteID string) string {
	return NotesPath(userID) + "/" + noteID
}
