package syncer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/notevault/notevault/internal/logging"
	"github.com/notevault/notevault/internal/models"
	"github.com/notevault/notevault/internal/remote"
)

// Gateway mirrors note mutations to the remote document store. It makes
// exactly one remote attempt per call and never retries internally: a
// failure becomes a durable entry in the failed-operation queue, and the
// original error is re-raised so the caller can notify the user. All
// retry policy lives in the reconciler.
type Gateway struct {
	docs  remote.DocumentStore
	queue *FailedOpsQueue
	log   logging.Logger
}

func NewGateway(docs remote.DocumentStore, queue *FailedOpsQueue, log logging.Logger) *Gateway {
	return &Gateway{docs: docs, queue: queue, log: log}
}

// Upload creates or replaces the note at the remote store.
func (g *Gateway) Upload(ctx context.Context, userID string, note models.Note) error {
	if err := g.docs.SetDocument(ctx, remote.NotePath(userID, note.ID), note); err != nil {
		g.recordFailure(ctx, models.OpUploaded, note.ID)
		return fmt.Errorf("uploading note %s: %w", note.ID, err)
	}
	return nil
}

// Update applies a partial update to the note at the remote store. The
// partial payload is a NotePatch for live mutations or a full note when
// the reconciler replays with the current field set.
func (g *Gateway) Update(ctx context.Context, userID, noteID string, partial any) error {
	if err := g.docs.UpdateDocument(ctx, remote.NotePath(userID, noteID), partial); err != nil {
		g.recordFailure(ctx, models.OpUpdated, noteID)
		return fmt.Errorf("updating note %s: %w", noteID, err)
	}
	return nil
}

// Delete removes the note at the remote store.
func (g *Gateway) Delete(ctx context.Context, userID, noteID string) error {
	if err := g.docs.DeleteDocument(ctx, remote.NotePath(userID, noteID)); err != nil {
		g.recordFailure(ctx, models.OpDeleted, noteID)
		return fmt.Errorf("deleting note %s: %w", noteID, err)
	}
	return nil
}

// FetchAll reads the user's full note collection from the remote store.
func (g *Gateway) FetchAll(ctx context.Context, userID string) ([]models.Note, error) {
	docs, err := g.docs.ListDocuments(ctx, remote.NotesPath(userID))
	if err != nil {
		return nil, fmt.Errorf("fetching notes: %w", err)
	}

	notes := make([]models.Note, 0, len(docs))
	for _, doc := range docs {
		var note models.Note
		if err := json.Unmarshal(doc, &note); err != nil {
			return nil, fmt.Errorf("fetching notes: decoding document: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, nil
}

// recordFailure writes the durable obligation. A queue write failure is
// logged, not raised: the caller already gets the remote error, and
// masking it with a bookkeeping error would hide what actually happened.
func (g *Gateway) recordFailure(ctx context.Context, kind models.Operation, noteID string) {
	remoteFailuresTotal.WithLabelValues(string(kind)).Inc()
	if err := g.queue.RecordFailure(ctx, kind, noteID); err != nil {
		g.log.Error(ctx, "recording failed operation", "op", string(kind), "noteId", noteID, "error", err)
	}
}
