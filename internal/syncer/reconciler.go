package syncer

import (
	"context"
	"errors"
	"sync"

	"github.com/notevault/notevault/internal/common"
	"github.com/notevault/notevault/internal/logging"
	"github.com/notevault/notevault/internal/models"
)

// NoteSource is the reconciler's read-only view of the note repository.
type NoteSource interface {
	Get(id string) (models.Note, bool)
}

// Reconciler drains the failed-operation queue against the gateway and
// the repository's current data. It runs on explicit invocation (login,
// manual refresh, app foreground); there is no background retry loop.
type Reconciler struct {
	gateway *Gateway
	queue   *FailedOpsQueue
	notes   NoteSource
	log     logging.Logger

	// in-flight guard: two SyncAll runs must never interleave their
	// load-mutate-save sequences on the queue
	inFlight sync.Mutex
}

func NewReconciler(gateway *Gateway, queue *FailedOpsQueue, notes NoteSource, log logging.Logger) *Reconciler {
	return &Reconciler{gateway: gateway, queue: queue, notes: notes, log: log}
}

// SyncAll replays the failed-operation record in fixed order: deletions,
// uploads, updates. Each phase is independently fault-tolerant — one
// failed replay does not block the rest — but the call reports success
// only if every step succeeded. After each phase the resolved ids are
// subtracted from the record and persisted.
//
// A call while another SyncAll is outstanding is rejected with
// ErrSyncInProgress.
func (r *Reconciler) SyncAll(ctx context.Context, userID string) error {
	if !r.inFlight.TryLock() {
		return common.ErrSyncInProgress
	}
	defer r.inFlight.Unlock()

	rec, err := r.queue.Load(ctx)
	if err != nil {
		return err
	}
	if rec == nil || rec.Empty() {
		return nil
	}

	var errs []error

	// 1. deletions: a pending delete supersedes everything else
	resolved := make([]string, 0, len(rec.Deleted))
	for _, id := range rec.Deleted {
		if err := r.gateway.Delete(ctx, userID, id); err != nil {
			r.log.Warn(ctx, "replaying delete", "noteId", id, "error", err)
			replayTotal.WithLabelValues("delete", "failure").Inc()
			errs = append(errs, err)
			continue
		}
		replayTotal.WithLabelValues("delete", "success").Inc()
		resolved = append(resolved, id)
	}
	if err := r.queue.Resolve(ctx, models.OpDeleted, resolved); err != nil {
		errs = append(errs, err)
	}

	// 2. uploads: replay against the current local copy
	resolved = resolved[:0]
	for _, id := range rec.Uploaded {
		note, ok := r.notes.Get(id)
		if !ok {
			// deleted locally since the failure; nothing left to mirror
			r.log.Debug(ctx, "dropping queued upload for missing note", "noteId", id)
			resolved = append(resolved, id)
			continue
		}
		if err := r.gateway.Upload(ctx, userID, note); err != nil {
			r.log.Warn(ctx, "replaying upload", "noteId", id, "error", err)
			replayTotal.WithLabelValues("upload", "failure").Inc()
			errs = append(errs, err)
			continue
		}
		replayTotal.WithLabelValues("upload", "success").Inc()
		resolved = append(resolved, id)
	}
	if err := r.queue.Resolve(ctx, models.OpUploaded, resolved); err != nil {
		errs = append(errs, err)
	}

	// 3. updates: replay with the note's current full field set
	resolved = resolved[:0]
	for _, id := range rec.Updated {
		note, ok := r.notes.Get(id)
		if !ok {
			r.log.Debug(ctx, "dropping queued update for missing note", "noteId", id)
			resolved = append(resolved, id)
			continue
		}
		if err := r.gateway.Update(ctx, userID, id, note); err != nil {
			r.log.Warn(ctx, "replaying update", "noteId", id, "error", err)
			replayTotal.WithLabelValues("update", "failure").Inc()
			errs = append(errs, err)
			continue
		}
		replayTotal.WithLabelValues("update", "success").Inc()
		resolved = append(resolved, id)
	}
	if err := r.queue.Resolve(ctx, models.OpUpdated, resolved); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
