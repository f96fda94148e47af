// Package syncer mirrors note mutations to the remote document store,
// keeps the durable record of failed mirror operations, and replays that
// record on demand.
package syncer

import (
	"context"
	"fmt"
	"sync"

	"github.com/notevault/notevault/internal/models"
)

// Storage locations for the persisted failed-operation record.
const (
	queueStoreID  = "notevault"
	queueStoreKey = "sync"
	queueEntryKey = "failed_operations"
	queueSecret   = "notevault-sync"
)

// Store is the slice of the encrypted key-value store the queue needs.
type Store interface {
	Save(ctx context.Context, storeID, storeKey, entryKey string, value any, secretName string) error
	Get(ctx context.Context, storeID, storeKey, entryKey, secretName string, dest any) (bool, error)
}

// FailedOpsQueue is the encrypted, persisted record of note ids whose
// remote mirror failed. The gateway inserts on failure; the reconciler
// removes on confirmed success. Every load-mutate-save sequence runs
// under one mutex so concurrent writers cannot lose updates.
type FailedOpsQueue struct {
	store Store
	mu    sync.Mutex
}

func NewFailedOpsQueue(store Store) *FailedOpsQueue {
	return &FailedOpsQueue{store: store}
}

// Load returns the current record, or nil when none has been created
// yet.
func (q *FailedOpsQueue) Load(ctx context.Context) (*models.SyncFailedOperationRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loadLocked(ctx)
}

func (q *FailedOpsQueue) loadLocked(ctx context.Context) (*models.SyncFailedOperationRecord, error) {
	var rec models.SyncFailedOperationRecord
	found, err := q.store.Get(ctx, queueStoreID, queueStoreKey, queueEntryKey, queueSecret, &rec)
	if err != nil {
		return nil, fmt.Errorf("loading failed-operation record: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &rec, nil
}

// Save persists the record, encrypted.
func (q *FailedOpsQueue) Save(ctx context.Context, rec *models.SyncFailedOperationRecord) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.saveLocked(ctx, rec)
}

func (q *FailedOpsQueue) saveLocked(ctx context.Context, rec *models.SyncFailedOperationRecord) error {
	if err := q.store.Save(ctx, queueStoreID, queueStoreKey, queueEntryKey, rec, queueSecret); err != nil {
		return fmt.Errorf("persisting failed-operation record: %w", err)
	}
	return nil
}

// RecordFailure inserts noteID under kind, creating the record lazily on
// first failure, and persists. A pending delete supersedes a pending
// create or update for the same id.
func (q *FailedOpsQueue) RecordFailure(ctx context.Context, kind models.Operation, noteID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	rec, err := q.loadLocked(ctx)
	if err != nil {
		return err
	}
	if rec == nil {
		rec = models.NewSyncFailedOperationRecord()
	}

	rec.Insert(kind, noteID)
	return q.saveLocked(ctx, rec)
}

// Resolve removes the resolved ids from the set for kind and persists.
func (q *FailedOpsQueue) Resolve(ctx context.Context, kind models.Operation, resolved []string) error {
	if len(resolved) == 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	rec, err := q.loadLocked(ctx)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}

	rec.Subtract(kind, resolved)
	return q.saveLocked(ctx, rec)
}
