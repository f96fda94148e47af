// Package repository holds the authoritative in-memory note collection
// and persists it confidentially to the encrypted key-value store.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bep/debounce"

	"github.com/notevault/notevault/internal/common"
	"github.com/notevault/notevault/internal/logging"
	"github.com/notevault/notevault/internal/models"
)

// Storage locations for the persisted note list.
const (
	noteStoreID   = "notevault"
	noteStoreKey  = "notes"
	notesEntryKey = "notes"
	noteSecret    = "notevault-notes"
)

// Store is the slice of the encrypted key-value store the repository
// needs.
type Store interface {
	Save(ctx context.Context, storeID, storeKey, entryKey string, value any, secretName string) error
	Get(ctx context.Context, storeID, storeKey, entryKey, secretName string, dest any) (bool, error)
}

type state int

const (
	stateUninitialized state = iota
	stateLoading
	stateReady
)

// Repository is the only writer of the note collection. Every mutation
// resets a trailing debounce timer; only the timer's expiry writes to
// storage, collapsing a burst of edits into one write. Clear is the
// exception and persists immediately.
type Repository struct {
	store     Store
	log       logging.Logger
	debounced func(func())

	mu    sync.Mutex
	state state
	notes []models.Note
}

func New(store Store, log logging.Logger, window time.Duration) *Repository {
	return &Repository{
		store:     store,
		log:       log,
		debounced: debounce.New(window),
	}
}

// Load reads the full note list from storage. An absent entry yields an
// empty collection; any read failure is fatal to initialization and
// wraps ErrInitialization — the caller must not proceed with implicit
// empty state.
func (r *Repository) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == stateReady {
		return nil
	}
	r.state = stateLoading

	var notes []models.Note
	found, err := r.store.Get(ctx, noteStoreID, noteStoreKey, notesEntryKey, noteSecret, &notes)
	if err != nil {
		r.state = stateUninitialized
		return fmt.Errorf("loading notes: %w", errors.Join(common.ErrInitialization, err))
	}
	if !found || notes == nil {
		notes = []models.Note{}
	}

	r.notes = notes
	r.state = stateReady
	return nil
}

// Add appends the note and schedules persistence. The id must not be
// present yet.
func (r *Repository) Add(ctx context.Context, note models.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.readyLocked(); err != nil {
		return err
	}
	if r.indexLocked(note.ID) >= 0 {
		return fmt.Errorf("note %s: %w", note.ID, common.ErrAlreadyExists)
	}

	r.notes = append(r.notes, note)
	r.scheduleLocked(ctx)
	return nil
}

// Update merges the patch into the note with the given id and schedules
// persistence. An unknown id is a no-op, not an error.
func (r *Repository) Update(ctx context.Context, id string, patch models.NotePatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.readyLocked(); err != nil {
		return err
	}
	i := r.indexLocked(id)
	if i < 0 {
		return nil
	}

	r.notes[i] = applyPatch(r.notes[i], patch)
	r.scheduleLocked(ctx)
	return nil
}

// Delete removes the note by id and schedules persistence.
func (r *Repository) Delete(ctx context.Context, note models.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.readyLocked(); err != nil {
		return err
	}
	i := r.indexLocked(note.ID)
	if i < 0 {
		return nil
	}

	r.notes = append(r.notes[:i], r.notes[i+1:]...)
	r.scheduleLocked(ctx)
	return nil
}

// ReplaceAll overwrites the whole collection, last writer wins. Used
// when seeding from remote data after login or explicit sync.
func (r *Repository) ReplaceAll(ctx context.Context, notes []models.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.readyLocked(); err != nil {
		return err
	}

	r.notes = make([]models.Note, len(notes))
	copy(r.notes, notes)
	r.scheduleLocked(ctx)
	return nil
}

// Clear empties the collection and persists immediately, bypassing the
// debounce. Sign-out path.
func (r *Repository) Clear(ctx context.Context) error {
	r.mu.Lock()
	if err := r.readyLocked(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.notes = []models.Note{}
	r.mu.Unlock()

	return r.persist(ctx)
}

// Flush writes the current collection out now. Lets the application
// root shrink the debounce loss window when the app backgrounds.
func (r *Repository) Flush(ctx context.Context) error {
	r.mu.Lock()
	if err := r.readyLocked(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	return r.persist(ctx)
}

// Notes returns a snapshot copy of the collection.
func (r *Repository) Notes() []models.Note {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Note, len(r.notes))
	copy(out, r.notes)
	return out
}

// Get returns the note with the given id.
func (r *Repository) Get(id string) (models.Note, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexLocked(id); i >= 0 {
		return r.notes[i], true
	}
	return models.Note{}, false
}

func (r *Repository) readyLocked() error {
	if r.state != stateReady {
		return fmt.Errorf("note repository: %w", common.ErrNotInitialized)
	}
	return nil
}

func (r *Repository) indexLocked(id string) int {
	for i := range r.notes {
		if r.notes[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) scheduleLocked(ctx context.Context) {
	r.debounced(func() {
		// fires after the caller's context may be gone
		if err := r.persist(context.Background()); err != nil {
			r.log.Error(ctx, "persisting notes", "error", err)
		}
	})
}

func (r *Repository) persist(ctx context.Context) error {
	r.mu.Lock()
	snapshot := make([]models.Note, len(r.notes))
	copy(snapshot, r.notes)
	r.mu.Unlock()

	if err := r.store.Save(ctx, noteStoreID, noteStoreKey, notesEntryKey, snapshot, noteSecret); err != nil {
		return fmt.Errorf("persisting notes: %w", err)
	}
	return nil
}

// applyPatch merges the set fields of the patch into the note. Merge
// semantics for partial updates are defined here and nowhere else. The
// id is immutable and never part of a patch.
func applyPatch(n models.Note, p models.NotePatch) models.Note {
	if p.Category != nil {
		n.Category = *p.Category
	}
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.CategoryDetail != nil {
		detail := *p.CategoryDetail
		n.CategoryDetail = &detail
	}
	if p.Kind != nil {
		n.Kind = *p.Kind
	}
	if p.Description != nil {
		n.Description = *p.Description
	}
	if p.Date != nil {
		n.Date = *p.Date
	}
	if p.Time != nil {
		n.Time = *p.Time
	}
	if p.Days != nil {
		n.Days = append([]string(nil), (*p.Days)...)
	}
	if p.Amount != nil {
		n.Amount = *p.Amount
	}
	if p.Occurrence != nil {
		n.Occurrence = *p.Occurrence
	}
	return n
}
