// Package app wires the note store core together. App is the explicitly
// constructed context object the application root owns: one crypto
// vault, one KV engine, one repository, one sync pipeline — passed by
// handle to everything that needs them, no hidden process-wide state.
package app

import (
	"context"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/notevault/notevault/internal/config"
	"github.com/notevault/notevault/internal/cryptox"
	"github.com/notevault/notevault/internal/kvstore"
	"github.com/notevault/notevault/internal/logging"
	"github.com/notevault/notevault/internal/models"
	"github.com/notevault/notevault/internal/remote"
	"github.com/notevault/notevault/internal/repository"
	"github.com/notevault/notevault/internal/secrets"
	"github.com/notevault/notevault/internal/syncer"
)

// App owns the process-lifetime singletons of the note store core.
type App struct {
	Config     *config.Config
	Log        logging.Logger
	Vault      *cryptox.Vault
	Store      *kvstore.EncryptedStore
	Notes      *repository.Repository
	Queue      *syncer.FailedOpsQueue
	Gateway    *syncer.Gateway
	Reconciler *syncer.Reconciler
}

// New builds the core from its external collaborators: the platform
// secure vault and the remote document store. A nil logger falls back to
// slog's default.
func New(cfg *config.Config, log logging.Logger, secretStore secrets.Store, docs remote.DocumentStore) *App {
	if log == nil {
		log = logging.NewSlogLogger(slog.Default())
	}

	vault := cryptox.NewVault(secretStore)
	engine := kvstore.NewEngine(cfg.DataDir)
	store := kvstore.NewEncryptedStore(engine, vault)
	notes := repository.New(store, log.With("component", "repository"), cfg.DebounceWindow)
	queue := syncer.NewFailedOpsQueue(store)
	gateway := syncer.NewGateway(docs, queue, log.With("component", "gateway"))
	reconciler := syncer.NewReconciler(gateway, queue, notes, log.With("component", "reconciler"))

	return &App{
		Config:     cfg,
		Log:        log,
		Vault:      vault,
		Store:      store,
		Notes:      notes,
		Queue:      queue,
		Gateway:    gateway,
		Reconciler: reconciler,
	}
}

// Init loads the note collection from local storage. Must succeed before
// any mutation; a failure means the app must not proceed with implicit
// empty state.
func (a *App) Init(ctx context.Context) error {
	return a.Notes.Load(ctx)
}

// AddNote appends the note locally (authoritative, persisted on the
// debounce timer) and mirrors it to the remote store best-effort. A
// remote failure is already queued for replay when it surfaces here;
// re-raise it so the UI can tell the user the server was not reached.
func (a *App) AddNote(ctx context.Context, userID string, note models.Note) error {
	if err := a.Notes.Add(ctx, note); err != nil {
		return err
	}
	return a.Gateway.Upload(ctx, userID, note)
}

// UpdateNote merges the patch locally and mirrors the partial update.
// An id unknown to the repository is a no-op, local and remote.
func (a *App) UpdateNote(ctx context.Context, userID, noteID string, patch models.NotePatch) error {
	if _, ok := a.Notes.Get(noteID); !ok {
		return nil
	}
	if err := a.Notes.Update(ctx, noteID, patch); err != nil {
		return err
	}
	return a.Gateway.Update(ctx, userID, noteID, patch)
}

// DeleteNote removes the note locally and mirrors the deletion.
func (a *App) DeleteNote(ctx context.Context, userID string, note models.Note) error {
	if err := a.Notes.Delete(ctx, note); err != nil {
		return err
	}
	return a.Gateway.Delete(ctx, userID, note.ID)
}

// SignIn reconciles with the remote store after login: pending failed
// operations are replayed first so offline edits reach the server, then
// the remote collection seeds the local one (last writer wins).
func (a *App) SignIn(ctx context.Context, userID string) error {
	if err := a.Reconciler.SyncAll(ctx, userID); err != nil {
		return fmt.Errorf("sign-in reconciliation: %w", err)
	}

	notes, err := a.Gateway.FetchAll(ctx, userID)
	if err != nil {
		return fmt.Errorf("sign-in fetch: %w", err)
	}
	if err := a.Notes.ReplaceAll(ctx, notes); err != nil {
		return err
	}
	return nil
}

// SyncNow replays the failed-operation queue. Invoked on manual refresh
// and app foreground.
func (a *App) SyncNow(ctx context.Context, userID string) error {
	return a.Reconciler.SyncAll(ctx, userID)
}

// SignOut empties the note collection and persists the empty state
// immediately.
func (a *App) SignOut(ctx context.Context) error {
	return a.Notes.Clear(ctx)
}

// Flush writes any pending debounced state out now. Call when the app
// moves to the background to shrink the loss window.
func (a *App) Flush(ctx context.Context) error {
	return a.Notes.Flush(ctx)
}

// Reset wipes every local KV instance and the vault secrets. Device
// wipe; local data is unrecoverable afterwards.
func (a *App) Reset(ctx context.Context) error {
	return a.Store.ClearAll(ctx)
}
