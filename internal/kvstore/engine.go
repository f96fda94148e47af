// Package kvstore layers the encrypted key-value store over the local
// SQLite engine. One engine instance exists per process; it owns every
// open database handle.
package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/notevault/notevault/internal/kvstore/migrations"
)

// Engine manages the local KV instances. An instance is one SQLite
// database per (storeID, storeKey) pair, opened lazily and cached for
// the process lifetime — opening is expensive, reuse is required.
type Engine struct {
	dataDir string

	mu  sync.Mutex
	dbs map[string]*sql.DB
}

func NewEngine(dataDir string) *Engine {
	return &Engine{
		dataDir: dataDir,
		dbs:     make(map[string]*sql.DB),
	}
}

func (e *Engine) open(ctx context.Context, storeID, storeKey string) (*sql.DB, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cacheKey := storeID + "/" + storeKey
	if db, ok := e.dbs[cacheKey]; ok {
		return db, nil
	}

	if err := os.MkdirAll(e.dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	path := filepath.Join(e.dataDir, storeID+"_"+storeKey+".db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening kv instance %s: %w", cacheKey, err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating kv instance %s: %w", cacheKey, err)
	}

	e.dbs[cacheKey] = db
	return db, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Get returns the raw stored value for entryKey, or found=false when no
// row exists.
func (e *Engine) Get(ctx context.Context, storeID, storeKey, entryKey string) (string, bool, error) {
	db, err := e.open(ctx, storeID, storeKey)
	if err != nil {
		return "", false, err
	}

	var value string
	err = db.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, entryKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", entryKey, err)
	}
	return value, true, nil
}

// Set upserts the raw value under entryKey.
func (e *Engine) Set(ctx context.Context, storeID, storeKey, entryKey, value string) error {
	db, err := e.open(ctx, storeID, storeKey)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO kv (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`,
		entryKey, value)
	if err != nil {
		return fmt.Errorf("writing %s: %w", entryKey, err)
	}
	return nil
}

// Delete removes entryKey. Deleting an absent key is not an error.
func (e *Engine) Delete(ctx context.Context, storeID, storeKey, entryKey string) error {
	db, err := e.open(ctx, storeID, storeKey)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, entryKey); err != nil {
		return fmt.Errorf("deleting %s: %w", entryKey, err)
	}
	return nil
}

// Wipe closes every open instance and removes every database file under
// the data directory, including instances never opened by this process.
func (e *Engine) Wipe(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	for key, db := range e.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", key, err))
		}
		delete(e.dbs, key)
	}

	files, err := filepath.Glob(filepath.Join(e.dataDir, "*.db"))
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	for _, file := range files {
		if err := os.Remove(file); err != nil {
			errs = append(errs, fmt.Errorf("removing %s: %w", file, err))
		}
	}
	return errors.Join(errs...)
}
