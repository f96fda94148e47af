package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/notevault/notevault/internal/cryptox"
)

// EncryptedStore is the confidential persistence layer: every value is
// JSON-serialized, encrypted through the crypto vault, and stored as an
// iv:ciphertext blob in the local KV engine.
type EncryptedStore struct {
	engine *Engine
	vault  *cryptox.Vault
}

func NewEncryptedStore(engine *Engine, vault *cryptox.Vault) *EncryptedStore {
	return &EncryptedStore{engine: engine, vault: vault}
}

// Save serializes value to JSON, encrypts it under the key identified by
// secretName, and writes it into the (storeID, storeKey) instance under
// entryKey.
func (s *EncryptedStore) Save(ctx context.Context, storeID, storeKey, entryKey string, value any, secretName string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("serializing %s: %w", entryKey, err)
	}

	key, err := s.vault.EnsureKey(ctx, secretName)
	if err != nil {
		return err
	}

	blob, err := cryptox.Encrypt(string(data), key)
	if err != nil {
		return err
	}

	return s.engine.Set(ctx, storeID, storeKey, entryKey, blob)
}

// Get decrypts and parses the entry into dest, returning found=false
// when no entry exists. Decryption and parse failures propagate
// unchanged: a corrupt or undecryptable entry must never resolve to
// default data.
func (s *EncryptedStore) Get(ctx context.Context, storeID, storeKey, entryKey, secretName string, dest any) (bool, error) {
	blob, found, err := s.engine.Get(ctx, storeID, storeKey, entryKey)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	key, err := s.vault.EnsureKey(ctx, secretName)
	if err != nil {
		return false, err
	}

	plaintext, err := cryptox.Decrypt(blob, key)
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal([]byte(plaintext), dest); err != nil {
		return false, fmt.Errorf("parsing %s: %w", entryKey, err)
	}
	return true, nil
}

// Delete removes the entry. Absent entries are not an error.
func (s *EncryptedStore) Delete(ctx context.Context, storeID, storeKey, entryKey string) error {
	return s.engine.Delete(ctx, storeID, storeKey, entryKey)
}

// ClearAll wipes every local KV instance and the vault secrets. Used on
// full reset (device wipe).
func (s *EncryptedStore) ClearAll(ctx context.Context) error {
	return errors.Join(s.engine.Wipe(ctx), s.vault.Wipe(ctx))
}
