package cryptox

import (
	"context"
	"fmt"
	"sync"

	"github.com/notevault/notevault/internal/common"
	"github.com/notevault/notevault/internal/secrets"
)

// Vault owns the per-store symmetric keys. A key is generated once per
// logical store id, persisted in the platform secure vault, and cached
// for the process lifetime. Key material never leaves this package
// except through EnsureKey.
type Vault struct {
	secrets secrets.Store

	mu   sync.Mutex
	keys map[string][]byte
}

func NewVault(store secrets.Store) *Vault {
	return &Vault{secrets: store, keys: make(map[string][]byte)}
}

// EnsureKey returns the symmetric key for storeID, looking it up in the
// cache, then the secure vault, and finally generating and persisting a
// new one. All failures wrap ErrEncryptionFailure.
func (v *Vault) EnsureKey(ctx context.Context, storeID string) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if key, ok := v.keys[storeID]; ok {
		return key, nil
	}

	key, found, err := v.secrets.Get(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("%w: reading key for %s: %v", common.ErrEncryptionFailure, storeID, err)
	}
	if !found {
		key, err = common.GenerateRandBytes(KeySize)
		if err != nil {
			return nil, fmt.Errorf("%w: generating key for %s: %v", common.ErrEncryptionFailure, storeID, err)
		}
		if err := v.secrets.Set(ctx, storeID, key); err != nil {
			return nil, fmt.Errorf("%w: storing key for %s: %v", common.ErrEncryptionFailure, storeID, err)
		}
	}

	v.keys[storeID] = key
	return key, nil
}

// Wipe deletes every secret this vault has ensured and zeroes the cached
// key material. Used by the encrypted store's clearAll.
func (v *Vault) Wipe(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	var firstErr error
	for storeID, key := range v.keys {
		if err := v.secrets.Delete(ctx, storeID); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("deleting key for %s: %w", storeID, err)
		}
		common.WipeByteArray(key)
		delete(v.keys, storeID)
	}
	return firstErr
}
