package cryptox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notevault/notevault/internal/secrets"
)

func TestVault_EnsureKeyGeneratesOncePersistsAndCaches(t *testing.T) {
	ctx := context.Background()
	store := secrets.NewMemStore()
	v := NewVault(store)

	k1, err := v.EnsureKey(ctx, "notes")
	require.NoError(t, err)
	require.Len(t, k1, KeySize)

	// same vault: cached
	k2, err := v.EnsureKey(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	// fresh vault over the same secret store: persisted
	k3, err := NewVault(store).EnsureKey(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, k1, k3)
}

func TestVault_DistinctKeysPerStoreID(t *testing.T) {
	ctx := context.Background()
	v := NewVault(secrets.NewMemStore())

	a, err := v.EnsureKey(ctx, "notes")
	require.NoError(t, err)
	b, err := v.EnsureKey(ctx, "sync")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestVault_WipeDeletesSecrets(t *testing.T) {
	ctx := context.Background()
	store := secrets.NewMemStore()
	v := NewVault(store)

	k1, err := v.EnsureKey(ctx, "notes")
	require.NoError(t, err)

	require.NoError(t, v.Wipe(ctx))

	_, found, err := store.Get(ctx, "notes")
	require.NoError(t, err)
	assert.False(t, found)

	// a new key is generated after the wipe
	k2, err := v.EnsureKey(ctx, "notes")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}
