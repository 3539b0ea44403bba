package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVault_SetGetDelete(t *testing.T) {
	vault := NewVault()
	ctx := context.Background()

	require.NoError(t, vault.Set(ctx, "key", "value"))
	assert.Equal(t, 1, vault.Len())

	value, ok, err := vault.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", value)

	require.NoError(t, vault.Delete(ctx, "key"))
	_, ok, err = vault.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, vault.Len())
}

func TestVault_ErrShortCircuitsAllOperations(t *testing.T) {
	vault := NewVault()
	vault.Err = errors.New("store unreadable")
	ctx := context.Background()

	assert.Error(t, vault.Set(ctx, "key", "value"))
	_, _, err := vault.Get(ctx, "key")
	assert.Error(t, err)
	assert.Error(t, vault.Delete(ctx, "key"))
}
