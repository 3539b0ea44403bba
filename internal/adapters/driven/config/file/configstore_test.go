package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driven"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set(driven.ConfigKeyAPIURL, "https://api.example.test"))
	require.NoError(t, store.Set(driven.ConfigKeyCallbackPortStart, 9000))
	require.NoError(t, store.Set("experimental", true))

	assert.Equal(t, "https://api.example.test", store.GetString(driven.ConfigKeyAPIURL))
	assert.Equal(t, 9000, store.GetInt(driven.ConfigKeyCallbackPortStart))
	assert.True(t, store.GetBool("experimental"))
}

func TestConfigStore_MissingKeysReturnZeroValues(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, store.GetString(driven.ConfigKeySupabaseURL))
	assert.Zero(t, store.GetInt(driven.ConfigKeyCallbackPortEnd))
	assert.False(t, store.GetBool("missing"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_PersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set(driven.ConfigKeySupabaseURL, "https://project.supabase.test"))
	require.NoError(t, store.Set(driven.ConfigKeyCallbackPortEnd, 8760))

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://project.supabase.test", reloaded.GetString(driven.ConfigKeySupabaseURL))
	// TOML round-trips integers as int64
	assert.Equal(t, 8760, reloaded.GetInt(driven.ConfigKeyCallbackPortEnd))
}

func TestConfigStore_WrongTypeReturnsZeroValue(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("key", 42))

	assert.Empty(t, store.GetString("key"))
	assert.False(t, store.GetBool("key"))
}

func TestConfigStore_FileHasRestrictedPermissions(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("key", "value"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}
