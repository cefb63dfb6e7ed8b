package secretstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppConfigStore_LoadMissingFileReturnsZeroValue(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	store := NewAppConfigStore("ThirdUploader")

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "", cfg.LastUsername)
}

func TestAppConfigStore_SaveThenLoadRoundTrips(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	store := NewAppConfigStore("ThirdUploader")

	require.NoError(t, store.Save(AppConfig{LastUsername: "alice"}))

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.LastUsername)
}

func TestAppConfigStore_SetLastUsername(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	store := NewAppConfigStore("ThirdUploader")

	require.NoError(t, store.SetLastUsername("bob"))
	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.LastUsername)
}
