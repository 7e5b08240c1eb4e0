package client

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTokenStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileTokenStore(path)

	creds, err := store.Load()
	require.NoError(t, err)
	assert.True(t, creds.Empty(), "missing file reads as no session")

	saved := Credentials{
		UserID:       "user-1",
		DeviceID:     "dev-1",
		AccessToken:  "access",
		RefreshToken: "refresh",
	}
	require.NoError(t, store.Save(saved))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	require.NoError(t, store.Clear())
	loaded, err = store.Load()
	require.NoError(t, err)
	assert.True(t, loaded.Empty())

	// Clearing an already-cleared store is fine.
	require.NoError(t, store.Clear())
}

func TestFileTokenStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := NewFileTokenStore(path)
	_, err := store.Load()
	assert.Error(t, err)
}

func TestMemoryTokenStore(t *testing.T) {
	store := NewMemoryTokenStore()

	creds, err := store.Load()
	require.NoError(t, err)
	assert.True(t, creds.Empty())

	require.NoError(t, store.Save(Credentials{AccessToken: "a", RefreshToken: "r"}))
	creds, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "a", creds.AccessToken)

	require.NoError(t, store.Clear())
	creds, err = store.Load()
	require.NoError(t, err)
	assert.True(t, creds.Empty())
}
