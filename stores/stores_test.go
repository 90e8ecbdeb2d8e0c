package stores

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Triumph-Tech/magnus"
)

func TestFileCredentialStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store := NewFileCredentialStore(filepath.Join(t.TempDir(), "sub", "credentials.yaml"))

	// Missing file behaves as empty, not as an error
	_, ok, err := store.Get("https://example.org")
	require.NoError(t, err)
	assert.False(t, ok)

	creds := magnus.Credentials{Username: "admin", Password: "hunter2"}
	require.NoError(t, store.Set("https://example.org", creds))
	require.NoError(t, store.Set("http://other.example.org", magnus.Credentials{Username: "guest"}))

	got, ok, err := store.Get("https://example.org")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, creds, got)

	require.NoError(t, store.Delete("https://example.org"))
	_, ok, err = store.Get("https://example.org")
	require.NoError(t, err)
	assert.False(t, ok)

	// The other entry survives
	_, ok, err = store.Get("http://other.example.org")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFileCredentialStore_FilePermissions(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}

	path := filepath.Join(t.TempDir(), "credentials.yaml")
	store := NewFileCredentialStore(path)
	require.NoError(t, store.Set("https://example.org", magnus.Credentials{Username: "u", Password: "p"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileServerListStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store := NewFileServerListStore(filepath.Join(t.TempDir(), "servers.yaml"))

	servers, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, servers)

	want := []string{"https://example.org", "http://other.example.org:8080"}
	require.NoError(t, store.Save(want))

	servers, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, servers, "order must be preserved")
}

func TestMemoryStores(t *testing.T) {
	t.Parallel()

	creds := NewMemoryCredentialStore()
	require.NoError(t, creds.Set("https://example.org", magnus.Credentials{Username: "u"}))
	got, ok, err := creds.Get("https://example.org")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u", got.Username)
	require.NoError(t, creds.Delete("https://example.org"))
	_, ok, _ = creds.Get("https://example.org")
	assert.False(t, ok)

	list := NewMemoryServerListStore("https://example.org")
	servers, err := list.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.org"}, servers)

	// Load returns a copy; mutating it must not leak back
	servers[0] = "https://mutated.example.org"
	again, _ := list.Load()
	assert.Equal(t, []string{"https://example.org"}, again)
}
