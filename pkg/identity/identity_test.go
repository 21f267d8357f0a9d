package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(filepath.Join(dir, "identity"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGenerateProducesUsableKeyPair(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)
	require.Len(t, id.PrivateKey, 64)
	require.Len(t, id.PublicKey, 32)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	store := openTestStore(t)

	_, ok, err := Load(store)
	require.NoError(t, err)
	require.False(t, ok)

	id, err := Generate()
	require.NoError(t, err)
	require.NoError(t, id.Save(store))

	loaded, ok, err := Load(store)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, id.PrivateKey, loaded.PrivateKey)
	require.Equal(t, id.PublicKey, loaded.PublicKey)
}

func TestLoadOrGenerateIsIdempotent(t *testing.T) {
	store := openTestStore(t)

	first, err := LoadOrGenerate(store)
	require.NoError(t, err)

	second, err := LoadOrGenerate(store)
	require.NoError(t, err)

	require.Equal(t, first.PrivateKey, second.PrivateKey)
	require.Equal(t, first.PublicKey, second.PublicKey)
}

func TestHandleSetAndGet(t *testing.T) {
	store := openTestStore(t)

	h, err := Handle(store)
	require.NoError(t, err)
	require.Equal(t, "", h)

	alwaysValid := func(string) bool { return true }
	require.NoError(t, SetHandle(store, "@alice", alwaysValid))

	h, err = Handle(store)
	require.NoError(t, err)
	require.Equal(t, "@alice", h)
}

func TestSetHandleRejectsInvalid(t *testing.T) {
	store := openTestStore(t)
	neverValid := func(string) bool { return false }
	err := SetHandle(store, "not-a-handle", neverValid)
	require.Error(t, err)
}

func TestOpenCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "identity")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(path)
	require.NoError(t, err)
}
