package datastore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func openTemp(t *testing.T) (*DataStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.json")
	cfg := DefaultConfig(path)
	cfg.AutoSaveInterval = 0
	ds, err := Open(cfg)
	require.NoError(t, err)
	return ds, path
}

func TestDataStore_PutGetPersist(t *testing.T) {
	ds, path := openTemp(t)

	require.NoError(t, ds.Put("g1", doc{Name: "grove", Count: 3}))
	require.NoError(t, ds.SaveToFile())
	require.NoError(t, ds.Close())

	cfg := DefaultConfig(path)
	cfg.AutoSaveInterval = 0
	reopened, err := Open(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	var got doc
	ok, err := reopened.Get("g1", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, doc{Name: "grove", Count: 3}, got)
	assert.Equal(t, []string{"g1"}, reopened.Keys())
}

func TestDataStore_MissingKey(t *testing.T) {
	ds, _ := openTemp(t)
	defer ds.Close()

	var got doc
	ok, err := ds.Get("nope", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDataStore_ClosedRejectsWrites(t *testing.T) {
	ds, _ := openTemp(t)
	require.NoError(t, ds.Close())

	assert.ErrorIs(t, ds.Put("k", 1), ErrClosed)
	assert.ErrorIs(t, ds.SaveToFile(), ErrClosed)
	assert.NoError(t, ds.Close())
}

func TestDataStore_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := New(path)
	assert.Error(t, err)
}

func TestDataStore_BackupsArePruned(t *testing.T) {
	ds, path := openTemp(t)
	defer ds.Close()

	for i := 0; i < 6; i++ {
		require.NoError(t, ds.Put("k", i))
		require.NoError(t, ds.SaveToFile())
	}

	backups, err := filepath.Glob(path + ".backup.*")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(backups), 3)
}
