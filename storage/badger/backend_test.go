package badger

import (
	"path/filepath"
	"testing"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackendInMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
	assert.False(t, backend.IsReadOnly())
}

func TestOpenBackendCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")

	backend, err := OpenBackend(path, false)
	require.NoError(t, err)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackendReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")

	// Create and populate, then close
	backend, err := OpenBackend(path, false)
	require.NoError(t, err)
	err = backend.WithTx(func(tx *badgerdb.Txn) error {
		if err := tx.Set([]byte("key"), []byte("value")); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	// Reopen read-only
	ro, err := OpenBackendReadOnly(path)
	require.NoError(t, err)
	defer ro.Close()

	assert.True(t, ro.IsReadOnly())

	var got []byte
	err = ro.WithTx(func(tx *badgerdb.Txn) error {
		item, err := tx.Get([]byte("key"))
		if err != nil {
			return err
		}
		got, err = item.ValueCopy(nil)
		return err
	}, false)
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

func TestOpenBackendReadOnlyMissingPath(t *testing.T) {
	_, err := OpenBackendReadOnly(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestWithTxDiscardsOnError(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	err = backend.WithTx(func(tx *badgerdb.Txn) error {
		if err := tx.Set([]byte("orphan"), []byte("x")); err != nil {
			return err
		}
		return assert.AnError // never committed
	}, true)
	require.ErrorIs(t, err, assert.AnError)

	err = backend.WithTx(func(tx *badgerdb.Txn) error {
		_, err := tx.Get([]byte("orphan"))
		return err
	}, false)
	assert.ErrorIs(t, err, badgerdb.ErrKeyNotFound)
}
