package badger

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/searchit/core"
	"github.com/poiesic/searchit/storage"
)

// TextStore implements storage.TextStore for BadgerDB.
type TextStore struct {
	backend *Backend
}

var _ storage.TextStore = (*TextStore)(nil)

// NewTextStore creates a new TextStore on the given backend.
func NewTextStore(backend *Backend) (storage.TextStore, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	return &TextStore{backend: backend}, nil
}

// Close releases the store. The backend is owned by the caller and closed
// separately.
func (s *TextStore) Close() error {
	return nil
}

// Get retrieves the text for a chunk ID.
func (s *TextStore) Get(ctx context.Context, id core.ID) (string, error) {
	var text string

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEntryKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			entry, err := storage.UnmarshalEntry(val)
			if err != nil {
				return err
			}
			text = entry.Text
			return nil
		})
	}, false)
	if err != nil {
		return "", err
	}

	return text, nil
}

// Has reports whether a chunk ID is present.
func (s *TextStore) Has(ctx context.Context, id core.ID) (bool, error) {
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeEntryKey(id))
		return err
	}, false)
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the number of entries in the store.
func (s *TextStore) Count(ctx context.Context) (int, error) {
	count := 0

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// ForEachKey iterates over all stored chunk IDs in ascending order.
func (s *TextStore) ForEachKey(ctx context.Context, fn func(core.ID) error) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(entryKeyID(iter.Item().Key())); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// AddBatch upserts entries. Re-adding an existing ID overwrites the previous
// text. All entries are validated before anything is written. A batch that
// exceeds BadgerDB's transaction size cap is committed in several
// transactions: when a Set reports ErrTxnTooBig the entries written so far
// are committed and the remainder carries over into a fresh transaction.
func (s *TextStore) AddBatch(ctx context.Context, entries []core.Entry) error {
	if s.backend.IsReadOnly() {
		return storage.ErrReadOnly
	}
	if len(entries) == 0 {
		return nil
	}

	for i := range entries {
		if err := core.ValidateEntry(&entries[i]); err != nil {
			return err
		}
	}

	remaining := entries
	for len(remaining) > 0 {
		written := 0
		err := s.backend.WithTx(func(tx *badger.Txn) error {
			for written < len(remaining) {
				key := makeEntryKey(remaining[written].Id)
				value := storage.MarshalEntry(&remaining[written])
				if err := tx.Set(key, value); err != nil {
					if err == badger.ErrTxnTooBig && written > 0 {
						break
					}
					return err
				}
				written++
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}
			return nil
		}, true)
		if err != nil {
			return err
		}
		remaining = remaining[written:]
	}
	return nil
}
