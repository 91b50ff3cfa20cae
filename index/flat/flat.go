// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package flat

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/poiesic/searchit/core"
	"github.com/poiesic/searchit/index"
	"github.com/poiesic/searchit/storage"
	"github.com/poiesic/searchit/storage/badger"
)

// Engine is a BadgerDB-backed flat vector index. Vectors are normalized to
// unit length on Add, so queries score by cosine similarity via a
// brute-force dot-product scan.
type Engine struct {
	backend *badger.Backend
	path    string
	logger  *slog.Logger

	mu    sync.Mutex
	dim   int
	count int
}

var _ index.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// Create creates a fresh engine at path, removing any existing engine state
// first. Overwrite semantics avoid silently mixing index generations.
func Create(path string, opts ...Option) (*Engine, error) {
	if path != "" {
		if err := os.RemoveAll(path); err != nil {
			return nil, fmt.Errorf("removing previous index state: %w", err)
		}
	}

	backend, err := badger.OpenBackend(path, path == "")
	if err != nil {
		return nil, err
	}

	e := &Engine{
		backend: backend,
		path:    path,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Open opens an existing engine at path read-only for serving.
func Open(path string, opts ...Option) (*Engine, error) {
	backend, err := badger.OpenBackendReadOnly(path)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		backend: backend,
		path:    path,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.loadMeta(); err != nil {
		backend.Close()
		return nil, err
	}
	return e, nil
}

// Close closes the engine.
func (e *Engine) Close() error {
	return e.backend.Close()
}

// Add commits (id, vector) pairs. The first call fixes the index dimension;
// later calls must match it. Vectors are stored unit-normalized.
func (e *Engine) Add(ctx context.Context, ids []core.ID, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("%w: %d ids vs %d vectors", index.ErrLengthMismatch, len(ids), len(vectors))
	}
	if len(ids) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dim == 0 {
		e.dim = len(vectors[0])
		e.logger.Info("initializing index structure",
			"path", e.path, "dimension", e.dim)
	} else {
		e.logger.Debug("appending vectors", "count", len(ids))
	}

	for i, vector := range vectors {
		if len(vector) != e.dim {
			return fmt.Errorf("%w: vector %d has dimension %d, index has %d",
				index.ErrDimensionMismatch, i, len(vector), e.dim)
		}
	}

	wb := e.backend.NewWriteBatch()
	defer wb.Cancel()

	for i, id := range ids {
		value := storage.MarshalVector(normalize(vectors[i]))
		if err := wb.Set(badger.MakeVectorKey(id), value); err != nil {
			return err
		}
	}

	e.count += len(ids)
	if err := wb.Set(badger.MakeMetaKey("dim"), encodeMetaInt(e.dim)); err != nil {
		return err
	}
	if err := wb.Set(badger.MakeMetaKey("count"), encodeMetaInt(e.count)); err != nil {
		return err
	}

	if err := wb.Flush(); err != nil {
		e.count -= len(ids)
		return err
	}
	return nil
}

// Query scans all stored vectors and returns the top k by dot product in a
// pair-list raw result, best first. Tie order between equal scores is not
// guaranteed stable.
func (e *Engine) Query(ctx context.Context, vector []float32, k int) (*index.Raw, error) {
	e.mu.Lock()
	dim := e.dim
	e.mu.Unlock()

	if dim != 0 && len(vector) != dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			index.ErrDimensionMismatch, len(vector), dim)
	}
	if k < 1 {
		k = 1
	}

	query := normalize(vector)
	var pairs []index.Pair

	err := e.backend.WithTx(func(tx *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = badger.VectorKeyPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()
			id := badger.VectorKeyID(item.Key())

			err := item.Value(func(val []byte) error {
				stored, err := storage.UnmarshalVector(val)
				if err != nil {
					return err
				}
				pairs = append(pairs, index.Pair{Id: id, Score: dotProduct(query, stored)})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by score descending
	slices.SortFunc(pairs, func(a, b index.Pair) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})
	if len(pairs) > k {
		pairs = pairs[:k]
	}

	return &index.Raw{Kind: index.KindPairs, Pairs: pairs}, nil
}

// Count returns the number of indexed vectors.
func (e *Engine) Count() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count, nil
}

// loadMeta reads the dimension and count of an existing index.
func (e *Engine) loadMeta() error {
	return e.backend.WithTx(func(tx *badgerdb.Txn) error {
		dim, err := readMetaInt(tx, badger.MakeMetaKey("dim"))
		if err != nil {
			return fmt.Errorf("reading index metadata at %s: %w", e.path, err)
		}
		count, err := readMetaInt(tx, badger.MakeMetaKey("count"))
		if err != nil {
			return fmt.Errorf("reading index metadata at %s: %w", e.path, err)
		}
		e.dim = dim
		e.count = count
		return nil
	}, false)
}

func readMetaInt(tx *badgerdb.Txn, key []byte) (int, error) {
	item, err := tx.Get(key)
	if err != nil {
		return 0, err
	}
	var value int
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("%w: meta value has %d bytes", index.ErrMalformedResult, len(val))
		}
		value = int(binary.BigEndian.Uint64(val))
		return nil
	})
	return value, err
}

func encodeMetaInt(value int) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(value))
	return buf
}

// normalize returns a unit-length copy of v. A zero vector stays zero.
func normalize(v []float32) []float32 {
	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
