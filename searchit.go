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


// Package searchit builds and serves semantic search indexes over document
// corpora. Build turns a dataset path (delimited corpus file or directory
// of documents) into a persisted vector index with a co-located text store;
// Open loads an existing index read-only for serving.
package searchit

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/searchit/ai"
	"github.com/poiesic/searchit/ai/openai"
	"github.com/poiesic/searchit/dataset"
	"github.com/poiesic/searchit/index"
	"github.com/poiesic/searchit/index/flat"
	"github.com/poiesic/searchit/ingestion"
	"github.com/poiesic/searchit/search"
	"github.com/poiesic/searchit/storage"
	"github.com/poiesic/searchit/storage/badger"
)

// Index directory layout: the engine and the text store live side by side
// under one index path.
const (
	engineSubdir = "vectors"
	storeSubdir  = "texts"
)

// Index bundles a vector index, its text store, and the embedder that
// produced it, ready to serve searches.
type Index struct {
	engine   index.Engine
	store    storage.TextStore
	backend  *badger.Backend
	embedder ai.Embedder
	logger   *slog.Logger
}

// IndexOption configures Build and Open.
type IndexOption func(*indexOptions)

type indexOptions struct {
	aiConfig        *ai.Config
	embedder        ai.Embedder
	logger          *slog.Logger
	encodeBatchSize int
	accumulateSize  int
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(config *ai.Config) IndexOption {
	return func(o *indexOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithEmbedder injects a pre-built embedder instead of constructing one
// from the AI configuration.
func WithEmbedder(embedder ai.Embedder) IndexOption {
	return func(o *indexOptions) {
		o.embedder = embedder
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) IndexOption {
	return func(o *indexOptions) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// WithEncodeBatchSize sets the encoder sub-batch size used during a build.
func WithEncodeBatchSize(size int) IndexOption {
	return func(o *indexOptions) {
		o.encodeBatchSize = size
	}
}

// WithAccumulateSize sets the build's accumulation window size.
func WithAccumulateSize(size int) IndexOption {
	return func(o *indexOptions) {
		o.accumulateSize = size
	}
}

func applyOptions(opts []IndexOption) (*indexOptions, error) {
	options := &indexOptions{
		aiConfig:        ai.DefaultConfig(),
		logger:          slog.Default(),
		encodeBatchSize: 64,
		accumulateSize:  10000,
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.embedder == nil {
		embedder, err := openai.NewEmbedder(options.aiConfig)
		if err != nil {
			return nil, err
		}
		options.embedder = embedder
	}
	return options, nil
}

// Build creates a fresh index at indexPath from the dataset at datasetPath.
// Any existing index at that path is replaced. The returned Index is ready
// for serving.
func Build(ctx context.Context, datasetPath, indexPath string, opts ...IndexOption) (*Index, error) {
	options, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	logger := options.logger

	source, err := dataset.NewSource(datasetPath, dataset.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	chunker := dataset.NewChunker(options.embedder.MaxInputTokens())

	// Overwrite semantics: never append to a pre-existing index generation.
	if err := os.RemoveAll(indexPath); err != nil {
		return nil, err
	}

	engine, err := flat.Create(filepath.Join(indexPath, engineSubdir), flat.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	backend, err := badger.OpenBackend(filepath.Join(indexPath, storeSubdir), false)
	if err != nil {
		engine.Close()
		return nil, err
	}
	store, err := badger.NewTextStore(backend)
	if err != nil {
		backend.Close()
		engine.Close()
		return nil, err
	}

	pipeline, err := ingestion.NewPipeline(options.embedder,
		ingestion.WithEncodeBatchSize(options.encodeBatchSize),
		ingestion.WithAccumulateSize(options.accumulateSize),
		ingestion.WithIndexLocation(indexPath),
		ingestion.WithLogger(logger),
	)
	if err != nil {
		backend.Close()
		engine.Close()
		return nil, err
	}

	if _, err := pipeline.Build(ctx, dataset.Chunks(source, chunker), engine, store); err != nil {
		backend.Close()
		engine.Close()
		return nil, err
	}

	return &Index{
		engine:   engine,
		store:    store,
		backend:  backend,
		embedder: options.embedder,
		logger:   logger,
	}, nil
}

// Open loads an existing index read-only for serving. A missing text store
// degrades to text-less search results rather than failing.
func Open(indexPath string, opts ...IndexOption) (*Index, error) {
	options, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	logger := options.logger

	engine, err := flat.Open(filepath.Join(indexPath, engineSubdir), flat.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	ix := &Index{
		engine:   engine,
		embedder: options.embedder,
		logger:   logger,
	}

	backend, err := badger.OpenBackendReadOnly(filepath.Join(indexPath, storeSubdir))
	if err != nil {
		logger.Warn("text store unavailable, search results will omit text",
			"path", indexPath, "err", err)
		return ix, nil
	}
	store, err := badger.NewTextStore(backend)
	if err != nil {
		backend.Close()
		logger.Warn("text store unavailable, search results will omit text",
			"path", indexPath, "err", err)
		return ix, nil
	}

	ix.backend = backend
	ix.store = store
	return ix, nil
}

// Engine returns the index engine.
func (ix *Index) Engine() index.Engine {
	return ix.engine
}

// Store returns the text store, or nil when it was unavailable.
func (ix *Index) Store() storage.TextStore {
	return ix.store
}

// NewService creates a search service over this index.
func (ix *Index) NewService(opts ...search.Option) (*search.Service, error) {
	return search.NewService(ix.embedder, ix.engine, ix.store, opts...)
}

// Close releases the engine and the text store.
func (ix *Index) Close() error {
	if err := ix.engine.Close(); err != nil {
		ix.logger.Error("error closing index engine", "err", err)
		return err
	}
	if ix.backend != nil {
		if err := ix.backend.Close(); err != nil {
			ix.logger.Error("error closing text store", "err", err)
			return err
		}
	}
	return nil
}
