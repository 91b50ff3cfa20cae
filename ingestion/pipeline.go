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


package ingestion

import (
	"context"
	"log/slog"

	"github.com/poiesic/searchit/ai"
	"github.com/poiesic/searchit/core"
	"github.com/poiesic/searchit/index"
	"github.com/poiesic/searchit/storage"
)

// State is a pipeline run's lifecycle stage.
type State int

const (
	StateNotStarted State = iota
	StateAccumulating
	StateEncoding
	StateCommitting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NOT_STARTED"
	case StateAccumulating:
		return "ACCUMULATING"
	case StateEncoding:
		return "ENCODING"
	case StateCommitting:
		return "COMMITTING"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// ChunkStream yields chunk texts in ingestion order. dataset.ChunkSource
// satisfies it.
type ChunkStream interface {
	ForEach(ctx context.Context, fn func(text string) error) error
}

// Pipeline builds a vector index and its matching text store from a chunk
// stream. Chunks are pulled into accumulation windows; each window is
// encoded, committed to the index engine, and persisted to the text store
// before the next window is pulled, so at most one window of text plus its
// embeddings is resident at a time.
type Pipeline struct {
	embedder        ai.Embedder
	encodeBatchSize int
	accumulateSize  int
	location        string
	logger          *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithEncodeBatchSize sets the sub-batch size for encoder calls.
// Default is 64.
func WithEncodeBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.encodeBatchSize = size
		return nil
	}
}

// WithAccumulateSize sets the accumulation window size, the pipeline's hard
// memory ceiling in chunks. Default is 10000.
func WithAccumulateSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.accumulateSize = size
		return nil
	}
}

// WithIndexLocation records the index path for failure reporting and logs.
func WithIndexLocation(path string) Option {
	return func(p *Pipeline) error {
		p.location = path
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a build pipeline around an embedder.
func NewPipeline(embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	p := &Pipeline{
		embedder:        embedder,
		encodeBatchSize: 64,
		accumulateSize:  10000,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// BuildStats summarizes a completed (or failed) build.
type BuildStats struct {
	Chunks     int
	Windows    int
	StoreCount int
	State      State
}

// Build drains the chunk stream through encode → index → store windows.
// Chunk ids are dense and zero-based across the whole run; they are the
// join key between the index and the text store. Any encoder, engine, or
// store failure aborts the run with a WindowError; partial index state is
// not cleaned up, since it may aid diagnosis.
func (p *Pipeline) Build(ctx context.Context, chunks ChunkStream, engine index.Engine, store storage.TextStore) (*BuildStats, error) {
	if engine == nil {
		return nil, ErrEngineRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}
	if chunks == nil {
		return &BuildStats{State: StateDone}, nil
	}

	stats := &BuildStats{State: StateNotStarted}
	var (
		window []string
		nextID core.ID
	)

	p.logger.Info("starting index build",
		"encode_batch_size", p.encodeBatchSize,
		"accumulate_size", p.accumulateSize,
		"index", p.location)

	flush := func() error {
		if len(window) == 0 {
			return nil
		}
		firstID := nextID
		lastID := nextID + core.ID(len(window)) - 1

		fail := func(stage string, err error) error {
			stats.State = StateFailed
			return &WindowError{
				Stage:    stage,
				FirstID:  firstID,
				LastID:   lastID,
				Location: p.location,
				Err:      err,
			}
		}

		stats.State = StateEncoding
		vectors, err := p.encodeWindow(ctx, window)
		if err != nil {
			return fail("encoding", err)
		}

		stats.State = StateCommitting
		ids := make([]core.ID, len(window))
		entries := make([]core.Entry, len(window))
		for i, text := range window {
			ids[i] = nextID + core.ID(i)
			entries[i] = core.Entry{Id: ids[i], Text: text}
		}

		if stats.Windows == 0 {
			// The engine's one-time structural initialization happens here.
			p.logger.Info("committing first window", "chunks", len(window),
				"first_id", firstID, "last_id", lastID, "index", p.location)
		} else {
			p.logger.Debug("committing window", "chunks", len(window),
				"first_id", firstID, "last_id", lastID)
		}

		if err := engine.Add(ctx, ids, vectors); err != nil {
			return fail("index commit", err)
		}
		if err := store.AddBatch(ctx, entries); err != nil {
			return fail("text store write", err)
		}

		stats.Chunks += len(window)
		stats.Windows++
		nextID = lastID + 1
		window = window[:0]
		stats.State = StateAccumulating
		return nil
	}

	stats.State = StateAccumulating
	err := chunks.ForEach(ctx, func(text string) error {
		window = append(window, text)
		if len(window) >= p.accumulateSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		if stats.State != StateFailed {
			stats.State = StateFailed
		}
		return stats, err
	}
	if err := flush(); err != nil {
		return stats, err
	}

	stats.State = StateDone
	p.selfCheck(ctx, stats, engine, store)

	p.logger.Info("index build complete",
		"chunks", stats.Chunks, "windows", stats.Windows, "index", p.location)
	return stats, nil
}

// encodeWindow runs the window through the encoder in encodeBatchSize
// sub-batches, preserving positional alignment.
func (p *Pipeline) encodeWindow(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += p.encodeBatchSize {
		end := start + p.encodeBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		embedded, err := p.embedder.EmbedDocuments(ctx, batch)
		if err != nil {
			return nil, err
		}
		if len(embedded) != len(batch) {
			return nil, ErrVectorCountMismatch
		}
		vectors = append(vectors, embedded...)
	}
	return vectors, nil
}

// selfCheck compares the pipeline's running total against the index and
// store counts. Mismatches only warn; there is no automatic reconciliation.
func (p *Pipeline) selfCheck(ctx context.Context, stats *BuildStats, engine index.Engine, store storage.TextStore) {
	storeCount, err := store.Count(ctx)
	if err != nil {
		p.logger.Warn("could not read text store count for self-check", "err", err)
		return
	}
	stats.StoreCount = storeCount

	engineCount, err := engine.Count()
	if err != nil {
		p.logger.Warn("could not read index count for self-check", "err", err)
		return
	}

	if storeCount != stats.Chunks || engineCount != stats.Chunks {
		p.logger.Warn("index and text store counts disagree with pipeline total",
			"pipeline", stats.Chunks, "index", engineCount, "store", storeCount)
	}
}
