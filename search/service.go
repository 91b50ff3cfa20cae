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


package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/searchit/ai"
	"github.com/poiesic/searchit/core"
	"github.com/poiesic/searchit/index"
	"github.com/poiesic/searchit/storage"
)

// Response is a full search response: the echoed query and its ranked
// results.
type Response struct {
	Query string              `json:"query"`
	TopK  []core.SearchResult `json:"topk"`
}

type cacheKey struct {
	query string
	k     int
}

// Service answers free-text queries against a built index. Responses are
// cached by exact (query, k) pair in a bounded LRU; a cache hit bypasses
// the encoder and the index engine entirely.
type Service struct {
	embedder ai.Embedder
	engine   index.Engine
	store    storage.TextStore
	cache    *lru.Cache[cacheKey, *Response]
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithCacheSize sets the response cache capacity.
// Default is 1024.
func WithCacheSize(size int) Option {
	return func(s *Service) error {
		if size < 1 {
			size = 1
		}
		cache, err := lru.New[cacheKey, *Response](size)
		if err != nil {
			return err
		}
		s.cache = cache
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates a search service. The text store may be nil, in which
// case results are served without their text.
func NewService(embedder ai.Embedder, engine index.Engine, store storage.TextStore, opts ...Option) (*Service, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if engine == nil {
		return nil, ErrEngineRequired
	}

	cache, err := lru.New[cacheKey, *Response](1024)
	if err != nil {
		return nil, err
	}

	s := &Service{
		embedder: embedder,
		engine:   engine,
		store:    store,
		cache:    cache,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if store == nil {
		s.logger.Warn("no text store available, results will omit text")
	}
	return s, nil
}

// Search returns the top k results for a query.
func (s *Service) Search(ctx context.Context, query string, k int) (*Response, error) {
	return s.SearchWithMonitor(ctx, query, k, nil)
}

// SearchWithMonitor is Search with per-stage observation callbacks.
func (s *Service) SearchWithMonitor(ctx context.Context, query string, k int, monitor Monitor) (*Response, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if k < 1 {
		k = 1
	}

	key := cacheKey{query: query, k: k}
	if cached, ok := s.cache.Get(key); ok {
		s.logger.Debug("cache hit", "query", query, "k", k)
		monitor.CacheHit(query, k)
		return cached, nil
	}

	monitor.Start(query, k)

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}
	monitor.AfterEncode(vector)

	raw, err := s.engine.Query(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	hits, err := raw.Normalize()
	if err != nil {
		return nil, fmt.Errorf("normalizing index result: %w", err)
	}
	monitor.AfterEngineQuery(hits)

	results := s.rank(ctx, hits)
	response := &Response{Query: query, TopK: results}
	s.cache.Add(key, response)

	monitor.Finish(results)
	return response, nil
}

// rank converts canonical hits into the final result list: 0-based ranks in
// engine order, a softmax confidence distribution over the returned scores,
// a deterministic (-score, id ascending) ordering, and best-effort text
// enrichment from the store.
func (s *Service) rank(ctx context.Context, hits []core.Hit) []core.SearchResult {
	results := make([]core.SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = core.SearchResult{
			Id:    hit.Id,
			Rank:  i,
			Score: float64(hit.Score),
		}
	}

	applySoftmax(results)

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Id < results[j].Id
	})

	if s.store != nil {
		for i := range results {
			text, err := s.store.Get(ctx, results[i].Id)
			if err != nil {
				if !errors.Is(err, storage.ErrNotFound) {
					s.logger.Debug("text lookup failed", "id", results[i].Id, "err", err)
				}
				continue
			}
			results[i].Text = text
		}
	}

	return results
}

// applySoftmax fills in the probability field. A degenerate exponent sum
// falls back to a uniform distribution.
func applySoftmax(results []core.SearchResult) {
	if len(results) == 0 {
		return
	}

	exps := make([]float64, len(results))
	var sum float64
	for i, r := range results {
		exps[i] = math.Exp(r.Score)
		sum += exps[i]
	}

	if sum > 0 {
		for i := range results {
			results[i].Probability = exps[i] / sum
		}
	} else {
		uniform := 1.0 / float64(len(results))
		for i := range results {
			results[i].Probability = uniform
		}
	}
}
