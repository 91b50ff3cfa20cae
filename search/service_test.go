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
	"testing"

	"github.com/poiesic/searchit/ai/mock"
	"github.com/poiesic/searchit/core"
	"github.com/poiesic/searchit/index"
	"github.com/poiesic/searchit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine returns a fixed raw result and counts queries.
type fakeEngine struct {
	result     *index.Raw
	queryErr   error
	queryCalls int
}

func (e *fakeEngine) Add(ctx context.Context, ids []core.ID, vectors [][]float32) error {
	return nil
}

func (e *fakeEngine) Query(ctx context.Context, vector []float32, k int) (*index.Raw, error) {
	e.queryCalls++
	if e.queryErr != nil {
		return nil, e.queryErr
	}
	return e.result, nil
}

func (e *fakeEngine) Count() (int, error) { return 0, nil }
func (e *fakeEngine) Close() error        { return nil }

func pairsResult(pairs ...index.Pair) *index.Raw {
	return &index.Raw{Kind: index.KindPairs, Pairs: pairs}
}

func TestSearchRanksAndEnriches(t *testing.T) {
	embedder := mock.NewEmbedder()
	engine := &fakeEngine{result: pairsResult(
		index.Pair{Id: 7, Score: 0.9},
		index.Pair{Id: 3, Score: 0.5},
	)}

	store, backend, err := badger.NewMemoryTextStore()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, store.AddBatch(ctx, []core.Entry{
		{Id: 7, Text: "seventh chunk"},
		{Id: 3, Text: "third chunk"},
	}))

	service, err := NewService(embedder, engine, store)
	require.NoError(t, err)

	response, err := service.Search(ctx, "anything", 2)
	require.NoError(t, err)
	assert.Equal(t, "anything", response.Query)
	require.Len(t, response.TopK, 2)

	first, second := response.TopK[0], response.TopK[1]
	assert.Equal(t, core.ID(7), first.Id)
	assert.Equal(t, 0, first.Rank)
	assert.Equal(t, "seventh chunk", first.Text)
	assert.Equal(t, core.ID(3), second.Id)
	assert.Equal(t, 1, second.Rank)
	assert.Equal(t, "third chunk", second.Text)
	assert.Greater(t, first.Probability, second.Probability)
}

func TestSearchProbabilitiesSumToOne(t *testing.T) {
	embedder := mock.NewEmbedder()
	engine := &fakeEngine{result: pairsResult(
		index.Pair{Id: 1, Score: 2.5},
		index.Pair{Id: 2, Score: 0.1},
		index.Pair{Id: 3, Score: -1.0},
	)}

	service, err := NewService(embedder, engine, nil)
	require.NoError(t, err)

	response, err := service.Search(context.Background(), "q", 3)
	require.NoError(t, err)

	var sum float64
	for _, r := range response.TopK {
		sum += r.Probability
	}
	assert.InDelta(t, 1.0, sum, 0.01)
}

func TestSearchUniformProbabilitiesForEqualScores(t *testing.T) {
	embedder := mock.NewEmbedder()
	engine := &fakeEngine{result: pairsResult(
		index.Pair{Id: 1, Score: 0.5},
		index.Pair{Id: 2, Score: 0.5},
	)}

	service, err := NewService(embedder, engine, nil)
	require.NoError(t, err)

	response, err := service.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	require.Len(t, response.TopK, 2)
	assert.InDelta(t, 0.5, response.TopK[0].Probability, 1e-9)
	assert.InDelta(t, 0.5, response.TopK[1].Probability, 1e-9)
}

func TestSearchDeterministicTieBreak(t *testing.T) {
	embedder := mock.NewEmbedder()
	// Engine returns the higher id first; equal scores must re-order by
	// ascending id.
	engine := &fakeEngine{result: pairsResult(
		index.Pair{Id: 42, Score: 0.7},
		index.Pair{Id: 5, Score: 0.7},
	)}

	service, err := NewService(embedder, engine, nil)
	require.NoError(t, err)

	response, err := service.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	require.Len(t, response.TopK, 2)
	assert.Equal(t, core.ID(5), response.TopK[0].Id)
	assert.Equal(t, core.ID(42), response.TopK[1].Id)

	// Ranks reflect the engine's original order.
	assert.Equal(t, 1, response.TopK[0].Rank)
	assert.Equal(t, 0, response.TopK[1].Rank)
}

func TestSearchCacheHitSkipsEncoderAndEngine(t *testing.T) {
	embedder := mock.NewEmbedder()
	engine := &fakeEngine{result: pairsResult(index.Pair{Id: 1, Score: 0.9})}

	service, err := NewService(embedder, engine, nil)
	require.NoError(t, err)

	ctx := context.Background()
	first, err := service.Search(ctx, "repeated query", 5)
	require.NoError(t, err)

	second, err := service.Search(ctx, "repeated query", 5)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, embedder.QueryCalls())
	assert.Equal(t, 1, engine.queryCalls)

	// A different k is a different cache entry.
	_, err = service.Search(ctx, "repeated query", 6)
	require.NoError(t, err)
	assert.Equal(t, 2, embedder.QueryCalls())

	// So is a different query.
	_, err = service.Search(ctx, "other query", 5)
	require.NoError(t, err)
	assert.Equal(t, 3, embedder.QueryCalls())
}

func TestSearchCacheEviction(t *testing.T) {
	embedder := mock.NewEmbedder()
	engine := &fakeEngine{result: pairsResult(index.Pair{Id: 1, Score: 0.9})}

	service, err := NewService(embedder, engine, nil, WithCacheSize(1))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = service.Search(ctx, "first", 1)
	require.NoError(t, err)
	_, err = service.Search(ctx, "second", 1)
	require.NoError(t, err)

	// "first" was evicted by the single-slot cache.
	_, err = service.Search(ctx, "first", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, embedder.QueryCalls())
}

func TestSearchMissingTextOmitted(t *testing.T) {
	embedder := mock.NewEmbedder()
	engine := &fakeEngine{result: pairsResult(
		index.Pair{Id: 1, Score: 0.9},
		index.Pair{Id: 99, Score: 0.4},
	)}

	store, backend, err := badger.NewMemoryTextStore()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, store.AddBatch(ctx, []core.Entry{{Id: 1, Text: "present"}}))

	service, err := NewService(embedder, engine, store)
	require.NoError(t, err)

	response, err := service.Search(ctx, "q", 2)
	require.NoError(t, err)
	require.Len(t, response.TopK, 2)
	assert.Equal(t, "present", response.TopK[0].Text)
	assert.Empty(t, response.TopK[1].Text)
}

func TestSearchEmptyQuery(t *testing.T) {
	service, err := NewService(mock.NewEmbedder(), &fakeEngine{result: pairsResult()}, nil)
	require.NoError(t, err)

	_, err = service.Search(context.Background(), "   ", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearchEncodeFailureNotCached(t *testing.T) {
	embedder := mock.NewEmbedder()
	encodeErr := errors.New("encoder offline")
	embedder.EmbedQueryFunc = func(ctx context.Context, query string) ([]float32, error) {
		return nil, encodeErr
	}

	engine := &fakeEngine{result: pairsResult(index.Pair{Id: 1, Score: 0.9})}
	service, err := NewService(embedder, engine, nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = service.Search(ctx, "q", 1)
	assert.ErrorIs(t, err, encodeErr)

	// The failure is request-scoped: once the encoder recovers, the same
	// query succeeds and the error was never cached.
	embedder.EmbedQueryFunc = nil
	response, err := service.Search(ctx, "q", 1)
	require.NoError(t, err)
	assert.Len(t, response.TopK, 1)
}

func TestSearchEngineFailure(t *testing.T) {
	engine := &fakeEngine{queryErr: errors.New("engine down")}
	service, err := NewService(mock.NewEmbedder(), engine, nil)
	require.NoError(t, err)

	_, err = service.Search(context.Background(), "q", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "querying index")
}

func TestSearchMonitorCallbacks(t *testing.T) {
	embedder := mock.NewEmbedder()
	engine := &fakeEngine{result: pairsResult(index.Pair{Id: 1, Score: 0.9})}

	service, err := NewService(embedder, engine, nil)
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	ctx := context.Background()

	_, err = service.SearchWithMonitor(ctx, "q", 1, monitor)
	require.NoError(t, err)
	assert.Equal(t, 1, monitor.started)
	assert.Equal(t, 1, monitor.finished)
	assert.Zero(t, monitor.cacheHits)

	_, err = service.SearchWithMonitor(ctx, "q", 1, monitor)
	require.NoError(t, err)
	assert.Equal(t, 1, monitor.cacheHits)
	assert.Equal(t, 1, monitor.started)
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(nil, &fakeEngine{}, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewService(mock.NewEmbedder(), nil, nil)
	assert.ErrorIs(t, err, ErrEngineRequired)
}

type recordingMonitor struct {
	started   int
	cacheHits int
	finished  int
}

func (m *recordingMonitor) Start(_ string, _ int)         { m.started++ }
func (m *recordingMonitor) CacheHit(_ string, _ int)      { m.cacheHits++ }
func (m *recordingMonitor) AfterEncode(_ []float32)       {}
func (m *recordingMonitor) AfterEngineQuery(_ []core.Hit) {}
func (m *recordingMonitor) Finish(_ []core.SearchResult)  { m.finished++ }
