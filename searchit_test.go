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


package searchit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/searchit/ai/mock"
	"github.com/poiesic/searchit/core"
	"github.com/poiesic/searchit/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuildFromDelimitedFile(t *testing.T) {
	corpus := writeCorpus(t, "Doc A\n\n--------\n\nDoc B\n\n--------\n\nDoc C")
	indexPath := filepath.Join(t.TempDir(), "idx")
	ctx := context.Background()

	ix, err := Build(ctx, corpus, indexPath, WithEmbedder(mock.NewEmbedder()))
	require.NoError(t, err)
	defer ix.Close()

	// Three documents, three chunks, dense zero-based ids.
	count, err := ix.Store().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	for id, want := range map[core.ID]string{0: "Doc A", 1: "Doc B", 2: "Doc C"} {
		text, err := ix.Store().Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, text)
	}

	engineCount, err := ix.Engine().Count()
	require.NoError(t, err)
	assert.Equal(t, 3, engineCount)
}

func TestBuildAndSearch(t *testing.T) {
	corpus := writeCorpus(t, "first document"+dataset.Delimiter+"second document")
	indexPath := filepath.Join(t.TempDir(), "idx")
	ctx := context.Background()

	ix, err := Build(ctx, corpus, indexPath, WithEmbedder(mock.NewEmbedder()))
	require.NoError(t, err)
	defer ix.Close()

	service, err := ix.NewService()
	require.NoError(t, err)

	response, err := service.Search(ctx, "first document", 2)
	require.NoError(t, err)
	require.Len(t, response.TopK, 2)

	var sum float64
	for _, r := range response.TopK {
		sum += r.Probability
		assert.NotEmpty(t, r.Text)
	}
	assert.InDelta(t, 1.0, sum, 0.01)

	// The mock embedder is deterministic, so the exact-match document wins.
	assert.Equal(t, "first document", response.TopK[0].Text)
}

func TestBuildReplacesExistingIndex(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "idx")
	ctx := context.Background()

	first, err := Build(ctx, writeCorpus(t, "one"+dataset.Delimiter+"two"+dataset.Delimiter+"three"),
		indexPath, WithEmbedder(mock.NewEmbedder()))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Build(ctx, writeCorpus(t, "only"), indexPath, WithEmbedder(mock.NewEmbedder()))
	require.NoError(t, err)
	defer second.Close()

	count, err := second.Store().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOpenExistingIndex(t *testing.T) {
	corpus := writeCorpus(t, "persisted document")
	indexPath := filepath.Join(t.TempDir(), "idx")
	ctx := context.Background()

	built, err := Build(ctx, corpus, indexPath, WithEmbedder(mock.NewEmbedder()))
	require.NoError(t, err)
	require.NoError(t, built.Close())

	ix, err := Open(indexPath, WithEmbedder(mock.NewEmbedder()))
	require.NoError(t, err)
	defer ix.Close()

	require.NotNil(t, ix.Store())

	service, err := ix.NewService()
	require.NoError(t, err)

	response, err := service.Search(ctx, "persisted document", 1)
	require.NoError(t, err)
	require.Len(t, response.TopK, 1)
	assert.Equal(t, "persisted document", response.TopK[0].Text)
}

func TestOpenWithoutTextStoreDegrades(t *testing.T) {
	corpus := writeCorpus(t, "some document")
	indexPath := filepath.Join(t.TempDir(), "idx")
	ctx := context.Background()

	built, err := Build(ctx, corpus, indexPath, WithEmbedder(mock.NewEmbedder()))
	require.NoError(t, err)
	require.NoError(t, built.Close())

	require.NoError(t, os.RemoveAll(filepath.Join(indexPath, storeSubdir)))

	ix, err := Open(indexPath, WithEmbedder(mock.NewEmbedder()))
	require.NoError(t, err)
	defer ix.Close()

	assert.Nil(t, ix.Store())

	service, err := ix.NewService()
	require.NoError(t, err)

	response, err := service.Search(ctx, "some document", 1)
	require.NoError(t, err)
	require.Len(t, response.TopK, 1)
	assert.Empty(t, response.TopK[0].Text)
}

func TestOpenMissingIndex(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"), WithEmbedder(mock.NewEmbedder()))
	assert.Error(t, err)
}
