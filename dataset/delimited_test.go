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


package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectSplit(t *testing.T, input string) []string {
	t.Helper()
	var docs []string
	err := splitDelimited(context.Background(), strings.NewReader(input), func(text string) error {
		docs = append(docs, text)
		return nil
	})
	require.NoError(t, err)
	return docs
}

func TestSplitDelimited(t *testing.T) {
	docs := collectSplit(t, "Doc A\n\n--------\n\nDoc B\n\n--------\n\nDoc C")
	assert.Equal(t, []string{"Doc A", "Doc B", "Doc C"}, docs)
}

func TestSplitDelimitedTrailingDelimiter(t *testing.T) {
	docs := collectSplit(t, "Doc A"+Delimiter+"Doc B"+Delimiter)
	assert.Equal(t, []string{"Doc A", "Doc B"}, docs)
}

func TestSplitDelimitedSkipsEmptySegments(t *testing.T) {
	docs := collectSplit(t, "Doc A"+Delimiter+"   \n  "+Delimiter+"Doc B")
	assert.Equal(t, []string{"Doc A", "Doc B"}, docs)
}

func TestSplitDelimitedEmptyInput(t *testing.T) {
	assert.Empty(t, collectSplit(t, ""))
	assert.Empty(t, collectSplit(t, "  \n\n  "))
}

func TestSplitDelimitedDelimiterSpansReadBoundary(t *testing.T) {
	// One byte per read forces every delimiter to straddle read boundaries.
	input := "Doc A" + Delimiter + "Doc B" + Delimiter + "Doc C"

	var docs []string
	err := splitDelimited(context.Background(), iotest.OneByteReader(strings.NewReader(input)),
		func(text string) error {
			docs = append(docs, text)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"Doc A", "Doc B", "Doc C"}, docs)
}

func TestSplitDelimitedStopsOnCallbackError(t *testing.T) {
	wantErr := errors.New("stop")
	calls := 0
	err := splitDelimited(context.Background(),
		strings.NewReader("A"+Delimiter+"B"+Delimiter+"C"),
		func(text string) error {
			calls++
			return wantErr
		})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, calls)
}

func TestSplitDelimitedCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := splitDelimited(ctx, strings.NewReader("A"+Delimiter+"B"), func(string) error {
		t.Fatal("callback should not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNeutralizeDelimiterPreservesDocumentCount(t *testing.T) {
	// A document containing the delimiter must not change the split count
	// once neutralized.
	inner := "first half" + Delimiter + "second half"
	corpus := NeutralizeDelimiter(inner) + Delimiter + "Doc B"

	docs := collectSplit(t, corpus)
	require.Len(t, docs, 2)
	assert.Contains(t, docs[0], NeutralizedDelimiter)
	assert.Equal(t, "Doc B", docs[1])

	// Neutralization is idempotent.
	assert.Equal(t, NeutralizeDelimiter(inner), NeutralizeDelimiter(NeutralizeDelimiter(inner)))
}

func TestDelimitedSourceRestartable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte("Doc A"+Delimiter+"Doc B"), 0o644))

	source, err := NewDelimitedSource(path)
	require.NoError(t, err)

	_, known := source.DocumentCount()
	assert.False(t, known)

	for pass := 0; pass < 2; pass++ {
		var docs []string
		err := source.ForEach(context.Background(), func(text string) error {
			docs = append(docs, text)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Doc A", "Doc B"}, docs)
	}
}

func TestNewSourceDispatch(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "corpus.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("Doc A"), 0o644))

	source, err := NewSource(filePath)
	require.NoError(t, err)
	assert.IsType(t, (*DelimitedSource)(nil), source)

	source, err = NewSource(dir)
	require.NoError(t, err)
	assert.IsType(t, (*DirectorySource)(nil), source)

	_, err = NewSource(filepath.Join(dir, "nonexistent"))
	assert.ErrorIs(t, err, ErrPathNotFound)
}
