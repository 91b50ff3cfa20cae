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
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectDocs(t *testing.T, source Source) []string {
	t.Helper()
	var docs []string
	err := source.ForEach(context.Background(), func(text string) error {
		docs = append(docs, text)
		return nil
	})
	require.NoError(t, err)
	return docs
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestDirectorySourceCreatesArtifact(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"b.txt": "second document",
		"a.md":  "first document",
	})

	source, err := NewDirectorySource(dir)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, CacheFileName))

	count, known := source.DocumentCount()
	assert.True(t, known)
	assert.Equal(t, 2, count)

	// Lexicographic full-path order: a.md before b.txt.
	assert.Equal(t, []string{"first document", "second document"}, collectDocs(t, source))
}

func TestDirectorySourceTrustsExistingArtifact(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"doc.txt": "original content"})

	first, err := NewDirectorySource(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"original content"}, collectDocs(t, first))

	// Content changes are not picked up while the artifact exists.
	writeFiles(t, dir, map[string]string{"doc.txt": "changed content"})

	second, err := NewDirectorySource(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"original content"}, collectDocs(t, second))

	_, known := second.DocumentCount()
	assert.False(t, known)
}

func TestDirectorySourceSkipsUnsupportedAndEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"doc.txt":    "kept",
		"image.webp": "binary payload",
		"blank.txt":  "   \n  ",
	})

	source, err := NewDirectorySource(dir)
	require.NoError(t, err)

	count, _ := source.DocumentCount()
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"kept"}, collectDocs(t, source))
}

func TestDirectorySourceNeutralizesDelimiter(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"tricky.txt": "part one" + Delimiter + "part two",
		"plain.txt":  "other",
	})

	source, err := NewDirectorySource(dir)
	require.NoError(t, err)

	docs := collectDocs(t, source)
	require.Len(t, docs, 2)
	assert.Equal(t, "other", docs[0])
	assert.Equal(t, "part one"+NeutralizedDelimiter+"part two", docs[1])
}

func TestDirectorySourceRebuildsCorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"doc.txt": "content"})

	artifact := filepath.Join(dir, CacheFileName)
	require.NoError(t, os.WriteFile(artifact, []byte("not a zstd stream"), 0o644))

	source, err := NewDirectorySource(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"content"}, collectDocs(t, source))

	count, known := source.DocumentCount()
	assert.True(t, known)
	assert.Equal(t, 1, count)
}

func TestDirectorySourceRebuildsOnHeaderMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"doc.txt": "content"})

	// A well-formed artifact written under a different delimiter scheme
	// carries a different fingerprint in its header line.
	artifact := filepath.Join(dir, CacheFileName)
	f, err := os.Create(artifact)
	require.NoError(t, err)
	encoder, err := zstd.NewWriter(f)
	require.NoError(t, err)
	_, err = encoder.Write([]byte("searchit-cache:0000000000000000\nstale document"))
	require.NoError(t, err)
	require.NoError(t, encoder.Close())
	require.NoError(t, f.Close())

	source, err := NewDirectorySource(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"content"}, collectDocs(t, source))

	count, known := source.DocumentCount()
	assert.True(t, known)
	assert.Equal(t, 1, count)
}

func TestDirectorySourceWalksSubdirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	writeFiles(t, dir, map[string]string{"top.txt": "top"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "inner.txt"), []byte("inner"), 0o644))

	source, err := NewDirectorySource(dir)
	require.NoError(t, err)

	docs := collectDocs(t, source)
	assert.ElementsMatch(t, []string{"top", "inner"}, docs)
}

func TestDirectorySourceEmptyDirectory(t *testing.T) {
	source, err := NewDirectorySource(t.TempDir())
	require.NoError(t, err)

	count, known := source.DocumentCount()
	assert.True(t, known)
	assert.Equal(t, 0, count)
	assert.Empty(t, collectDocs(t, source))
}

func TestMarkPages(t *testing.T) {
	marked := markPages("page one text\fpage two text")
	assert.Contains(t, marked, "---- Beginning of page 1 ----")
	assert.Contains(t, marked, "page one text")
	assert.Contains(t, marked, "---- End of page 2 ----")
	assert.Contains(t, marked, "page two text")
}

func TestMarkPagesSkipsBlankPages(t *testing.T) {
	marked := markPages("content\f  \f")
	assert.Contains(t, marked, "---- Beginning of page 1 ----")
	assert.NotContains(t, marked, "page 2")
}

func TestRegistrySupportsPlainTextAlways(t *testing.T) {
	registry := NewRegistry(nil)

	_, ok := registry.Lookup(".txt")
	assert.True(t, ok)
	_, ok = registry.Lookup(".MD")
	assert.True(t, ok)
	_, ok = registry.Lookup(".webp")
	assert.False(t, ok)
}
