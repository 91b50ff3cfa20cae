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
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// Chunker splits a document into token-bounded chunk texts sized to the
// encoder's input limit. Chunking is stateless per document and preserves
// order; a document under the limit yields exactly one chunk equal to
// itself.
type Chunker struct {
	splitter textsplitter.TokenSplitter
}

// NewChunker creates a chunker bounded to maxTokens per chunk, with no
// overlap between adjacent chunks.
func NewChunker(maxTokens int) *Chunker {
	return &Chunker{
		splitter: textsplitter.NewTokenSplitter(
			textsplitter.WithChunkSize(maxTokens),
			textsplitter.WithChunkOverlap(0),
		),
	}
}

// Split returns the chunk texts of one document, empty chunks removed.
func (c *Chunker) Split(document string) ([]string, error) {
	parts, err := c.splitter.SplitText(document)
	if err != nil {
		return nil, err
	}

	chunks := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		chunks = append(chunks, part)
	}
	return chunks, nil
}

// ChunkSource derives a stream of chunk texts from a document source.
type ChunkSource struct {
	source  Source
	chunker *Chunker
}

// Chunks wraps a document source with a chunker.
func Chunks(source Source, chunker *Chunker) *ChunkSource {
	return &ChunkSource{source: source, chunker: chunker}
}

// ForEach calls fn once per chunk, documents in corpus order and chunks in
// document order. Restartable like the underlying source.
func (c *ChunkSource) ForEach(ctx context.Context, fn func(text string) error) error {
	return c.source.ForEach(ctx, func(document string) error {
		chunks, err := c.chunker.Split(document)
		if err != nil {
			return err
		}
		for _, chunk := range chunks {
			if err := fn(chunk); err != nil {
				return err
			}
		}
		return nil
	})
}
