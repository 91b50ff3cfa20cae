package mock

import (
	"context"
	"hash/fnv"
)

// Embedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
type Embedder struct {
	// EmbedDocumentsFunc is called by EmbedDocuments if set.
	// If nil, uses default deterministic behavior.
	EmbedDocumentsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQueryFunc is called by EmbedQuery if set.
	// If nil, uses default deterministic behavior.
	EmbedQueryFunc func(ctx context.Context, query string) ([]float32, error)

	// MaxTokens is reported by MaxInputTokens. Defaults to 512.
	MaxTokens int

	documentCalls int
	queryCalls    int
}

// NewEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions on call counts.
func NewEmbedder() *Embedder {
	return &Embedder{MaxTokens: 512}
}

// EmbedDocuments generates deterministic embeddings for each text.
func (m *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	m.documentCalls++

	if m.EmbedDocumentsFunc != nil {
		return m.EmbedDocumentsFunc(ctx, texts)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = generateDeterministicVector(text, 384)
	}
	return vectors, nil
}

// EmbedQuery generates a deterministic embedding based on the query hash.
func (m *Embedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	m.queryCalls++

	if m.EmbedQueryFunc != nil {
		return m.EmbedQueryFunc(ctx, query)
	}

	return generateDeterministicVector(query, 384), nil
}

// MaxInputTokens reports the configured token limit.
func (m *Embedder) MaxInputTokens() int {
	if m.MaxTokens <= 0 {
		return 512
	}
	return m.MaxTokens
}

// DocumentCalls returns the number of EmbedDocuments invocations.
func (m *Embedder) DocumentCalls() int {
	return m.documentCalls
}

// QueryCalls returns the number of EmbedQuery invocations.
func (m *Embedder) QueryCalls() int {
	return m.queryCalls
}

// Reset clears call counts and injected behavior.
func (m *Embedder) Reset() {
	m.documentCalls = 0
	m.queryCalls = 0
	m.EmbedDocumentsFunc = nil
	m.EmbedQueryFunc = nil
}

// generateDeterministicVector creates a deterministic embedding vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func generateDeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		// Simple pseudo-random generation based on seed and index
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}

	// Normalize to unit vector
	var sumSquares float32
	for _, v := range vector {
		sumSquares += v * v
	}
	if sumSquares > 0 {
		norm := float32(1.0) / float32(sumSquares)
		for i := range vector {
			vector[i] *= norm
		}
	}

	return vector
}
