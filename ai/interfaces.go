package ai

import "context"

// Embedder generates vector embeddings from text for nearest-neighbor search.
// Document and query embeddings must live in the same embedding space, so the
// same Embedder instance is shared between ingestion and serving.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedDocuments generates vector embeddings for a batch of document
	// texts. The returned slice contains one embedding per input text, in
	// input order. Returns an error if any embedding generation fails.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates a vector embedding for a single query string.
	// Returns an error if the embedding generation fails.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// MaxInputTokens reports the encoder's input limit in tokens. The value
	// is fixed at construction; chunking is sized to it once at startup.
	MaxInputTokens() int
}
