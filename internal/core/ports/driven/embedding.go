package driven

import "context"

// EmbeddingProvider converts text to fixed-dimension vectors via a remote
// inference call.
//
// The contract is deliberately failure-tolerant: a backend that is down,
// slow, or answering garbage must degrade to "no vector" rather than
// surface an error. Retrieval treats an empty vector as the signal to
// switch to its lexical fallback.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Doubao multimodal embeddings
//   - Any OpenAI-compatible inference server
type EmbeddingProvider interface {
	// Embed generates embeddings for the given texts. The returned
	// slice always has the same length and ordering as the input.
	// A nil element marks a per-item failure; Embed itself never
	// returns an error for remote failures.
	Embed(ctx context.Context, texts []string) [][]float32

	// EmbedSingle embeds one text. Returns nil when the remote call
	// produced no vector.
	EmbedSingle(ctx context.Context, text string) []float32

	// Dimensions returns the embedding vector size (e.g., 1536, 2048).
	// This must match the vector store's configured dimension.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
