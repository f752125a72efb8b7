package driven

import (
	"context"

	"github.com/keeper-labs/keeper-cli/internal/core/domain"
)

// ChunkType identifies a streamed fragment kind.
type ChunkType string

// Stream fragment kinds. Not every backend emits thinking fragments.
const (
	ChunkContent  ChunkType = "content"
	ChunkThinking ChunkType = "thinking"
)

// StreamChunk is one incremental fragment of a streamed completion.
type StreamChunk struct {
	// Type is content or thinking.
	Type ChunkType

	// Text is the fragment text.
	Text string
}

// GenerationProvider converts a message sequence into a natural-language
// completion, whole or incrementally streamed.
//
// Backends differ in request shape (role mapping, system-prompt placement,
// streaming frame format) but normalise to these two operations. A backend
// without true incremental streaming may implement Stream as "compute the
// full completion, then yield it as one fragment" - callers must not assume
// fine-grained chunking.
//
// Temperature and output-token limits are fixed per-backend defaults, not
// negotiated per call.
type GenerationProvider interface {
	// Complete performs one round-trip and returns the full completion.
	// Failures wrap one of the domain error classes (ErrAuthFailed,
	// ErrRateLimited, ErrProviderTimeout, ErrMalformedResponse) so the
	// caller can decide whether to retry or surface.
	Complete(ctx context.Context, messages []domain.ChatMessage) (string, error)

	// Stream opens a single logical completion call and delivers
	// fragments in backend order on the returned channel. The channel
	// is closed when the backend signals completion or the connection
	// closes. Cancelling ctx stops consumption and releases the
	// underlying connection promptly.
	Stream(ctx context.Context, messages []domain.ChatMessage) (<-chan StreamChunk, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
