package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedProvider indicates an unknown backend identifier.
	// This is fatal at construction time: the engine refuses to start
	// rather than silently defaulting.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrStoreCorrupt indicates the persisted vector store could not
	// be decoded. Surfaced at load time, never masked as an empty store.
	ErrStoreCorrupt = errors.New("vector store corrupt")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Retrieval degrades to the lexical fallback.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the generation service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// Generation failures. Complete and Stream wrap one of these so the
	// caller can branch on failure class.

	// ErrAuthFailed indicates the provider rejected the credentials.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderTimeout indicates the provider did not answer within
	// the bounded wait.
	ErrProviderTimeout = errors.New("provider timeout")

	// ErrMalformedResponse indicates the provider answered with a body
	// the adapter could not interpret.
	ErrMalformedResponse = errors.New("malformed provider response")
)
