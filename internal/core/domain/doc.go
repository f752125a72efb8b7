// Package domain defines the core business entities for Keeper.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A stored knowledge-base entry with its embedding
//   - RetrievalResult: A scored hit produced by a retrieval query
//   - SourceReference: A citation attached to a generated answer
//   - ChatMessage: A role-tagged turn in a conversation
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
