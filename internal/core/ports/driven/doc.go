// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - VectorStore: Durable document + embedding persistence with
//     similarity search
//   - GenerationProvider: Language model completions, batch and streamed
//   - ConversationStore: Conversation turn persistence
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingProvider: Generates vector embeddings. Without it (or when
//     it fails) retrieval falls back to lexical scoring.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
