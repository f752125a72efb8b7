package driving

import (
	"context"

	"github.com/keeper-labs/keeper-cli/internal/core/domain"
)

// AskRequest describes one question to the assistant.
type AskRequest struct {
	// Question is the user's free-text question.
	Question string

	// ConversationID continues an existing conversation. Empty starts
	// a new one titled after the question.
	ConversationID string

	// UseKnowledgeBase grounds the answer on retrieved documents.
	// When false the model answers from general knowledge and the
	// answer discloses that the knowledge base was not consulted.
	UseKnowledgeBase bool
}

// AskResult is the outcome of a batch ask.
type AskResult struct {
	// ConversationID identifies the (possibly new) conversation.
	ConversationID string

	// MessageID identifies the persisted assistant turn.
	MessageID string

	// Answer is the generated text plus citations.
	Answer domain.Answer
}

// AssistantService is the retrieval-augmented question answering engine.
type AssistantService interface {
	// Index adds or replaces a document in the knowledge base.
	Index(ctx context.Context, id, content string, metadata map[string]any) error

	// Deindex removes a document from the knowledge base.
	Deindex(ctx context.Context, id string) error

	// Ask answers a question in one shot and persists the turn.
	Ask(ctx context.Context, req AskRequest) (AskResult, error)

	// AskStream answers a question as a lazy event sequence: one
	// sources event before generation, then content/thinking
	// fragments in backend order, then a terminal done event carrying
	// the persisted turn id. Cancelling ctx ends the stream without
	// persisting a partial turn.
	AskStream(ctx context.Context, req AskRequest) (<-chan domain.Event, error)

	// Stats reports document count and whether the vector backend is
	// currently active.
	Stats(ctx context.Context) (domain.Stats, error)
}

// RetrievalService ranks stored documents against a free-text query.
type RetrievalService interface {
	// Retrieve returns up to topK results with relevance >=
	// minRelevance, sorted by descending relevance. When the embedding
	// backend yields no vector the lexical fallback is used instead.
	Retrieve(ctx context.Context, query string, topK int, minRelevance float64) ([]domain.RetrievalResult, error)
}
