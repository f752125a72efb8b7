package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keeper-labs/keeper-cli/internal/core/domain"
	"github.com/keeper-labs/keeper-cli/internal/core/ports/driven"
	"github.com/keeper-labs/keeper-cli/internal/core/ports/driving"
	"github.com/keeper-labs/keeper-cli/internal/logger"
)

// Ensure AssistantService implements the interface.
var _ driving.AssistantService = (*AssistantService)(nil)

const (
	// indexEmbedLimit bounds the text sent to the embedding backend.
	// The full content is still stored.
	indexEmbedLimit = 4000

	// groundingContentLimit bounds each document's contribution to the
	// grounding prompt.
	groundingContentLimit = 1500

	// historyWindow is how many recent turns accompany a question.
	historyWindow = 6

	// conversationTitleLimit bounds auto-generated conversation titles.
	conversationTitleLimit = 50
)

// notFoundAnswer is returned when the knowledge base is enabled but
// retrieval matched nothing. Generation is skipped entirely.
const notFoundAnswer = "I couldn't find anything relevant in your knowledge base. " +
	"Try adding more content, or ask the question a different way."

// AssistantService answers questions grounded on the knowledge base and
// persists the resulting conversation turns.
type AssistantService struct {
	retrieval         *RetrievalService
	vectorStore       driven.VectorStore
	embeddingProvider driven.EmbeddingProvider
	generation        driven.GenerationProvider
	conversations     driven.ConversationStore
	settings          domain.RetrievalSettings
}

// NewAssistantService creates a new assistant service.
// The embeddingProvider parameter is optional (can be nil); indexing
// then stores documents without vectors and retrieval runs lexically.
func NewAssistantService(
	retrieval *RetrievalService,
	vectorStore driven.VectorStore,
	embeddingProvider driven.EmbeddingProvider,
	generation driven.GenerationProvider,
	conversations driven.ConversationStore,
	settings domain.RetrievalSettings,
) *AssistantService {
	return &AssistantService{
		retrieval:         retrieval,
		vectorStore:       vectorStore,
		embeddingProvider: embeddingProvider,
		generation:        generation,
		conversations:     conversations,
		settings:          settings.WithDefaults(),
	}
}

// Index adds or replaces a document in the knowledge base. An embedding
// failure is not fatal: the document is stored without a vector and
// remains reachable through the lexical fallback.
func (s *AssistantService) Index(ctx context.Context, id, content string, metadata map[string]any) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: document content is required", domain.ErrInvalidInput)
	}

	var embedding []float32
	if s.embeddingProvider != nil {
		embedding = s.embeddingProvider.EmbedSingle(ctx, domain.TruncateRunes(content, indexEmbedLimit))
	}
	if len(embedding) == 0 {
		logger.Warn("Indexing %q without embedding, lexical fallback only", id)
	}

	doc := domain.Document{
		ID:        id,
		Content:   content,
		Embedding: embedding,
		Metadata:  metadata,
	}
	if err := s.vectorStore.Upsert(ctx, doc); err != nil {
		return fmt.Errorf("store document: %w", err)
	}
	logger.Debug("Indexed %q (%d chars, embedded=%t)", id, len(content), doc.Embedded())
	return nil
}

// Deindex removes a document from the knowledge base.
func (s *AssistantService) Deindex(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if err := s.vectorStore.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Ask answers a question in one shot and persists the turn.
func (s *AssistantService) Ask(ctx context.Context, req driving.AskRequest) (driving.AskResult, error) {
	prep, err := s.prepare(ctx, req)
	if err != nil {
		return driving.AskResult{}, err
	}

	var text string
	if prep.shortCircuit {
		text = notFoundAnswer
	} else {
		text, err = s.generation.Complete(ctx, prep.messages)
		if err != nil {
			return driving.AskResult{}, fmt.Errorf("generate answer: %w", err)
		}
	}

	messageID, err := s.persistTurn(ctx, prep.conversationID, req.Question, text, prep.sources)
	if err != nil {
		return driving.AskResult{}, err
	}

	return driving.AskResult{
		ConversationID: prep.conversationID,
		MessageID:      messageID,
		Answer:         domain.Answer{Text: text, Sources: prep.sources},
	}, nil
}

// AskStream answers a question as an event sequence: sources first,
// then content and thinking fragments, then a terminal done event once
// the turn is persisted. Cancelling ctx ends the stream without
// persisting a partial turn.
func (s *AssistantService) AskStream(ctx context.Context, req driving.AskRequest) (<-chan domain.Event, error) {
	prep, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make(chan domain.Event)
	go func() {
		defer close(out)

		if !emitEvent(ctx, out, domain.Event{Type: domain.EventSources, Sources: prep.sources}) {
			return
		}

		var answer strings.Builder
		if prep.shortCircuit {
			if !emitEvent(ctx, out, domain.Event{Type: domain.EventContent, Text: notFoundAnswer}) {
				return
			}
			answer.WriteString(notFoundAnswer)
		} else {
			chunks, err := s.generation.Stream(ctx, prep.messages)
			if err != nil {
				logger.Warn("Stream failed to open: %v", err)
				return
			}
			for chunk := range chunks {
				eventType := domain.EventContent
				if chunk.Type == driven.ChunkThinking {
					eventType = domain.EventThinking
				} else {
					answer.WriteString(chunk.Text)
				}
				if !emitEvent(ctx, out, domain.Event{Type: eventType, Text: chunk.Text}) {
					return
				}
			}
			if ctx.Err() != nil {
				return
			}
		}

		messageID, err := s.persistTurn(ctx, prep.conversationID, req.Question, answer.String(), prep.sources)
		if err != nil {
			logger.Warn("Failed to persist turn: %v", err)
			return
		}
		emitEvent(ctx, out, domain.Event{Type: domain.EventDone, MessageID: messageID})
	}()

	return out, nil
}

// Stats reports document count and vector backend status.
func (s *AssistantService) Stats(ctx context.Context) (domain.Stats, error) {
	count, err := s.vectorStore.Count(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count documents: %w", err)
	}
	return domain.Stats{
		DocumentCount:       count,
		VectorBackendActive: s.retrieval.VectorActive(),
	}, nil
}

// preparedAsk carries the shared state between Ask and AskStream:
// conversation identity, citations, and the assembled message sequence.
// shortCircuit marks the fixed not-found answer path, which skips
// generation entirely.
type preparedAsk struct {
	conversationID string
	sources        []domain.SourceReference
	messages       []domain.ChatMessage
	shortCircuit   bool
}

// prepare runs the retrieval phase and builds the generation input.
func (s *AssistantService) prepare(ctx context.Context, req driving.AskRequest) (preparedAsk, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return preparedAsk{}, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}

	conversationID, err := s.ensureConversation(ctx, req.ConversationID, question)
	if err != nil {
		return preparedAsk{}, err
	}

	sources := []domain.SourceReference{}
	var results []domain.RetrievalResult
	if req.UseKnowledgeBase {
		results, err = s.retrieval.Retrieve(ctx, question, s.settings.TopK, s.settings.MinRelevance)
		if err != nil {
			return preparedAsk{}, fmt.Errorf("retrieve context: %w", err)
		}
		for _, r := range results {
			sources = append(sources, domain.SourceFromResult(r))
		}
	}

	if req.UseKnowledgeBase && len(results) == 0 {
		return preparedAsk{
			conversationID: conversationID,
			sources:        sources,
			shortCircuit:   true,
		}, nil
	}

	history, err := s.conversations.History(ctx, conversationID, historyWindow)
	if err != nil {
		return preparedAsk{}, fmt.Errorf("load history: %w", err)
	}

	messages := make([]domain.ChatMessage, 0, len(history)+2)
	messages = append(messages, domain.ChatMessage{
		Role:    domain.RoleSystem,
		Content: groundingPrompt(results, req.UseKnowledgeBase),
	})
	messages = append(messages, history...)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: question})

	return preparedAsk{
		conversationID: conversationID,
		sources:        sources,
		messages:       messages,
	}, nil
}

// ensureConversation resolves or creates the conversation for a request.
func (s *AssistantService) ensureConversation(ctx context.Context, id, question string) (string, error) {
	if id != "" {
		if _, err := s.conversations.GetConversation(ctx, id); err != nil {
			return "", fmt.Errorf("conversation %q: %w", id, err)
		}
		return id, nil
	}

	conv, err := s.conversations.CreateConversation(ctx, domain.TruncateRunes(question, conversationTitleLimit))
	if err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	return conv.ID, nil
}

// persistTurn appends the question and the completed answer as two
// stored messages and returns the assistant message id.
func (s *AssistantService) persistTurn(
	ctx context.Context, conversationID, question, answer string, sources []domain.SourceReference,
) (string, error) {
	now := time.Now().UTC()

	userMsg := domain.StoredMessage{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           domain.RoleUser,
		Content:        question,
		CreatedAt:      now,
	}
	if err := s.conversations.AppendMessage(ctx, userMsg); err != nil {
		return "", fmt.Errorf("persist question: %w", err)
	}

	assistantMsg := domain.StoredMessage{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           domain.RoleAssistant,
		Content:        answer,
		Sources:        sources,
		CreatedAt:      now,
	}
	if err := s.conversations.AppendMessage(ctx, assistantMsg); err != nil {
		return "", fmt.Errorf("persist answer: %w", err)
	}
	return assistantMsg.ID, nil
}

// groundingPrompt builds the system instruction. With the knowledge
// base enabled it embeds the retrieved documents and constrains the
// model to them; disabled, it answers from general knowledge while
// disclosing that the knowledge base was not consulted.
func groundingPrompt(results []domain.RetrievalResult, useKnowledgeBase bool) string {
	if !useKnowledgeBase {
		return "You are a personal knowledge assistant. The user's knowledge base was " +
			"not consulted for this question. Answer from general knowledge, and make " +
			"clear that the answer is not based on their stored documents."
	}

	var b strings.Builder
	b.WriteString("You are a personal knowledge assistant. The following content was " +
		"retrieved from the user's knowledge base:\n\n")
	for _, r := range results {
		title, _ := r.Metadata["title"].(string)
		if title == "" {
			title = "Untitled"
		}
		b.WriteString("[" + title + "]\n")
		b.WriteString(domain.TruncateRunes(r.Content, groundingContentLimit))
		b.WriteString("\n\n")
	}
	b.WriteString("Answer the user's question using only the content above. " +
		"Be accurate and well organised. If the content is insufficient to answer, " +
		"say so explicitly instead of guessing.")
	return b.String()
}

// emitEvent sends an event unless the consumer cancelled. Returns false
// when the stream should stop.
func emitEvent(ctx context.Context, ch chan<- domain.Event, event domain.Event) bool {
	select {
	case ch <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
