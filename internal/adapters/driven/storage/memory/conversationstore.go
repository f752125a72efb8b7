// Package memory provides in-memory store implementations for testing
// and ephemeral runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/keeper-labs/keeper-cli/internal/core/domain"
	"github.com/keeper-labs/keeper-cli/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore is an in-memory conversation store.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]domain.Conversation
	messages      map[string][]domain.StoredMessage
}

// NewConversationStore creates a new in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		conversations: make(map[string]domain.Conversation),
		messages:      make(map[string][]domain.StoredMessage),
	}
}

// CreateConversation starts a new conversation with the given title.
func (s *ConversationStore) CreateConversation(_ context.Context, title string) (domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	conv := domain.Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations[conv.ID] = conv
	return conv, nil
}

// GetConversation retrieves a conversation by ID.
func (s *ConversationStore) GetConversation(_ context.Context, id string) (domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return domain.Conversation{}, domain.ErrNotFound
	}
	return conv, nil
}

// ListConversations returns all conversations, most recently updated first.
func (s *ConversationStore) ListConversations(_ context.Context) ([]domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conversations := make([]domain.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		conversations = append(conversations, conv)
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	return conversations, nil
}

// DeleteConversation removes a conversation and its messages.
func (s *ConversationStore) DeleteConversation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conversations, id)
	delete(s.messages, id)
	return nil
}

// AppendMessage persists one completed turn.
func (s *ConversationStore) AppendMessage(_ context.Context, msg domain.StoredMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], msg)

	if conv, ok := s.conversations[msg.ConversationID]; ok {
		conv.UpdatedAt = msg.CreatedAt
		s.conversations[msg.ConversationID] = conv
	}
	return nil
}

// History returns the most recent limit messages of a conversation in
// chronological order. limit <= 0 returns all messages.
func (s *ConversationStore) History(_ context.Context, conversationID string, limit int) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.messages[conversationID]
	if limit > 0 && len(stored) > limit {
		stored = stored[len(stored)-limit:]
	}

	messages := make([]domain.ChatMessage, 0, len(stored))
	for _, msg := range stored {
		messages = append(messages, domain.ChatMessage{Role: msg.Role, Content: msg.Content})
	}
	return messages, nil
}

// Messages returns the full stored messages of a conversation in
// chronological order.
func (s *ConversationStore) Messages(_ context.Context, conversationID string) ([]domain.StoredMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.messages[conversationID]
	out := make([]domain.StoredMessage, len(stored))
	copy(out, stored)
	return out, nil
}

// Close releases resources.
func (s *ConversationStore) Close() error {
	return nil
}
