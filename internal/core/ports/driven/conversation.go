package driven

import (
	"context"

	"github.com/keeper-labs/keeper-cli/internal/core/domain"
)

// ConversationStore persists conversations and their turns.
//
// A turn is persisted only after it is complete: streamed answers are
// appended once the stream's completion signal is observed, never while
// fragments are still arriving.
type ConversationStore interface {
	// CreateConversation starts a new conversation with the given title.
	CreateConversation(ctx context.Context, title string) (domain.Conversation, error)

	// GetConversation returns a conversation, or domain.ErrNotFound.
	GetConversation(ctx context.Context, id string) (domain.Conversation, error)

	// ListConversations returns all conversations, most recently
	// updated first.
	ListConversations(ctx context.Context) ([]domain.Conversation, error)

	// DeleteConversation removes a conversation and its messages.
	DeleteConversation(ctx context.Context, id string) error

	// AppendMessage persists one completed turn.
	AppendMessage(ctx context.Context, msg domain.StoredMessage) error

	// History returns the most recent limit messages of a conversation
	// in chronological order. limit <= 0 returns all messages.
	History(ctx context.Context, conversationID string, limit int) ([]domain.ChatMessage, error)

	// Close releases resources.
	Close() error
}
