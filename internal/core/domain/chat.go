package domain

import "time"

// Role identifies the author of a conversation message.
type Role string

// Message roles. Roles are fixed at creation and never rewritten.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// ChatMessage is a single role-tagged message in a conversation.
// The engine treats message sequences as immutable input.
type ChatMessage struct {
	// Role is one of system, user, or assistant.
	Role Role

	// Content is the message text.
	Content string
}

// Conversation groups an ordered sequence of stored messages.
type Conversation struct {
	// ID is the unique conversation identifier.
	ID string

	// Title is a short human-readable label, usually derived from
	// the first question.
	Title string

	// CreatedAt is when the conversation started.
	CreatedAt time.Time

	// UpdatedAt is when the last message was appended.
	UpdatedAt time.Time
}

// StoredMessage is a persisted conversation turn. Assistant turns carry
// the citations produced alongside the answer.
type StoredMessage struct {
	// ID is the unique message identifier.
	ID string

	// ConversationID links to the owning conversation.
	ConversationID string

	// Role is the author of the turn.
	Role Role

	// Content is the message text.
	Content string

	// Sources lists citations for assistant turns. Nil otherwise.
	Sources []SourceReference

	// CreatedAt is when the turn was persisted.
	CreatedAt time.Time
}

// EventType identifies a streamed answer event.
type EventType string

// Stream event kinds, in the order a consumer observes them:
// sources once before generation, then interleaved content/thinking
// fragments, then a terminal done.
const (
	EventSources  EventType = "sources"
	EventContent  EventType = "content"
	EventThinking EventType = "thinking"
	EventDone     EventType = "done"
)

// Event is one element of a streamed answer.
type Event struct {
	// Type discriminates the payload fields below.
	Type EventType

	// Text carries an incremental fragment for content and
	// thinking events.
	Text string

	// Sources carries the citation list for the sources event.
	Sources []SourceReference

	// MessageID carries the persisted turn identifier for the
	// done event.
	MessageID string
}
