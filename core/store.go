package core

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a conversation or workspace does not exist.
var ErrNotFound = errors.New("not found")

// Conversation groups the messages exchanged in one chat.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message is one persisted turn of a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ConversationSummary is a conversation listing row. Title is derived from
// the first message.
type ConversationSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// Workspace is a named container owned by one user.
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ConversationStore persists conversations, their messages and workspaces.
//
// Implementations must return messages ordered by creation time and must be
// safe for concurrent use.
type ConversationStore interface {
	// CreateConversation creates a conversation owned by userID ("" for anonymous).
	CreateConversation(ctx context.Context, userID string) (Conversation, error)

	// GetConversation returns ErrNotFound when id is unknown.
	GetConversation(ctx context.Context, id string) (Conversation, error)

	// ListConversations returns the user's conversations newest first.
	ListConversations(ctx context.Context, userID string) ([]ConversationSummary, error)

	// AppendMessage persists one turn and returns the stored record.
	AppendMessage(ctx context.Context, conversationID string, role Role, content string) (Message, error)

	// Messages returns the conversation's turns in chronological order.
	Messages(ctx context.Context, conversationID string) ([]Message, error)

	// CreateWorkspace creates a workspace for userID.
	CreateWorkspace(ctx context.Context, userID, name string) (Workspace, error)

	// ListWorkspaces returns the user's workspaces oldest first.
	ListWorkspaces(ctx context.Context, userID string) ([]Workspace, error)

	// Close releases underlying resources.
	Close() error
}

// TitleLimit is the number of runes of the first message used as a conversation title.
const TitleLimit = 100

// Title derives a conversation title from its first message.
func Title(first string) string {
	r := []rune(first)
	if len(r) > TitleLimit {
		return string(r[:TitleLimit])
	}
	if len(r) == 0 {
		return "New conversation"
	}
	return first
}
