// Package memory provides a volatile core.ConversationStore.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/justanuragmaurya/chat-app/core"
)

// Store keeps conversations, messages and workspaces in process local maps.
// It is safe for concurrent access and best suited for tests or ephemeral
// demo servers. Returned slices are copies.
type Store struct {
	mu            sync.RWMutex
	now           func() time.Time
	conversations map[string]core.Conversation
	order         []string // conversation ids in creation order
	messages      map[string][]core.Message
	workspaces    []core.Workspace
}

// New constructs an empty store.
func New() *Store {
	return &Store{
		now:           time.Now,
		conversations: make(map[string]core.Conversation),
		messages:      make(map[string][]core.Message),
	}
}

// CreateConversation implements core.ConversationStore.
func (s *Store) CreateConversation(_ context.Context, userID string) (core.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := core.Conversation{ID: core.NewID(), UserID: userID, CreatedAt: s.now().UTC()}
	s.conversations[c.ID] = c
	s.order = append(s.order, c.ID)
	return c, nil
}

// GetConversation implements core.ConversationStore.
func (s *Store) GetConversation(_ context.Context, id string) (core.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[id]
	if !ok {
		return core.Conversation{}, fmt.Errorf("conversation %s: %w", id, core.ErrNotFound)
	}
	return c, nil
}

// ListConversations implements core.ConversationStore.
func (s *Store) ListConversations(_ context.Context, userID string) ([]core.ConversationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []core.ConversationSummary{}
	for _, id := range slices.Backward(s.order) {
		c := s.conversations[id]
		if c.UserID != userID {
			continue
		}
		first := ""
		if msgs := s.messages[id]; len(msgs) > 0 {
			first = msgs[0].Content
		}
		out = append(out, core.ConversationSummary{ID: c.ID, Title: core.Title(first), CreatedAt: c.CreatedAt})
	}
	return out, nil
}

// AppendMessage implements core.ConversationStore.
func (s *Store) AppendMessage(_ context.Context, conversationID string, role core.Role, content string) (core.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return core.Message{}, fmt.Errorf("conversation %s: %w", conversationID, core.ErrNotFound)
	}
	m := core.Message{
		ID:             core.NewID(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      s.now().UTC(),
	}
	s.messages[conversationID] = append(s.messages[conversationID], m)
	return m, nil
}

// Messages implements core.ConversationStore.
func (s *Store) Messages(_ context.Context, conversationID string) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, core.ErrNotFound)
	}
	return append([]core.Message{}, s.messages[conversationID]...), nil
}

// CreateWorkspace implements core.ConversationStore.
func (s *Store) CreateWorkspace(_ context.Context, userID, name string) (core.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := core.Workspace{ID: core.NewID(), Name: name, UserID: userID, CreatedAt: s.now().UTC()}
	s.workspaces = append(s.workspaces, w)
	return w, nil
}

// ListWorkspaces implements core.ConversationStore.
func (s *Store) ListWorkspaces(_ context.Context, userID string) ([]core.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []core.Workspace{}
	for _, w := range s.workspaces {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

// Close implements core.ConversationStore.
func (s *Store) Close() error { return nil }
