// Package redis provides a core.ConversationStore backed by Redis.
//
// Layout (every key carries the configured prefix):
//
//	<p>:conv:<id>                 hash  {id, user_id, created_at}
//	<p>:conv:<id>:messages        list  JSON messages, append order
//	<p>:user:<uid>:conversations  zset  conversation ids scored by creation sequence
//	<p>:user:<uid>:workspaces     list  JSON workspaces, creation order
//	<p>:seq                       counter backing the zset scores
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/justanuragmaurya/chat-app/core"
)

// Options configures the store.
type Options struct {
	// Prefix namespaces every key.
	Prefix string
	// OwnsClient closes the client on Close.
	OwnsClient bool
}

// Store persists conversations in Redis.
type Store struct {
	rdb    *redis.Client
	prefix string
	owns   bool
	now    func() time.Time
}

// New wraps an existing client.
func New(rdb *redis.Client, optFns ...func(o *Options)) *Store {
	opts := Options{Prefix: "chat"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{rdb: rdb, prefix: opts.Prefix, owns: opts.OwnsClient, now: time.Now}
}

func (s *Store) convKey(id string) string     { return s.prefix + ":conv:" + id }
func (s *Store) messagesKey(id string) string { return s.prefix + ":conv:" + id + ":messages" }
func (s *Store) userConvsKey(uid string) string {
	return s.prefix + ":user:" + uid + ":conversations"
}
func (s *Store) userWorkspacesKey(uid string) string {
	return s.prefix + ":user:" + uid + ":workspaces"
}
func (s *Store) seqKey() string { return s.prefix + ":seq" }

// CreateConversation implements core.ConversationStore.
func (s *Store) CreateConversation(ctx context.Context, userID string) (core.Conversation, error) {
	c := core.Conversation{ID: core.NewID(), UserID: userID, CreatedAt: s.now().UTC()}

	seq, err := s.rdb.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return core.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.convKey(c.ID),
			"id", c.ID,
			"user_id", c.UserID,
			"created_at", c.CreatedAt.Format(time.RFC3339Nano),
		)
		pipe.ZAdd(ctx, s.userConvsKey(userID), redis.Z{Score: float64(seq), Member: c.ID})
		return nil
	})
	if err != nil {
		return core.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

// GetConversation implements core.ConversationStore.
func (s *Store) GetConversation(ctx context.Context, id string) (core.Conversation, error) {
	fields, err := s.rdb.HGetAll(ctx, s.convKey(id)).Result()
	if err != nil {
		return core.Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	if len(fields) == 0 {
		return core.Conversation{}, fmt.Errorf("conversation %s: %w", id, core.ErrNotFound)
	}
	created, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return core.Conversation{}, fmt.Errorf("conversation %s: bad created_at: %w", id, err)
	}
	return core.Conversation{ID: fields["id"], UserID: fields["user_id"], CreatedAt: created}, nil
}

// ListConversations implements core.ConversationStore.
func (s *Store) ListConversations(ctx context.Context, userID string) ([]core.ConversationSummary, error) {
	ids, err := s.rdb.ZRevRange(ctx, s.userConvsKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	out := make([]core.ConversationSummary, 0, len(ids))
	for _, id := range ids {
		c, err := s.GetConversation(ctx, id)
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		first := ""
		raw, err := s.rdb.LIndex(ctx, s.messagesKey(id), 0).Result()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return nil, fmt.Errorf("first message: %w", err)
		default:
			var m core.Message
			if err := json.Unmarshal([]byte(raw), &m); err != nil {
				return nil, fmt.Errorf("decode message: %w", err)
			}
			first = m.Content
		}

		out = append(out, core.ConversationSummary{ID: c.ID, Title: core.Title(first), CreatedAt: c.CreatedAt})
	}
	return out, nil
}

// AppendMessage implements core.ConversationStore.
func (s *Store) AppendMessage(ctx context.Context, conversationID string, role core.Role, content string) (core.Message, error) {
	n, err := s.rdb.Exists(ctx, s.convKey(conversationID)).Result()
	if err != nil {
		return core.Message{}, fmt.Errorf("append message: %w", err)
	}
	if n == 0 {
		return core.Message{}, fmt.Errorf("conversation %s: %w", conversationID, core.ErrNotFound)
	}

	m := core.Message{
		ID:             core.NewID(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      s.now().UTC(),
	}
	b, err := json.Marshal(m)
	if err != nil {
		return core.Message{}, fmt.Errorf("encode message: %w", err)
	}
	if err := s.rdb.RPush(ctx, s.messagesKey(conversationID), b).Err(); err != nil {
		return core.Message{}, fmt.Errorf("append message: %w", err)
	}
	return m, nil
}

// Messages implements core.ConversationStore.
func (s *Store) Messages(ctx context.Context, conversationID string) ([]core.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	raws, err := s.rdb.LRange(ctx, s.messagesKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	out := make([]core.Message, 0, len(raws))
	for _, raw := range raws {
		var m core.Message
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

// CreateWorkspace implements core.ConversationStore.
func (s *Store) CreateWorkspace(ctx context.Context, userID, name string) (core.Workspace, error) {
	w := core.Workspace{ID: core.NewID(), Name: name, UserID: userID, CreatedAt: s.now().UTC()}
	b, err := json.Marshal(w)
	if err != nil {
		return core.Workspace{}, fmt.Errorf("encode workspace: %w", err)
	}
	if err := s.rdb.RPush(ctx, s.userWorkspacesKey(userID), b).Err(); err != nil {
		return core.Workspace{}, fmt.Errorf("create workspace: %w", err)
	}
	return w, nil
}

// ListWorkspaces implements core.ConversationStore.
func (s *Store) ListWorkspaces(ctx context.Context, userID string) ([]core.Workspace, error) {
	raws, err := s.rdb.LRange(ctx, s.userWorkspacesKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	out := make([]core.Workspace, 0, len(raws))
	for _, raw := range raws {
		var w core.Workspace
		if err := json.Unmarshal([]byte(raw), &w); err != nil {
			return nil, fmt.Errorf("decode workspace: %w", err)
		}
		out = append(out, w)
	}
	return out, nil
}

// Close closes the client when the store owns it.
func (s *Store) Close() error {
	if s.owns {
		return s.rdb.Close()
	}
	return nil
}
