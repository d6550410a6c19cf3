package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/justanuragmaurya/chat-app/core"
)

// MessageRecorder records appended turns. It satisfies the appending half of
// core.ConversationStore.
type MessageRecorder struct {
	// Err, when set, is returned by AppendMessage.
	Err error

	mu       sync.Mutex
	messages []core.Message
	ctxErrs  []error
}

// AppendMessage implements stream.MessageAppender.
func (r *MessageRecorder) AppendMessage(ctx context.Context, conversationID string, role core.Role, content string) (core.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	if r.Err != nil {
		return core.Message{}, r.Err
	}
	m := core.Message{
		ID:             core.NewID(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	r.messages = append(r.messages, m)
	return m, nil
}

// Messages returns the recorded turns.
func (r *MessageRecorder) Messages() []core.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Message(nil), r.messages...)
}

// ContextErrs returns ctx.Err() observed by each AppendMessage call.
func (r *MessageRecorder) ContextErrs() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.ctxErrs...)
}
