// Package storetest holds the behaviour suite every core.ConversationStore
// implementation must pass.
package storetest

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justanuragmaurya/chat-app/core"
)

// Run exercises the store returned by newStore. Each subtest gets a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) core.ConversationStore) {
	t.Run("ConversationLifecycle", func(t *testing.T) { testConversationLifecycle(t, newStore(t)) })
	t.Run("MessagesOrdered", func(t *testing.T) { testMessagesOrdered(t, newStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
	t.Run("ListNewestFirst", func(t *testing.T) { testListNewestFirst(t, newStore(t)) })
	t.Run("Workspaces", func(t *testing.T) { testWorkspaces(t, newStore(t)) })
	t.Run("ConcurrentAppends", func(t *testing.T) { testConcurrentAppends(t, newStore(t)) })
}

func testConversationLifecycle(t *testing.T, s core.ConversationStore) {
	ctx := context.Background()

	c, err := s.CreateConversation(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "user-1", c.UserID)

	got, err := s.GetConversation(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "user-1", got.UserID)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))

	m, err := s.AppendMessage(ctx, c.ID, core.RoleUser, "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, c.ID, m.ConversationID)

	anon, err := s.CreateConversation(ctx, "")
	require.NoError(t, err)
	msgs, err := s.Messages(ctx, anon.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func testMessagesOrdered(t *testing.T, s core.ConversationStore) {
	ctx := context.Background()
	c, err := s.CreateConversation(ctx, "u")
	require.NoError(t, err)

	want := []core.Turn{
		{Role: core.RoleUser, Content: "weather?"},
		{Role: core.RoleAssistant, Content: "It's sunny."},
		{Role: core.RoleUser, Content: "tomorrow?"},
		{Role: core.RoleAssistant, Content: ""},
	}
	for _, turn := range want {
		_, err := s.AppendMessage(ctx, c.ID, turn.Role, turn.Content)
		require.NoError(t, err)
	}

	msgs, err := s.Messages(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, msgs, len(want))
	for i, m := range msgs {
		assert.Equal(t, want[i].Role, m.Role)
		assert.Equal(t, want[i].Content, m.Content)
		if i > 0 {
			assert.False(t, m.CreatedAt.Before(msgs[i-1].CreatedAt))
		}
	}
}

func testNotFound(t *testing.T, s core.ConversationStore) {
	ctx := context.Background()

	_, err := s.GetConversation(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.AppendMessage(ctx, "missing", core.RoleUser, "x")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.Messages(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testListNewestFirst(t *testing.T, s core.ConversationStore) {
	ctx := context.Background()

	first, err := s.CreateConversation(ctx, "u")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, first.ID, core.RoleUser, strings.Repeat("é", core.TitleLimit+20))
	require.NoError(t, err)

	second, err := s.CreateConversation(ctx, "u")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, second.ID, core.RoleUser, "second")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, second.ID, core.RoleAssistant, "reply")
	require.NoError(t, err)

	empty, err := s.CreateConversation(ctx, "u")
	require.NoError(t, err)

	_, err = s.CreateConversation(ctx, "someone-else")
	require.NoError(t, err)

	list, err := s.ListConversations(ctx, "u")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{empty.ID, second.ID, first.ID}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, "New conversation", list[0].Title)
	assert.Equal(t, "second", list[1].Title)
	assert.Equal(t, strings.Repeat("é", core.TitleLimit), list[2].Title)

	none, err := s.ListConversations(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testWorkspaces(t *testing.T, s core.ConversationStore) {
	ctx := context.Background()

	a, err := s.CreateWorkspace(ctx, "u", "alpha")
	require.NoError(t, err)
	b, err := s.CreateWorkspace(ctx, "u", "beta")
	require.NoError(t, err)
	_, err = s.CreateWorkspace(ctx, "v", "gamma")
	require.NoError(t, err)

	list, err := s.ListWorkspaces(ctx, "u")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, b.ID, list[1].ID)
	assert.Equal(t, "u", list[1].UserID)

	none, err := s.ListWorkspaces(ctx, "w")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testConcurrentAppends(t *testing.T, s core.ConversationStore) {
	ctx := context.Background()
	c, err := s.CreateConversation(ctx, "u")
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AppendMessage(ctx, c.ID, core.RoleUser, "x")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	msgs, err := s.Messages(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, n)
}
