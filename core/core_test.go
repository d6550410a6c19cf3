package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justanuragmaurya/chat-app/logging"
)

func TestModelLimiter(t *testing.T) {
	l := NewModelLimiter(2)
	require.NoError(t, l.Increment())
	assert.Equal(t, 1, l.Remaining())
	require.NoError(t, l.Increment())

	err := l.Increment()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelCallLimit))
	assert.Equal(t, 2, l.Count(), "refused calls are not counted")
	assert.Zero(t, l.Remaining())
	assert.ErrorIs(t, l.Increment(), ErrModelCallLimit)
}

func TestModelLimiter_Unlimited(t *testing.T) {
	l := NewModelLimiter(0)
	for i := 0; i < 50; i++ {
		require.NoError(t, l.Increment())
	}
	assert.Equal(t, -1, l.Remaining())
}

func TestToolContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), struct{}{}, "x")
	tc := NewToolContext(ctx, "run-1", "call-1", nil)

	assert.Equal(t, ctx, tc.Context())
	assert.Equal(t, "run-1", tc.RunID())
	assert.Equal(t, "call-1", tc.FunctionCallID())
	assert.IsType(t, logging.NoOpLogger{}, tc.Logger())
}

func TestPrompt_Flatten(t *testing.T) {
	p := Prompt{Turns: []Turn{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "news?"},
	}}

	assert.Equal(t, "user: hi\nassistant: hello\nuser: news?", p.Flatten())
	assert.Len(t, p.Contents(), 3)
	assert.Equal(t, RoleAssistant, p.Contents()[1].Role)
	assert.Equal(t, "hello", p.Contents()[1].Text())
}

func TestPromptFromMessages_KeepsOrder(t *testing.T) {
	p := PromptFromMessages([]Message{
		{Role: RoleUser, Content: "1"},
		{Role: RoleAssistant, Content: "2"},
	})

	assert.Equal(t, []Turn{{RoleUser, "1"}, {RoleAssistant, "2"}}, p.Turns)
	assert.False(t, p.Empty())
	assert.True(t, Prompt{}.Empty())
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("assistant")
	require.NoError(t, err)
	assert.Equal(t, RoleAssistant, r)

	_, err = ParseRole("system")
	assert.Error(t, err)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "New conversation", Title(""))
	assert.Equal(t, "short", Title("short"))

	long := make([]rune, 150)
	for i := range long {
		long[i] = 'é'
	}
	assert.Len(t, []rune(Title(string(long))), TitleLimit)
}

func TestEngineFunc(t *testing.T) {
	var got Prompt
	e := EngineFunc(func(ctx context.Context, p Prompt) (<-chan Event, <-chan error) {
		got = p
		ch := make(chan Event)
		close(ch)
		errCh := make(chan error)
		close(errCh)
		return ch, errCh
	})

	events, errs := e.Run(context.Background(), NewPrompt("hi"))
	_, ok := <-events
	assert.False(t, ok)
	assert.NoError(t, <-errs)
	assert.Equal(t, "hi", got.Turns[0].Content)
}
