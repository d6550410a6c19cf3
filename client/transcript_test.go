package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justanuragmaurya/chat-app/core"
)

func TestTranscript_HydrateOnce(t *testing.T) {
	tr := NewTranscript()
	assert.False(t, tr.Hydrated())

	needsReply, err := tr.Hydrate([]core.Turn{
		{Role: core.RoleUser, Content: "q1"},
		{Role: core.RoleAssistant, Content: "a1"},
	})
	require.NoError(t, err)
	assert.False(t, needsReply)
	assert.True(t, tr.Hydrated())

	_, err = tr.Hydrate([]core.Turn{{Role: core.RoleUser, Content: "again"}})
	assert.ErrorIs(t, err, ErrAlreadyHydrated)
	assert.Equal(t, 2, tr.Len())
}

func TestTranscript_HydrateTrailingUserTurnNeedsReply(t *testing.T) {
	tr := NewTranscript()
	needsReply, err := tr.Hydrate([]core.Turn{{Role: core.RoleUser, Content: "q"}})
	require.NoError(t, err)
	assert.True(t, needsReply)

	empty := NewTranscript()
	needsReply, err = empty.Hydrate(nil)
	require.NoError(t, err)
	assert.False(t, needsReply)
}

func TestTranscript_TailMutation(t *testing.T) {
	tr := NewTranscript()
	_, err := tr.Hydrate([]core.Turn{{Role: core.RoleUser, Content: "q1"}, {Role: core.RoleAssistant, Content: "a1"}})
	require.NoError(t, err)

	assert.False(t, tr.ReplaceTail("nope"), "no open turn")

	tr.AppendExchange("q2")
	assert.True(t, tr.Open())
	assert.True(t, tr.ReplaceTail("a"))
	assert.True(t, tr.ReplaceTail("a2"))
	tr.CloseTail()
	assert.False(t, tr.ReplaceTail("late"))

	assert.Equal(t, []core.Turn{
		{Role: core.RoleUser, Content: "q1"},
		{Role: core.RoleAssistant, Content: "a1"},
		{Role: core.RoleUser, Content: "q2"},
		{Role: core.RoleAssistant, Content: "a2"},
	}, tr.Snapshot())
}

func TestTranscript_BeginReply(t *testing.T) {
	tr := NewTranscript()
	_, err := tr.Hydrate([]core.Turn{{Role: core.RoleUser, Content: "q"}})
	require.NoError(t, err)

	tr.BeginReply()
	tr.ReplaceTail("answer")

	snap := tr.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, core.Turn{Role: core.RoleAssistant, Content: "answer"}, snap[1])

	snap[1].Content = "mutated"
	assert.Equal(t, "answer", tr.Snapshot()[1].Content)
}
