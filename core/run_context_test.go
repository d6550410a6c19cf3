package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunContextForTest(ctx context.Context, buf int) (*RunContext, chan Event) {
	emitCh := make(chan Event, buf)
	rc := NewRunContext(ctx, "run-1", AgentInfo{Name: "chat", Type: "model"}, NewPrompt("hi"), 3, emitCh, nil)
	return rc, emitCh
}

func TestRunContext_EmitEvent(t *testing.T) {
	rc, emitCh := newRunContextForTest(context.Background(), 1)

	require.NoError(t, rc.EmitEvent(TextDeltaEvent{Delta: "x"}))
	assert.Equal(t, TextDeltaEvent{Delta: "x"}, <-emitCh)
}

func TestRunContext_EmitEventCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rc, _ := newRunContextForTest(ctx, 0)
	cancel()

	err := rc.EmitEvent(TextDeltaEvent{Delta: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, rc.Err(), context.Canceled)
}

func TestRunContext_Vars(t *testing.T) {
	rc, _ := newRunContextForTest(context.Background(), 0)
	rc.SetVar("date", "2026-01-02")

	v, ok := rc.GetVar("date")
	assert.True(t, ok)
	assert.Equal(t, "2026-01-02", v)

	data := rc.TemplateData()
	assert.Equal(t, "chat", data["agent"])
	data["date"] = "changed"
	v, _ = rc.GetVar("date")
	assert.Equal(t, "2026-01-02", v)
}

func TestRunContext_Limiter(t *testing.T) {
	rc, _ := newRunContextForTest(context.Background(), 0)
	for i := 0; i < 3; i++ {
		require.NoError(t, rc.Limiter.Increment())
	}
	assert.ErrorIs(t, rc.Limiter.Increment(), ErrModelCallLimit)
}

func TestRunContext_NewToolContext(t *testing.T) {
	rc, _ := newRunContextForTest(context.Background(), 0)
	tc := rc.NewToolContext("call_1")
	assert.Equal(t, "run-1", tc.RunID())
	assert.Equal(t, "call_1", tc.FunctionCallID())
	assert.NotNil(t, tc.Logger())
}
