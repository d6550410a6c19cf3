package stream

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justanuragmaurya/chat-app/core"
	"github.com/justanuragmaurya/chat-app/internal/testutil"
	"github.com/justanuragmaurya/chat-app/wire"
)

func parseLines(t *testing.T, body string) []wire.Event {
	t.Helper()
	var out []wire.Event
	for _, line := range strings.Split(strings.TrimSuffix(body, "\n"), "\n") {
		if line == "" {
			continue
		}
		ev, err := wire.Parse([]byte(line))
		require.NoError(t, err, line)
		out = append(out, ev)
	}
	return out
}

func TestPipeline_Scenario(t *testing.T) {
	engine := testutil.NewScriptedEngine(testutil.NewEventBuilder().
		Started("run-1").
		Search("weather NYC").
		Results("https://wx.com/a").
		Text("It's", " sunny.").
		Completed("It's sunny.").
		Build()...)
	rec := &testutil.MessageRecorder{}
	p := NewPipeline(engine, rec)

	var out bytes.Buffer
	res := p.Run(context.Background(), &out, Request{ConversationID: "conv-1", Prompt: core.NewPrompt("weather?")})

	assert.Equal(t, []wire.Event{
		wire.Status("Searching: weather NYC"),
		wire.Status("Reading wx.com"),
		wire.Text("It's"),
		wire.Text(" sunny."),
	}, parseLines(t, out.String()))

	assert.Equal(t, "It's sunny.", res.Text)
	assert.Equal(t, 4, res.Events)
	assert.True(t, res.Persisted)
	assert.NoError(t, res.RunErr)
	assert.NoError(t, res.WriteErr)

	msgs := rec.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "conv-1", msgs[0].ConversationID)
	assert.Equal(t, core.RoleAssistant, msgs[0].Role)
	assert.Equal(t, "It's sunny.", msgs[0].Content)

	require.Len(t, engine.Prompts(), 1)
	assert.Equal(t, "weather?", engine.Prompts()[0].Turns[0].Content)
}

func TestPipeline_PartialPersistenceOnRunError(t *testing.T) {
	engine := testutil.NewScriptedEngine(testutil.NewEventBuilder().Text("Hel", "lo").Build()...)
	engine.Err = errors.New("upstream exploded")
	rec := &testutil.MessageRecorder{}

	var out bytes.Buffer
	res := NewPipeline(engine, rec).Run(context.Background(), &out, Request{ConversationID: "c", Prompt: core.NewPrompt("hi")})

	require.Error(t, res.RunErr)
	assert.False(t, res.Aborted)
	assert.Equal(t, "Hello", res.Text)
	require.Len(t, rec.Messages(), 1)
	assert.Equal(t, "Hello", rec.Messages()[0].Content)

	// No error event reaches the wire.
	for _, ev := range parseLines(t, out.String()) {
		assert.True(t, ev.IsText())
	}
}

// failingWriter accepts n writes then fails every later one.
type failingWriter struct {
	mu     sync.Mutex
	n      int
	writes []string
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.writes) >= w.n {
		return 0, errors.New("client went away")
	}
	w.writes = append(w.writes, string(p))
	return len(p), nil
}

func TestPipeline_WriteFailureFinalizesOnce(t *testing.T) {
	engine := testutil.NewScriptedEngine(testutil.NewEventBuilder().Text("a", "b", "c").Build()...)
	engine.Hang = true
	rec := &testutil.MessageRecorder{}
	w := &failingWriter{n: 1}

	res := NewPipeline(engine, rec).Run(context.Background(), w, Request{ConversationID: "c", Prompt: core.NewPrompt("hi")})

	require.Error(t, res.WriteErr)
	assert.NoError(t, res.RunErr, "cancellation after a write failure is not a run failure")
	assert.Equal(t, 1, res.Events)
	// Only text the client received is kept.
	assert.Equal(t, "a", res.Text)

	msgs := rec.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "a", msgs[0].Content)
	assert.LessOrEqual(t, engine.Sent(), 3)
}

func TestPipeline_ClientAbortPersistsWithDetachedContext(t *testing.T) {
	engine := testutil.NewScriptedEngine(testutil.NewEventBuilder().Text("partial").Build()...)
	engine.Hang = true
	rec := &testutil.MessageRecorder{}

	ctx, cancel := context.WithCancel(context.Background())
	w := &notifyWriter{onWrite: cancel}

	res := NewPipeline(engine, rec).Run(ctx, w, Request{ConversationID: "c", Prompt: core.NewPrompt("hi")})

	assert.NoError(t, res.RunErr, "a client abort is not a run failure")
	assert.True(t, res.Aborted)
	require.Len(t, rec.Messages(), 1)
	assert.Equal(t, "partial", rec.Messages()[0].Content)
	assert.Equal(t, []error{nil}, rec.ContextErrs())
}

type notifyWriter struct {
	bytes.Buffer
	onWrite func()
}

func (w *notifyWriter) Write(p []byte) (int, error) {
	n, err := w.Buffer.Write(p)
	w.onWrite()
	return n, err
}

func TestPipeline_EmptyAnswerNotPersisted(t *testing.T) {
	engine := testutil.NewScriptedEngine(testutil.NewEventBuilder().Search("x").Build()...)
	rec := &testutil.MessageRecorder{}

	var out bytes.Buffer
	res := NewPipeline(engine, rec).Run(context.Background(), &out, Request{ConversationID: "c"})
	assert.False(t, res.Persisted)
	assert.Empty(t, rec.Messages())

	res = NewPipeline(engine, rec, func(o *PipelineOptions) { o.PersistEmpty = true }).
		Run(context.Background(), &out, Request{ConversationID: "c"})
	assert.True(t, res.Persisted)
	require.Len(t, rec.Messages(), 1)
	assert.Empty(t, rec.Messages()[0].Content)
}

func TestPipeline_PersistFailureIsLoggedOnly(t *testing.T) {
	engine := testutil.NewScriptedEngine(testutil.NewEventBuilder().Text("x").Build()...)
	rec := &testutil.MessageRecorder{Err: errors.New("db down")}

	var out bytes.Buffer
	res := NewPipeline(engine, rec).Run(context.Background(), &out, Request{ConversationID: "c"})

	assert.False(t, res.Persisted)
	assert.Equal(t, "x", res.Text)
	assert.Equal(t, `{"type":"text","content":"x"}`+"\n", out.String())
}

func TestPipeline_NoConversationSkipsPersistence(t *testing.T) {
	engine := testutil.NewScriptedEngine(testutil.NewEventBuilder().Text("x").Build()...)
	rec := &testutil.MessageRecorder{}

	var out bytes.Buffer
	res := NewPipeline(engine, rec).Run(context.Background(), &out, Request{Prompt: core.NewPrompt("hi")})

	assert.False(t, res.Persisted)
	assert.Empty(t, rec.Messages())
}

// blockingWriter holds every write until released, recording what the engine
// had delivered at that moment.
type blockingWriter struct {
	release chan struct{}
	engine  *testutil.ScriptedEngine
	seen    []int
}

func (w *blockingWriter) Write(p []byte) (int, error) {
	w.seen = append(w.seen, w.engine.Sent())
	<-w.release
	return len(p), nil
}

func TestPipeline_BackpressureThrottlesEngine(t *testing.T) {
	engine := testutil.NewScriptedEngine(testutil.NewEventBuilder().Text("1", "2", "3", "4").Build()...)
	w := &blockingWriter{release: make(chan struct{}), engine: engine}

	done := make(chan Result)
	go func() {
		done <- NewPipeline(engine, nil).Run(context.Background(), w, Request{})
	}()

	for i := 0; i < 4; i++ {
		w.release <- struct{}{}
	}
	res := <-done

	assert.Equal(t, "1234", res.Text)
	// While write i was blocked the engine had handed over at most i+1 events
	// and, with an unbuffered channel, at most one more could be in flight.
	for i, sent := range w.seen {
		assert.LessOrEqual(t, sent, i+2)
	}
}
