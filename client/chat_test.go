package client

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justanuragmaurya/chat-app/core"
	"github.com/justanuragmaurya/chat-app/internal/testutil"
	"github.com/justanuragmaurya/chat-app/logging"
	"github.com/justanuragmaurya/chat-app/server"
	"github.com/justanuragmaurya/chat-app/store/memory"
)

type updateLog struct {
	mu      sync.Mutex
	updates []Update
}

func (l *updateLog) add(u Update) {
	l.mu.Lock()
	l.updates = append(l.updates, u)
	l.mu.Unlock()
}

func (l *updateLog) statuses() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, u := range l.updates {
		if u.Status != "" {
			out = append(out, u.Status)
		}
	}
	return out
}

func (l *updateLog) last() Update {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.updates[len(l.updates)-1]
}

func fastChat(api ChatAPI, conversationID string, log *updateLog) *Chat {
	return NewChat(api, conversationID, func(o *ChatOptions) {
		o.TickInterval = time.Millisecond
		if log != nil {
			o.OnUpdate = log.add
		}
	})
}

func startServer(t *testing.T, engine core.Engine) (*API, *memory.Store) {
	t.Helper()
	st := memory.New()
	srv := httptest.NewServer(server.New(engine, st).Handler())
	t.Cleanup(srv.Close)
	return NewAPI(srv.URL), st
}

func TestChat_SendStreamsAndReveals(t *testing.T) {
	engine := testutil.NewScriptedEngine(testutil.NewEventBuilder().
		Search("weather NYC").
		Results("https://wx.com/a").
		Text("It's", " sunny.").
		Build()...)
	api, _ := startServer(t, engine)

	log := &updateLog{}
	chat := fastChat(api, "", log)
	require.NoError(t, chat.Open(context.Background()))
	require.NoError(t, chat.Send(context.Background(), "weather?"))
	require.NoError(t, chat.Wait())

	assert.False(t, chat.Sending())
	assert.Empty(t, chat.Status())
	assert.Equal(t, []core.Turn{
		{Role: core.RoleUser, Content: "weather?"},
		{Role: core.RoleAssistant, Content: "It's sunny."},
	}, chat.Transcript().Snapshot())
	assert.Equal(t, []string{"Searching: weather NYC", "Reading wx.com"}, log.statuses())
	assert.Equal(t, Update{Content: "It's sunny.", Done: true}, log.last())
	require.NoError(t, chat.Close())
}

func TestChat_ResumesTrailingUserTurn(t *testing.T) {
	engine := testutil.NewScriptedEngine(testutil.NewEventBuilder().Text("Hello", " again").Build()...)
	api, st := startServer(t, engine)
	ctx := context.Background()

	conv, err := st.CreateConversation(ctx, "u1")
	require.NoError(t, err)
	_, err = st.AppendMessage(ctx, conv.ID, core.RoleUser, "hello")
	require.NoError(t, err)

	chat := fastChat(api, conv.ID, nil)
	require.NoError(t, chat.Open(ctx))
	assert.True(t, chat.Sending(), "reply starts during hydration")
	require.NoError(t, chat.Wait())

	assert.Equal(t, []core.Turn{
		{Role: core.RoleUser, Content: "hello"},
		{Role: core.RoleAssistant, Content: "Hello again"},
	}, chat.Transcript().Snapshot())

	msgs, err := st.Messages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Hello again", msgs[1].Content)

	assert.ErrorIs(t, chat.Open(ctx), ErrAlreadyHydrated)
}

// hookLogger runs onDebug for every debug record.
type hookLogger struct {
	logging.NoOpLogger
	onDebug func(msg string)
}

func (l *hookLogger) Debug(msg string, _ ...any) { l.onDebug(msg) }

func TestChat_SendDuringHydrationIsBusy(t *testing.T) {
	api := &fakeAPI{
		body: `{"type":"text","content":"reply"}` + "\n",
		msgs: []core.Message{{Role: core.RoleUser, Content: "pending question"}},
		hang: true,
	}

	var (
		chat    *Chat
		sendErr error
	)
	logger := &hookLogger{onDebug: func(msg string) {
		if msg == "chat.hydrated" {
			sendErr = chat.Send(context.Background(), "user typed early")
		}
	}}
	chat = NewChat(api, "c", func(o *ChatOptions) {
		o.TickInterval = time.Millisecond
		o.Logger = logger
	})

	require.NoError(t, chat.Open(context.Background()))
	assert.ErrorIs(t, sendErr, ErrBusy)

	require.Eventually(t, func() bool {
		return chat.Transcript().Snapshot()[1].Content == "reply"
	}, 5*time.Second, time.Millisecond)
	require.NoError(t, chat.Close())

	assert.False(t, chat.Transcript().Open())
	assert.Equal(t, []core.Turn{
		{Role: core.RoleUser, Content: "pending question"},
		{Role: core.RoleAssistant, Content: "reply"},
	}, chat.Transcript().Snapshot())
	assert.Equal(t, 1, api.chatCalls())
}

func TestChat_ZeroReadBufferUsesDefault(t *testing.T) {
	api := &fakeAPI{body: `{"type":"text","content":"ok"}` + "\n"}
	chat := NewChat(api, "", func(o *ChatOptions) {
		o.TickInterval = time.Millisecond
		o.ReadBufferSize = 0
	})

	require.NoError(t, chat.Open(context.Background()))
	require.NoError(t, chat.Send(context.Background(), "q"))
	require.NoError(t, chat.Wait())
	assert.Equal(t, "ok", chat.Transcript().Snapshot()[1].Content)
}

func TestChat_HydratedConversationWaitsForSend(t *testing.T) {
	api := &fakeAPI{msgs: []core.Message{
		{Role: core.RoleUser, Content: "q"},
		{Role: core.RoleAssistant, Content: "a"},
	}}
	chat := fastChat(api, "c", nil)

	assert.ErrorIs(t, chat.Send(context.Background(), "x"), ErrNotOpen)
	require.NoError(t, chat.Open(context.Background()))
	assert.False(t, chat.Sending())
	assert.Zero(t, api.chatCalls())
	assert.Equal(t, 2, chat.Transcript().Len())
}

func TestChat_StatusSuppressedAfterText(t *testing.T) {
	api := &fakeAPI{body: `{"type":"status","message":"Searching: a"}` + "\n" +
		`{"type":"text","content":"A"}` + "\n" +
		`{"type":"status","message":"Searching: b"}` + "\n" +
		`{"type":"text","content":"B"}`}
	log := &updateLog{}
	chat := fastChat(api, "", log)

	require.NoError(t, chat.Open(context.Background()))
	require.NoError(t, chat.Send(context.Background(), "q"))
	require.NoError(t, chat.Wait())

	assert.Equal(t, []string{"Searching: a"}, log.statuses())
	assert.Empty(t, chat.Status())
	assert.Equal(t, "AB", chat.Transcript().Snapshot()[1].Content)
}

func TestChat_BusyUntilClosed(t *testing.T) {
	api := &fakeAPI{body: `{"type":"text","content":"partial"}` + "\n", hang: true}
	chat := fastChat(api, "", nil)
	ctx := context.Background()

	require.NoError(t, chat.Open(ctx))
	require.NoError(t, chat.Send(ctx, "q1"))
	assert.ErrorIs(t, chat.Send(ctx, "q2"), ErrBusy)

	require.Eventually(t, func() bool {
		return chat.Transcript().Snapshot()[1].Content == "partial"
	}, 5*time.Second, time.Millisecond)

	require.NoError(t, chat.Close())
	assert.False(t, chat.Sending())
	assert.False(t, chat.Transcript().Open())
	assert.Equal(t, 2, chat.Transcript().Len())

	api.hang = false
	require.NoError(t, chat.Send(ctx, "q2"))
	require.NoError(t, chat.Wait())
	assert.Equal(t, 4, chat.Transcript().Len())
}

func TestChat_StreamFailureEndsSession(t *testing.T) {
	boom := errors.New("connection refused")
	api := &fakeAPI{err: boom}
	chat := fastChat(api, "", nil)

	require.NoError(t, chat.Open(context.Background()))
	require.NoError(t, chat.Send(context.Background(), "q"))
	assert.ErrorIs(t, chat.Wait(), boom)
	assert.False(t, chat.Sending())
	assert.False(t, chat.Transcript().Open())
	assert.Empty(t, chat.Transcript().Snapshot()[1].Content)
}

type fakeAPI struct {
	body string
	hang bool
	err  error
	msgs []core.Message

	mu    sync.Mutex
	calls int
}

func (f *fakeAPI) Chat(ctx context.Context, _, _ string) (io.ReadCloser, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &ctxBody{ctx: ctx, r: strings.NewReader(f.body), hang: f.hang}, nil
}

func (f *fakeAPI) Messages(context.Context, string) ([]core.Message, error) {
	return f.msgs, nil
}

func (f *fakeAPI) chatCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// ctxBody serves r and then, with hang set, blocks until ctx is cancelled
// like a stalled HTTP response body.
type ctxBody struct {
	ctx  context.Context
	r    io.Reader
	hang bool
}

func (b *ctxBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if errors.Is(err, io.EOF) && b.hang {
		<-b.ctx.Done()
		return n, b.ctx.Err()
	}
	return n, err
}

func (b *ctxBody) Close() error { return nil }
