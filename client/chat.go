package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/justanuragmaurya/chat-app/core"
	"github.com/justanuragmaurya/chat-app/logging"
	"github.com/justanuragmaurya/chat-app/wire"
)

var (
	// ErrBusy is returned by Send while a reply is still streaming.
	ErrBusy = errors.New("a reply is still streaming")
	// ErrNotOpen is returned by Send before Open.
	ErrNotOpen = errors.New("chat is not open")
)

const defaultReadBufferSize = 4096

// ChatAPI is the part of the server API a Chat needs.
type ChatAPI interface {
	Chat(ctx context.Context, conversationID, message string) (io.ReadCloser, error)
	Messages(ctx context.Context, conversationID string) ([]core.Message, error)
}

// Update is a change a Chat reports to its observer.
type Update struct {
	// Status is the latest status message, empty once text arrived.
	Status string
	// Content is the revealed text of the open assistant turn.
	Content string
	// Done is set once the reply is fully revealed.
	Done bool
}

// ChatOptions configures a Chat.
type ChatOptions struct {
	TickInterval time.Duration
	// ReadBufferSize is the size of each read from the response body.
	ReadBufferSize int
	// OnUpdate observes status and reveal progress. It runs on the session
	// loops and must not block.
	OnUpdate func(Update)
	Logger   logging.Logger
}

// Chat drives one conversation: hydration, sends and their streamed replies.
type Chat struct {
	api            ChatAPI
	conversationID string
	transcript     *Transcript
	opts           ChatOptions
	logger         logging.Logger

	mu      sync.Mutex // serializes Open, Send and Close
	cancel  context.CancelFunc
	group   *errgroup.Group
	session atomic.Pointer[Session]
	sending atomic.Bool
}

// NewChat creates a chat for conversationID. An empty id is a one-off chat
// without persisted history.
func NewChat(api ChatAPI, conversationID string, optFns ...func(o *ChatOptions)) *Chat {
	opts := ChatOptions{
		TickInterval:   DefaultTickInterval,
		ReadBufferSize: defaultReadBufferSize,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.ReadBufferSize <= 0 {
		opts.ReadBufferSize = defaultReadBufferSize
	}
	return &Chat{
		api:            api,
		conversationID: conversationID,
		transcript:     NewTranscript(),
		opts:           opts,
		logger:         logging.OrNoOp(opts.Logger),
	}
}

// Transcript returns the conversation transcript.
func (c *Chat) Transcript() *Transcript { return c.transcript }

// Open hydrates the transcript from the server. When the last persisted turn
// is a user turn a reply is started before Open returns.
func (c *Chat) Open(ctx context.Context) error {
	var turns []core.Turn
	if c.conversationID != "" {
		msgs, err := c.api.Messages(ctx, c.conversationID)
		if err != nil {
			return fmt.Errorf("load conversation %s: %w", c.conversationID, err)
		}
		turns = core.PromptFromMessages(msgs).Turns
	}

	// Send must never see a hydrated transcript without its resumed reply.
	c.mu.Lock()
	needsReply, err := c.transcript.Hydrate(turns)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if needsReply {
		c.transcript.BeginReply()
		c.start(ctx, "")
	}
	c.mu.Unlock()

	c.logger.Debug("chat.hydrated", "conversation_id", c.conversationID, "turns", len(turns), "needs_reply", needsReply)
	return nil
}

// Send appends message and an empty assistant turn, then streams the reply.
// ctx bounds the whole reply, not just the call.
func (c *Chat) Send(ctx context.Context, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.transcript.Hydrated() {
		return ErrNotOpen
	}
	if c.sending.Load() {
		return ErrBusy
	}
	c.stopLocked()

	c.transcript.AppendExchange(message)
	c.start(ctx, message)
	return nil
}

// Sending reports whether a reply is streaming.
func (c *Chat) Sending() bool { return c.sending.Load() }

// Status returns the status slot of the current session.
func (c *Chat) Status() string {
	sess := c.session.Load()
	if sess == nil {
		return ""
	}
	return sess.Status()
}

// Wait blocks until the current reply is fully revealed and returns the
// stream failure, if any.
func (c *Chat) Wait() error {
	c.mu.Lock()
	g, sess := c.group, c.session.Load()
	c.mu.Unlock()
	if g == nil {
		return nil
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return sess.Err()
}

// Close cancels the current session and waits for its loops to exit.
func (c *Chat) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	return nil
}

// start launches the reader and scheduler loops of a new session. c.mu is held.
func (c *Chat) start(ctx context.Context, message string) {
	ctx, cancel := context.WithCancel(ctx)
	sess := NewSession()
	sched := NewScheduler(sess, c.transcript, func(o *SchedulerOptions) {
		o.Interval = c.opts.TickInterval
		o.OnReveal = func(content string) { c.notify(Update{Content: content}) }
		o.OnFinish = func() { c.notify(Update{Content: sess.Revealed(), Done: true}) }
	})

	c.session.Store(sess)
	c.sending.Store(true)

	g := &errgroup.Group{}
	g.Go(func() error { return c.read(ctx, sess, message) })
	g.Go(func() error {
		defer c.release(sess)
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	c.cancel, c.group = cancel, g
}

// stopLocked cancels the previous session and waits for it. c.mu is held.
func (c *Chat) stopLocked() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	_ = c.group.Wait()
	c.transcript.CloseTail()
	c.cancel = nil
	c.sending.Store(false)
}

// release clears the sending state once the scheduler of sess exits.
func (c *Chat) release(sess *Session) {
	if c.session.Load() == sess {
		c.sending.Store(false)
	}
}

// read feeds the response body through a Decoder into sess. It never waits
// on the scheduler.
func (c *Chat) read(ctx context.Context, sess *Session, message string) (err error) {
	defer func() { sess.Complete(err) }()

	body, err := c.api.Chat(ctx, c.conversationID, message)
	if err != nil {
		return fmt.Errorf("start reply: %w", err)
	}
	defer body.Close()

	dec := NewDecoder(c.logger)
	buf := make([]byte, c.opts.ReadBufferSize)
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			c.apply(sess, dec.Feed(buf[:n]))
		}
		if errors.Is(rerr, io.EOF) {
			c.apply(sess, dec.Flush())
			return nil
		}
		if rerr != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read reply: %w", rerr)
		}
	}
}

func (c *Chat) apply(sess *Session, events []wire.Event) {
	for _, ev := range events {
		switch ev.Type {
		case wire.TypeText:
			sess.AppendText(ev.Content)
		case wire.TypeStatus:
			if sess.SetStatus(ev.Message) {
				c.notify(Update{Status: ev.Message})
			}
		}
	}
}

func (c *Chat) notify(u Update) {
	if c.opts.OnUpdate != nil {
		c.opts.OnUpdate(u)
	}
}
