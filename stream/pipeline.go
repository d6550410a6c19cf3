// Package stream turns an agent run into a line-delimited wire stream.
//
// A Pipeline consumes the native events of one run sequentially, normalizes
// each into zero or more wire events and writes them immediately. Writes block
// under transport backpressure and the next native event is not pulled until
// the previous write returned. When the run ends, for any reason, the text
// that was emitted is persisted once as the assistant turn.
package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/justanuragmaurya/chat-app/core"
	"github.com/justanuragmaurya/chat-app/logging"
	"github.com/justanuragmaurya/chat-app/wire"
)

// MessageAppender persists one conversation turn.
type MessageAppender interface {
	AppendMessage(ctx context.Context, conversationID string, role core.Role, content string) (core.Message, error)
}

// Request describes one streamed response.
type Request struct {
	// ConversationID tags the persisted assistant turn. Empty disables
	// persistence.
	ConversationID string
	Prompt         core.Prompt
}

// Result summarizes a finished stream.
type Result struct {
	// Text is the concatenation of every emitted text event.
	Text string
	// Events is the number of wire events written.
	Events int
	// Persisted reports whether an assistant turn was stored.
	Persisted bool
	// WriteErr is the transport failure that ended the stream, if any.
	WriteErr error
	// RunErr is the terminal agent error, if any. It stays nil when the
	// caller's context ended the run.
	RunErr error
	// Aborted reports that the caller's context was done before the run
	// finished, as when the client disconnects.
	Aborted  bool
	Duration time.Duration
}

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	Normalizer *Normalizer
	Logger     logging.Logger
	// PersistEmpty stores an assistant turn even when no text was emitted.
	PersistEmpty bool
}

// Pipeline streams agent runs to writers. It is safe for concurrent use; every
// Run call owns its own state.
type Pipeline struct {
	engine       core.Engine
	messages     MessageAppender
	normalizer   *Normalizer
	logger       logging.Logger
	persistEmpty bool
}

// NewPipeline creates a pipeline running prompts on engine and persisting
// answers through messages (which may be nil).
func NewPipeline(engine core.Engine, messages MessageAppender, optFns ...func(o *PipelineOptions)) *Pipeline {
	opts := PipelineOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Normalizer == nil {
		opts.Normalizer = NewNormalizer(func(o *NormalizerOptions) { o.Logger = opts.Logger })
	}

	return &Pipeline{
		engine:       engine,
		messages:     messages,
		normalizer:   opts.Normalizer,
		logger:       logging.OrNoOp(opts.Logger),
		persistEmpty: opts.PersistEmpty,
	}
}

// Run executes req and writes its wire events to w until the run ends or a
// write fails. Errors never escape: they are logged and reported in Result.
func (p *Pipeline) Run(ctx context.Context, w io.Writer, req Request) Result {
	start := time.Now()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := &run{
		pipeline: p,
		req:      req,
		enc:      wire.NewEncoder(w),
		// Persistence outlives a dropped client connection.
		persistCtx: context.WithoutCancel(ctx),
	}

	events, errs := p.engine.Run(runCtx, req.Prompt)

	for ev := range events {
		if s.writeErr != nil {
			continue // draining after cancellation
		}
		for _, we := range p.normalizer.Normalize(ev) {
			if err := s.enc.Encode(we); err != nil {
				s.writeErr = err
				p.logger.Warn("stream.write_failed", "conversation_id", req.ConversationID, "error", err.Error())
				cancel()
				s.finalize()
				break
			}
			if we.IsText() {
				s.text.WriteString(we.Content)
			}
		}
	}

	switch err := <-errs; {
	case err == nil:
	case s.writeErr != nil && errors.Is(err, context.Canceled):
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		s.aborted = true
		p.logger.Info("stream.client_aborted", "conversation_id", req.ConversationID, "reason", ctx.Err().Error())
	default:
		s.runErr = err
		p.logger.Error("stream.run_failed", "conversation_id", req.ConversationID, "error", err.Error())
	}

	s.finalize()

	res := Result{
		Text:      s.text.String(),
		Events:    s.enc.Written(),
		Persisted: s.persisted,
		WriteErr:  s.writeErr,
		RunErr:    s.runErr,
		Aborted:   s.aborted,
		Duration:  time.Since(start),
	}
	if cl, ok := p.logger.(*logging.ChatLogger); ok {
		cl.WithConversation(req.ConversationID).LogStream(res.Events, len(res.Text), res.Duration, errors.Join(res.WriteErr, res.RunErr))
	} else {
		p.logger.Info("stream.completed",
			"conversation_id", req.ConversationID,
			"wire_events", res.Events,
			"text_bytes", len(res.Text),
			"persisted", res.Persisted,
			"duration", res.Duration,
		)
	}

	return res
}

// run is the state of one Pipeline.Run call.
type run struct {
	pipeline   *Pipeline
	req        Request
	enc        *wire.Encoder
	persistCtx context.Context

	text      strings.Builder
	writeErr  error
	runErr    error
	aborted   bool
	persisted bool
	once      sync.Once
}

// finalize persists the accumulated text. Only the first call has an effect.
func (s *run) finalize() {
	s.once.Do(func() {
		p := s.pipeline
		if p.messages == nil || s.req.ConversationID == "" {
			return
		}
		text := s.text.String()
		if text == "" && !p.persistEmpty {
			p.logger.Debug("stream.persist.skipped_empty", "conversation_id", s.req.ConversationID)
			return
		}
		if _, err := p.messages.AppendMessage(s.persistCtx, s.req.ConversationID, core.RoleAssistant, text); err != nil {
			p.logger.Error("stream.persist_failed", "conversation_id", s.req.ConversationID, "error", err.Error())
			return
		}
		s.persisted = true
	})
}
