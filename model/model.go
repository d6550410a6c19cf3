package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/justanuragmaurya/chat-app/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by agents.
type Request struct {
	Instructions string           `json:"instructions"`
	Contents     []core.Content   `json:"contents"` // Converted to provider messages in order
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
//
// Partial responses carry exactly one text fragment. The final response
// (Partial == false) carries the full assistant content: the complete text
// plus every function call, in order.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "scripted"
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
//
// Generate returns a response channel closed after the final response and an
// error channel carrying at most one error.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Send delivers r on out unless ctx is cancelled first.
func Send(ctx context.Context, out chan<- Response, r Response) bool {
	select {
	case out <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

// Turn is one scripted model reply: text streamed as the given fragments
// followed by optional function calls.
type Turn struct {
	Fragments []string
	Calls     []core.FunctionCall
	Err       error
}

// ScriptedModel is an in-memory Model replaying scripted turns, one per
// Generate call. Useful for tests and offline runs.
type ScriptedModel struct {
	info Info

	mu       sync.Mutex
	turns    []Turn
	requests []Request
}

// NewScriptedModel constructs a ScriptedModel with tool support enabled.
func NewScriptedModel(turns ...Turn) *ScriptedModel {
	return &ScriptedModel{
		info:  Info{Name: "scripted", Provider: "scripted", SupportsTools: true},
		turns: turns,
	}
}

// Requests returns the requests received so far.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Generate implements Model.
func (m *ScriptedModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	var (
		turn Turn
		ok   bool
	)
	if len(m.turns) > 0 {
		turn, m.turns, ok = m.turns[0], m.turns[1:], true
	}
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		if !ok {
			errCh <- fmt.Errorf("scripted model: no turn left for request %d", len(m.Requests()))
			return
		}

		var full string
		for _, f := range turn.Fragments {
			full += f
			if req.Stream && !Send(ctx, respCh, Response{Partial: true, Content: core.NewTextContent(core.RoleAssistant, f)}) {
				errCh <- ctx.Err()
				return
			}
		}
		if turn.Err != nil {
			errCh <- turn.Err
			return
		}

		content := core.Content{Role: core.RoleAssistant}
		if full != "" {
			content.Parts = append(content.Parts, core.TextPart{Text: full})
		}
		finish := "stop"
		for _, c := range turn.Calls {
			content.Parts = append(content.Parts, core.FunctionCallPart{FunctionCall: c})
			finish = "tool_calls"
		}
		if !Send(ctx, respCh, Response{Content: content, FinishReason: finish}) {
			errCh <- ctx.Err()
		}
	}()

	return respCh, errCh
}

// Info implements Model.
func (m *ScriptedModel) Info() Info { return m.info }
