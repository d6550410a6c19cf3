package core

import (
	"context"
	"maps"

	"github.com/justanuragmaurya/chat-app/logging"
)

// RunContext carries execution state & helpers for one agent run.
// It aggregates:
//   - The ambient cancellation Context
//   - The run identifier and agent info
//   - The input Prompt
//   - The emission channel consumed by the Runner
//   - The model call limiter shared by the whole run
//   - Template variables available to instructions
//
// A RunContext belongs to a single run and is not safe for concurrent
// mutation of Vars.
type RunContext struct {
	Context context.Context
	RunID   string
	Agent   AgentInfo
	Prompt  Prompt
	Emit    chan<- Event
	Limiter *ModelLimiter
	Vars    map[string]any

	*loggerAdapter
}

// NewRunContext constructs a RunContext with an empty variable set.
func NewRunContext(
	ctx context.Context,
	runID string,
	agent AgentInfo,
	prompt Prompt,
	maxModelCalls int,
	emit chan<- Event,
	logger logging.Logger,
) *RunContext {
	return &RunContext{
		Context:       ctx,
		RunID:         runID,
		Agent:         agent,
		Prompt:        prompt,
		Emit:          emit,
		Limiter:       NewModelLimiter(maxModelCalls),
		Vars:          map[string]any{},
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// SetVar stages a template variable.
func (rc *RunContext) SetVar(k string, v any) { rc.Vars[k] = v }

// GetVar returns a template variable.
func (rc *RunContext) GetVar(k string) (any, bool) {
	v, ok := rc.Vars[k]
	return v, ok
}

// TemplateData returns a copy of the template variables.
func (rc *RunContext) TemplateData() map[string]any {
	out := make(map[string]any, len(rc.Vars)+1)
	maps.Copy(out, rc.Vars)
	out["agent"] = rc.Agent.Name
	return out
}

// EmitEvent hands ev to the Runner. It blocks until the Runner accepts the
// event or the run is cancelled.
func (rc *RunContext) EmitEvent(ev Event) error {
	select {
	case <-rc.Context.Done():
		return rc.Context.Err()
	case rc.Emit <- ev:
		return nil
	}
}

// NewToolContext derives the context handed to the tool answering callID.
func (rc *RunContext) NewToolContext(callID string) *ToolContext {
	return NewToolContext(rc.Context, rc.RunID, callID, rc.Logger())
}
