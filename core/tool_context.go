package core

import (
	"context"

	"github.com/justanuragmaurya/chat-app/logging"
)

// ToolContext is the surface handed to tool implementations for one call.
// It carries the run's context for cancellation plus correlation ids and a
// logger scoped to the call.
type ToolContext struct {
	ctx    context.Context
	runID  string
	callID string

	*loggerAdapter
}

// NewToolContext constructs a tool context for the call callID of run runID.
func NewToolContext(ctx context.Context, runID, callID string, logger logging.Logger) *ToolContext {
	return &ToolContext{
		ctx:           ctx,
		runID:         runID,
		callID:        callID,
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// RunID returns the run ID associated with the tool invocation.
func (tc *ToolContext) RunID() string { return tc.runID }

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.callID }
