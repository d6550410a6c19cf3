package agent

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"github.com/justanuragmaurya/chat-app/core"
	"github.com/justanuragmaurya/chat-app/logging"
	"github.com/justanuragmaurya/chat-app/model"
	"github.com/justanuragmaurya/chat-app/tool"
)

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	Description           string
	Instruction           Instruction
	EnableStreaming       bool
	EnableFunctionCalling bool
	ToolTimeout           time.Duration
	// MaxHistoryMessages keeps only the most recent prompt turns; 0 keeps all.
	MaxHistoryMessages int
	Tools              map[string]tool.Tool
}

// ModelAgent drives a language model over a conversation prompt, executing
// the tools the model calls until it produces a message without tool calls.
//
// Events emitted per model turn, in order:
//   - TextDeltaEvent for every streamed fragment (or once with the full text
//     when streaming is disabled)
//   - MessageCompletedEvent with the full text, when the turn produced text
//   - ToolCalledEvent followed by ToolOutputEvent for each requested call
type ModelAgent struct {
	name                  string
	description           string
	llm                   model.Model
	instruction           Instruction
	tools                 map[string]tool.Tool
	enableFunctionCalling bool
	enableStreaming       bool
	toolTimeout           time.Duration
	maxHistoryMessages    int
}

// NewModelAgent creates a new model-based agent with sensible defaults:
// streaming and function calling enabled and a 30 second tool timeout.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instruction:           NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		EnableStreaming:       true,
		EnableFunctionCalling: true,
		ToolTimeout:           30 * time.Second,
		Tools:                 make(map[string]tool.Tool),
	}

	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Tools == nil {
		opts.Tools = make(map[string]tool.Tool)
	}

	return &ModelAgent{
		name:                  name,
		description:           opts.Description,
		llm:                   llm,
		instruction:           opts.Instruction,
		tools:                 opts.Tools,
		enableFunctionCalling: opts.EnableFunctionCalling,
		enableStreaming:       opts.EnableStreaming,
		toolTimeout:           opts.ToolTimeout,
		maxHistoryMessages:    opts.MaxHistoryMessages,
	}
}

// Name implements core.Agent.
func (a *ModelAgent) Name() string { return a.name }

// Description implements core.Agent.
func (a *ModelAgent) Description() string { return a.description }

// RegisterTool adds a tool to the agent's capability set.
func (a *ModelAgent) RegisterTool(t tool.Tool) {
	a.tools[t.Name()] = t
}

// RegisterTools adds multiple tools to the agent's capability set.
func (a *ModelAgent) RegisterTools(tools ...tool.Tool) {
	for _, t := range tools {
		a.RegisterTool(t)
	}
}

// HasTool checks if a tool is registered with the agent.
func (a *ModelAgent) HasTool(name string) bool {
	_, exists := a.tools[name]
	return exists
}

// ListTools returns the names of all registered tools, sorted.
func (a *ModelAgent) ListTools() []string {
	names := make([]string, 0, len(a.tools))
	for name := range a.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run implements core.Agent.
func (a *ModelAgent) Run(runCtx *core.RunContext) error {
	runCtx.Logger().Debug("agent.run.start", "agent", a.name, "run", runCtx.RunID)

	instructions, err := a.instruction.Resolve(runCtx)
	if err != nil {
		return fmt.Errorf("resolve instruction: %w", err)
	}

	contents := a.history(runCtx.Prompt)
	tools := a.toolDefinitions()

	for {
		if err := runCtx.Limiter.Increment(); err != nil {
			return err
		}

		final, err := a.generate(runCtx, model.Request{
			Instructions: instructions,
			Contents:     contents,
			Tools:        tools,
			Stream:       a.enableStreaming,
		})
		if err != nil {
			return err
		}

		calls := final.FunctionCalls()
		if len(calls) == 0 || !a.enableFunctionCalling {
			runCtx.Logger().Debug("agent.run.complete", "agent", a.name, "model_calls", runCtx.Limiter.Count())
			return nil
		}

		contents = append(contents, final)
		responses, err := a.executeTools(runCtx, calls)
		if err != nil {
			return err
		}
		contents = append(contents, core.Content{Role: core.RoleTool, Parts: responses})
	}
}

// history converts the prompt to model contents, keeping the most recent
// turns when a history limit is configured.
func (a *ModelAgent) history(p core.Prompt) []core.Content {
	contents := p.Contents()
	if a.maxHistoryMessages > 0 && len(contents) > a.maxHistoryMessages {
		contents = contents[len(contents)-a.maxHistoryMessages:]
	}
	return contents
}

func (a *ModelAgent) toolDefinitions() []model.ToolDefinition {
	if !a.enableFunctionCalling || len(a.tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, 0, len(a.tools))
	for _, name := range a.ListTools() {
		t := a.tools[name]
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// generate performs one model call, emitting text events as they arrive,
// and returns the final assistant content.
func (a *ModelAgent) generate(runCtx *core.RunContext, req model.Request) (core.Content, error) {
	start := time.Now()
	respCh, errCh := a.llm.Generate(runCtx.Context, req)

	var (
		final    core.Content
		gotFinal bool
		streamed bool
	)
	for resp := range respCh {
		if resp.Partial {
			delta := resp.Content.Text()
			if delta == "" {
				continue
			}
			streamed = true
			if err := runCtx.EmitEvent(core.TextDeltaEvent{Delta: delta}); err != nil {
				return core.Content{}, err
			}
			continue
		}
		final, gotFinal = resp.Content, true
	}
	err := <-errCh
	if cl, ok := runCtx.Logger().(*logging.ChatLogger); ok {
		cl.LogLLMCall(a.llm.Info().Name, time.Since(start), err)
	}
	if err != nil {
		runCtx.Logger().Error("agent.model.error", "agent", a.name, "error", err.Error())
		return core.Content{}, fmt.Errorf("model call failed: %w", err)
	}
	if !gotFinal {
		return core.Content{}, fmt.Errorf("model returned no final response")
	}

	runCtx.Logger().Debug(
		"agent.model.complete",
		"agent", a.name,
		"provider", a.llm.Info().Provider,
		"duration_ms", time.Since(start).Milliseconds(),
		"fn_calls", len(final.FunctionCalls()),
	)

	text := final.Text()
	if text == "" {
		return final, nil
	}
	if !streamed {
		if err := runCtx.EmitEvent(core.TextDeltaEvent{Delta: text}); err != nil {
			return core.Content{}, err
		}
	}
	if err := runCtx.EmitEvent(core.MessageCompletedEvent{Text: text}); err != nil {
		return core.Content{}, err
	}
	return final, nil
}

// executeTools runs the requested calls in order. Tool failures become
// function responses carrying the error; only cancellation aborts the run.
func (a *ModelAgent) executeTools(runCtx *core.RunContext, calls []core.FunctionCall) ([]core.Part, error) {
	parts := make([]core.Part, 0, len(calls))
	for _, fc := range calls {
		if err := runCtx.EmitEvent(core.ToolCalledEvent{CallID: fc.ID, Name: fc.Name, Arguments: fc.Arguments}); err != nil {
			return nil, err
		}

		start := time.Now()
		result, err := a.executeTool(runCtx, fc)
		dur := time.Since(start)
		if ctxErr := runCtx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		if cl, ok := runCtx.Logger().(*logging.ChatLogger); ok {
			cl.LogToolCall(fc.Name, dur, err)
		} else {
			runCtx.Logger().Info(
				"agent.tool.executed",
				"agent", a.name,
				"tool", fc.Name,
				"duration_ms", dur.Milliseconds(),
				"error", err != nil,
			)
		}

		resp := core.FunctionResponse{ID: fc.ID, Name: fc.Name}
		if err != nil {
			resp.Error = err.Error()
			resp.Output = "Error: " + err.Error()
		} else {
			resp.Output = tool.FormatResult(result)
		}

		if err := runCtx.EmitEvent(core.ToolOutputEvent{CallID: fc.ID, Name: fc.Name, Output: resp.Output}); err != nil {
			return nil, err
		}
		parts = append(parts, core.FunctionResponsePart{FunctionResponse: resp})
	}
	return parts, nil
}

// executeTool looks up and invokes one tool under the configured timeout,
// converting panics to errors.
func (a *ModelAgent) executeTool(runCtx *core.RunContext, fc core.FunctionCall) (result any, err error) {
	impl, ok := a.tools[fc.Name]
	if !ok {
		return nil, fmt.Errorf("tool %s not found", fc.Name)
	}

	args, err := tool.DecodeArguments(fc.Name, fc.Arguments)
	if err != nil {
		return nil, err
	}

	ctx := runCtx.Context
	if a.toolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.toolTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			runCtx.Logger().Error("agent.tool.panic", "agent", a.name, "tool", fc.Name, "recover", r, "stack", string(debug.Stack()))
			result, err = nil, fmt.Errorf("tool %s panicked: %v", fc.Name, r)
		}
	}()

	return impl.Call(core.NewToolContext(ctx, runCtx.RunID, fc.ID, runCtx.Logger()), args)
}
