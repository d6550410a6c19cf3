// Package chatapp assembles the chat application: a web search agent driven
// by a language model, the runner executing it, a conversation store and the
// HTTP server streaming replies. Most applications interact with this
// package by:
//  1. Creating an App via New() with a model and a store
//  2. Serving it over HTTP (Server) or asking it directly (Ask)
//
// The App delegates execution to runner.Runner and persistence to a
// core.ConversationStore. Defaults are safe for local development; the
// cmd/chat-app binary builds them from configuration.
package chatapp

import (
	"context"
	"strings"
	"time"

	"github.com/justanuragmaurya/chat-app/agent"
	"github.com/justanuragmaurya/chat-app/core"
	"github.com/justanuragmaurya/chat-app/logging"
	"github.com/justanuragmaurya/chat-app/model"
	"github.com/justanuragmaurya/chat-app/runner"
	"github.com/justanuragmaurya/chat-app/server"
	"github.com/justanuragmaurya/chat-app/store/memory"
	"github.com/justanuragmaurya/chat-app/tool/websearch"
)

// AgentName is the name of the chat agent.
const AgentName = "chat"

// DefaultInstruction is the system instruction of the chat agent. It is a
// template; {{.date}} is the current day.
const DefaultInstruction = `You are a chat agent with a web search tool that browses the internet to fetch real world data and answer the user's questions.
Always request at least 10 results from the tool where possible and search at least one month of context.
Today is {{.date}}.`

// Options configures the App.
type Options struct {
	// Store persists conversations (defaults to an in-memory store).
	Store core.ConversationStore

	// SearchAPIKey authenticates the web search tool. Without a key the tool
	// is still offered and reports the search failure to the model.
	SearchAPIKey   string
	SearchEndpoint string

	// Instruction overrides DefaultInstruction.
	Instruction string

	// MaxModelCalls bounds the model/tool loop of one run.
	MaxModelCalls int
	// MaxConcurrentRuns bounds concurrent runs; 0 is unlimited.
	MaxConcurrentRuns int
	// MaxHistoryMessages keeps only the latest turns of long conversations.
	MaxHistoryMessages int
	ToolTimeout        time.Duration

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// App aggregates the agent, its runner and the store.
type App struct {
	opts   Options
	agent  *agent.ModelAgent
	runner *runner.Runner
}

// New creates an App answering with llm.
func New(llm model.Model, optFns ...func(o *Options)) (*App, error) {
	opts := Options{
		Instruction:       DefaultInstruction,
		MaxModelCalls:     10,
		MaxConcurrentRuns: 10,
		ToolTimeout:       30 * time.Second,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Store == nil {
		opts.Store = memory.New()
	}
	if opts.Instruction == "" {
		opts.Instruction = DefaultInstruction
	}
	logger := logging.OrNoOp(opts.Logger)

	search, err := websearch.New(func(o *websearch.Options) {
		o.APIKey = opts.SearchAPIKey
		if opts.SearchEndpoint != "" {
			o.Endpoint = opts.SearchEndpoint
		}
	})
	if err != nil {
		return nil, err
	}

	a := agent.NewModelAgent(AgentName, llm, func(o *agent.ModelAgentOptions) {
		o.Description = "Answers questions using live web search."
		o.Instruction = agent.NewInstructionFromTemplate(opts.Instruction)
		o.ToolTimeout = opts.ToolTimeout
		o.MaxHistoryMessages = opts.MaxHistoryMessages
	})
	a.RegisterTool(search)

	r := runner.New(a, func(o *runner.Options) {
		o.MaxModelCalls = opts.MaxModelCalls
		o.MaxConcurrentRuns = opts.MaxConcurrentRuns
		o.Logger = logger
	})

	return &App{opts: opts, agent: a, runner: r}, nil
}

// Agent returns the chat agent.
func (a *App) Agent() *agent.ModelAgent { return a.agent }

// Runner returns the engine executing the agent.
func (a *App) Runner() *runner.Runner { return a.runner }

// Store returns the conversation store.
func (a *App) Store() core.ConversationStore { return a.opts.Store }

// Server creates the HTTP server streaming replies of this App.
func (a *App) Server(optFns ...func(o *server.Options)) *server.Server {
	fns := append([]func(o *server.Options){func(o *server.Options) { o.Logger = a.opts.Logger }}, optFns...)
	return server.New(a.runner, a.opts.Store, fns...)
}

// Ask runs the agent synchronously, draining the event stream, and returns
// the answer text with every event observed.
func (a *App) Ask(ctx context.Context, prompt core.Prompt) (string, []core.Event, error) {
	eventsCh, errorsCh := a.runner.Run(ctx, prompt)

	var (
		text   strings.Builder
		events []core.Event
	)
	for ev := range eventsCh {
		events = append(events, ev)
		if d, ok := ev.(core.TextDeltaEvent); ok {
			text.WriteString(d.Delta)
		}
	}
	return text.String(), events, <-errorsCh
}

// Close releases the store.
func (a *App) Close() error { return a.opts.Store.Close() }
