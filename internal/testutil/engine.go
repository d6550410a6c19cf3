package testutil

import (
	"context"
	"sync"

	"github.com/justanuragmaurya/chat-app/core"
)

// ScriptedEngine is a core.Engine replaying a fixed event script.
//
// After the script it sends Err (if set) on the error channel. With Hang set
// it blocks after the script until the run context is cancelled, which
// simulates a long tool phase or a stalled upstream.
type ScriptedEngine struct {
	Events []core.Event
	Err    error
	Hang   bool

	mu      sync.Mutex
	prompts []core.Prompt
	sent    int
}

// NewScriptedEngine creates an engine replaying events.
func NewScriptedEngine(events ...core.Event) *ScriptedEngine {
	return &ScriptedEngine{Events: events}
}

// Run implements core.Engine.
func (e *ScriptedEngine) Run(ctx context.Context, prompt core.Prompt) (<-chan core.Event, <-chan error) {
	e.mu.Lock()
	e.prompts = append(e.prompts, prompt)
	e.mu.Unlock()

	events := make(chan core.Event)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(events)

		for _, ev := range e.Events {
			select {
			case events <- ev:
				e.mu.Lock()
				e.sent++
				e.mu.Unlock()
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if e.Hang {
			<-ctx.Done()
			errs <- ctx.Err()
			return
		}
		if e.Err != nil {
			errs <- e.Err
		}
	}()

	return events, errs
}

// Prompts returns the prompts the engine was run with.
func (e *ScriptedEngine) Prompts() []core.Prompt {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]core.Prompt(nil), e.prompts...)
}

// Sent returns the number of events delivered to consumers.
func (e *ScriptedEngine) Sent() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sent
}
