package core

import "context"

// Engine starts agent runs and streams their native events.
//
// Semantics:
//   - Event Ordering: events are delivered in the order the agent produced them.
//   - Channel Lifecycle: the events channel is closed after the run completes
//     (success, error or cancellation). The error channel carries at most one
//     terminal error then closes (buffered size 1).
//   - Cancellation: cancelling ctx stops further emission.
type Engine interface {
	Run(ctx context.Context, prompt Prompt) (<-chan Event, <-chan error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, prompt Prompt) (<-chan Event, <-chan error)

// Run implements Engine.
func (f EngineFunc) Run(ctx context.Context, prompt Prompt) (<-chan Event, <-chan error) {
	return f(ctx, prompt)
}
