// Package agent contains the model-centric conversational agent.
//
// A ModelAgent resolves its instruction, sends the conversation prompt to a
// model.Model and streams the reply as native core events. When the model
// requests tools the agent executes them, feeds the results back and calls
// the model again, bounded by the run's model call limiter.
//
// Execution Model:
//   - Run receives a *core.RunContext owned by the runner
//   - Every event goes through RunContext.EmitEvent, which blocks until the
//     runner accepts it, so a slow consumer throttles generation
//   - Tool failures are reported to the model, not to the caller
package agent
