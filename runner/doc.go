// Package runner implements the orchestration layer between the HTTP surface
// and the agent.
//
// A Runner implements core.Engine: every Run call gets a fresh run id, a
// core.RunContext with its own model call budget, and a pair of channels
// carrying the agent's native events and its terminal error.
//
// # Responsibilities
//   - Asynchronous run orchestration with ordered event delivery
//   - Run lifecycle management & cancellation by id
//   - Bounding the number of concurrent runs
//   - Instruction template variables (the current date, static vars)
package runner
