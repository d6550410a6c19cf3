package core

// Agent is the processing unit driven by a Runner.
//
// Implementations must:
//   - Respect run context cancellation
//   - Emit native events through RunContext.EmitEvent, in production order
//   - Return the terminal error of the run, or nil on success
type Agent interface {
	Name() string
	Description() string
	Run(runCtx *RunContext) error
}

// AgentInfo carries identifying details about an agent used in run contexts.
type AgentInfo struct{ Name, Type string }
