package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/justanuragmaurya/chat-app/core"
	"github.com/justanuragmaurya/chat-app/logging"
)

// ErrRunNotFound is returned by Cancel for unknown or finished runs.
var ErrRunNotFound = errors.New("run not found")

// Options holds configuration overrides passed to New().
type Options struct {
	// MaxConcurrentRuns limits concurrent agent runs; further runs wait for
	// a slot. 0 means unlimited.
	MaxConcurrentRuns int
	// EventBufferSize sets channel buffering for events. The default of 0
	// keeps the agent in lock step with the consumer.
	EventBufferSize int
	// MaxModelCalls limits the number of model calls per run.
	MaxModelCalls int
	// Vars are template variables available to every run's instruction.
	Vars map[string]any
	// Now supplies the current time for the "date" template variable.
	Now func() time.Time
	// Logging services.
	Logger logging.Logger
}

// Runner coordinates agent execution: it creates run contexts, streams
// events and tracks active runs for cancellation. Public methods are safe
// for concurrent use.
type Runner struct {
	agent core.Agent

	eventBufferSize int
	maxModelCalls   int
	vars            map[string]any
	now             func() time.Time
	slots           *semaphore.Weighted
	logger          logging.Logger

	activeRuns map[string]context.CancelFunc
	mu         sync.RWMutex
}

// New constructs a Runner with optional overrides.
func New(agent core.Agent, optFns ...func(o *Options)) *Runner {
	opts := Options{
		MaxConcurrentRuns: 10,
		MaxModelCalls:     10,
		Now:               time.Now,
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	r := &Runner{
		agent:           agent,
		eventBufferSize: opts.EventBufferSize,
		maxModelCalls:   opts.MaxModelCalls,
		vars:            opts.Vars,
		now:             opts.Now,
		logger:          logging.OrNoOp(opts.Logger),
		activeRuns:      make(map[string]context.CancelFunc),
	}
	if opts.MaxConcurrentRuns > 0 {
		r.slots = semaphore.NewWeighted(int64(opts.MaxConcurrentRuns))
	}
	return r
}

// Run implements core.Engine.
func (r *Runner) Run(ctx context.Context, prompt core.Prompt) (<-chan core.Event, <-chan error) {
	_, events, errs := r.Start(ctx, prompt)
	return events, errs
}

// Start launches an asynchronous run and returns its id. The first event is
// always a RunStartedEvent carrying that id. The events channel closes when
// the run ends; the error channel then yields at most one error.
func (r *Runner) Start(ctx context.Context, prompt core.Prompt) (string, <-chan core.Event, <-chan error) {
	runID := core.NewID()

	eventsCh := make(chan core.Event, r.eventBufferSize)
	errorsCh := make(chan error, 1)
	agentEmit := make(chan core.Event, r.eventBufferSize)

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.activeRuns[runID] = cancel
	r.mu.Unlock()

	logger := r.logger
	if cl, ok := logger.(*logging.ChatLogger); ok {
		logger = cl.WithRun(runID)
	}

	runCtx := core.NewRunContext(
		ctx,
		runID,
		core.AgentInfo{Name: r.agent.Name(), Type: "model"},
		prompt,
		r.maxModelCalls,
		agentEmit,
		logger,
	)
	for k, v := range r.vars {
		runCtx.SetVar(k, v)
	}
	runCtx.SetVar("date", r.now().Format("2006-01-02"))

	agentErr := make(chan error, 1)

	go func() {
		defer close(agentEmit)
		defer close(agentErr)

		if err := r.acquire(ctx); err != nil {
			agentErr <- err
			return
		}
		defer r.release()

		if err := runCtx.EmitEvent(core.RunStartedEvent{RunID: runID}); err != nil {
			agentErr <- err
			return
		}
		if err := r.runAgent(runCtx); err != nil {
			agentErr <- err
		}
	}()

	go func() {
		defer func() {
			r.mu.Lock()
			delete(r.activeRuns, runID)
			r.mu.Unlock()
			cancel()
		}()
		defer close(errorsCh)
		defer close(eventsCh)

		start := time.Now()
		n := r.processEvents(runCtx, agentEmit, eventsCh)

		err := <-agentErr
		if err != nil {
			errorsCh <- fmt.Errorf("agent execution failed: %w", err)
		}
		logger.Info("runner.run.complete", "run", runID, "events", n, "duration_ms", time.Since(start).Milliseconds(), "error", err != nil)
	}()

	return runID, eventsCh, errorsCh
}

// Cancel cancels a running run by ID.
func (r *Runner) Cancel(runID string) error {
	r.mu.RLock()
	cancel, exists := r.activeRuns[runID]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	cancel()

	return nil
}

// Active returns the number of runs in flight.
func (r *Runner) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.activeRuns)
}

func (r *Runner) acquire(ctx context.Context) error {
	if r.slots == nil {
		return nil
	}
	return r.slots.Acquire(ctx, 1)
}

func (r *Runner) release() {
	if r.slots != nil {
		r.slots.Release(1)
	}
}

func (r *Runner) runAgent(runCtx *core.RunContext) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			runCtx.Logger().Error("runner.agent.panic", "agent", r.agent.Name(), "recover", rec)
			err = fmt.Errorf("agent %s panicked: %v", r.agent.Name(), rec)
		}
	}()
	return r.agent.Run(runCtx)
}

// processEvents forwards agent events to the consumer in order. When the run
// is cancelled it keeps draining so the agent goroutine can exit.
func (r *Runner) processEvents(
	runCtx *core.RunContext,
	agentEmit <-chan core.Event,
	eventsCh chan<- core.Event,
) int {
	delivered := 0
	for ev := range agentEmit {
		if runCtx.Err() != nil {
			continue
		}
		select {
		case <-runCtx.Done():
		case eventsCh <- ev:
			delivered++
			r.logger.Debug("runner.event.delivered", "run", runCtx.RunID, "event", core.DescribeEvent(ev))
		}
	}
	return delivered
}
