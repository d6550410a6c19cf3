package client

import (
	"context"
	"sync/atomic"
	"time"
)

// DefaultTickInterval is the reveal cadence.
const DefaultTickInterval = 15 * time.Millisecond

// SchedulerState is the reveal loop state.
type SchedulerState int32

const (
	// StateIdle waits for the first text fragment.
	StateIdle SchedulerState = iota
	// StateRunning reveals one grapheme cluster per tick.
	StateRunning
	// StateTerminal is reached once everything is revealed and the stream ended.
	StateTerminal
)

func (s SchedulerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Scheduler reveals a session's accumulated text into the transcript tail on
// a fixed tick, independent of arrival timing.
type Scheduler struct {
	session    *Session
	transcript *Transcript
	interval   time.Duration
	onReveal   func(content string)
	onFinish   func()
	state      atomic.Int32
}

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	Interval time.Duration
	// OnReveal is called with the tail content after every growing tick.
	OnReveal func(content string)
	// OnFinish is called once when the scheduler turns terminal.
	OnFinish func()
}

// NewScheduler creates an idle scheduler for session writing into transcript.
func NewScheduler(session *Session, transcript *Transcript, optFns ...func(o *SchedulerOptions)) *Scheduler {
	opts := SchedulerOptions{Interval: DefaultTickInterval}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultTickInterval
	}
	return &Scheduler{
		session:    session,
		transcript: transcript,
		interval:   opts.Interval,
		onReveal:   opts.OnReveal,
		onFinish:   opts.OnFinish,
	}
}

// State returns the current state.
func (s *Scheduler) State() SchedulerState { return SchedulerState(s.state.Load()) }

// Run waits for the first text fragment, then ticks until everything is
// revealed and the stream ended, or ctx is cancelled. A stream that ends
// without text finishes immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	select {
	case <-s.session.Started():
	case <-s.session.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if !s.session.HasText() {
		s.finish()
		return nil
	}

	s.state.Store(int32(StateRunning))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if s.Tick() {
				return nil
			}
		}
	}
}

// Tick performs one reveal step and reports whether the scheduler is
// terminal.
func (s *Scheduler) Tick() bool {
	if s.State() == StateTerminal {
		return true
	}
	revealed, grew, finished := s.session.Advance()
	if grew {
		s.transcript.ReplaceTail(revealed)
		if s.onReveal != nil {
			s.onReveal(revealed)
		}
	}
	if finished {
		s.finish()
	}
	return finished
}

func (s *Scheduler) finish() {
	if s.state.Swap(int32(StateTerminal)) == int32(StateTerminal) {
		return
	}
	s.transcript.CloseTail()
	if s.onFinish != nil {
		s.onFinish()
	}
}
