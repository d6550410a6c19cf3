package client

import (
	"errors"
	"sync"

	"github.com/justanuragmaurya/chat-app/core"
)

// ErrAlreadyHydrated is returned when a transcript is hydrated twice.
var ErrAlreadyHydrated = errors.New("transcript already hydrated")

// Transcript is the ordered turn list of one conversation. At most one
// assistant turn, the tail, is open for streaming.
type Transcript struct {
	mu       sync.RWMutex
	turns    []core.Turn
	open     bool
	hydrated bool
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript { return &Transcript{} }

// Hydrate loads persisted turns. It succeeds once per transcript and reports
// whether the last turn is a user turn still waiting for a reply.
func (t *Transcript) Hydrate(turns []core.Turn) (needsReply bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.hydrated {
		return false, ErrAlreadyHydrated
	}
	t.hydrated = true
	t.turns = append(t.turns, turns...)
	return len(t.turns) > 0 && t.turns[len(t.turns)-1].Role == core.RoleUser, nil
}

// Hydrated reports whether Hydrate ran.
func (t *Transcript) Hydrated() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.hydrated
}

// AppendExchange appends a user turn and an empty, open assistant turn.
func (t *Transcript) AppendExchange(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns,
		core.Turn{Role: core.RoleUser, Content: message},
		core.Turn{Role: core.RoleAssistant})
	t.open = true
}

// BeginReply appends an empty, open assistant turn.
func (t *Transcript) BeginReply() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns, core.Turn{Role: core.RoleAssistant})
	t.open = true
}

// ReplaceTail sets the content of the open tail turn. It reports false when
// no turn is open.
func (t *Transcript) ReplaceTail(content string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.open {
		return false
	}
	t.turns[len(t.turns)-1].Content = content
	return true
}

// CloseTail closes the open tail turn.
func (t *Transcript) CloseTail() {
	t.mu.Lock()
	t.open = false
	t.mu.Unlock()
}

// Open reports whether the tail turn is still streaming.
func (t *Transcript) Open() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.open
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}

// Snapshot returns a copy of the turns.
func (t *Transcript) Snapshot() []core.Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]core.Turn(nil), t.turns...)
}
