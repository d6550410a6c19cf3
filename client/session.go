package client

import (
	"strings"
	"sync"

	"github.com/rivo/uniseg"
)

// Session is the streaming state of one outstanding request. It is shared by
// the reader loop, which appends, and the Scheduler, which reveals.
type Session struct {
	mu        sync.Mutex
	acc       strings.Builder
	cursor    int // bytes of acc revealed, always on a grapheme boundary
	status    string
	textSeen  bool
	completed bool
	err       error

	started     chan struct{}
	done        chan struct{}
	startOnce   sync.Once
	completeOne sync.Once
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{
		started: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// AppendText adds a received text fragment. The first fragment clears the
// status slot for the rest of the session.
func (s *Session) AppendText(fragment string) {
	s.mu.Lock()
	s.acc.WriteString(fragment)
	s.textSeen = true
	s.status = ""
	s.mu.Unlock()

	s.startOnce.Do(func() { close(s.started) })
}

// SetStatus records the latest status message. It reports false once text
// has been seen, in which case the status is ignored.
func (s *Session) SetStatus(msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.textSeen {
		return false
	}
	s.status = msg
	return true
}

// Complete marks the end of the byte stream. err, when non-nil, is the
// failure that ended it.
func (s *Session) Complete(err error) {
	s.completeOne.Do(func() {
		s.mu.Lock()
		s.completed = true
		s.err = err
		s.mu.Unlock()
		close(s.done)
	})
}

// Advance reveals one more grapheme cluster. It returns the revealed text,
// whether it grew, and whether the session is finished (everything revealed
// and the stream complete).
func (s *Session) Advance() (revealed string, grew, finished bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	text := s.acc.String()
	if s.cursor < len(text) {
		cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(text[s.cursor:], -1)
		s.cursor += len(cluster)
		grew = true
	}
	return text[:s.cursor], grew, s.completed && s.cursor == len(text)
}

// Started is closed when the first text fragment arrives.
func (s *Session) Started() <-chan struct{} { return s.started }

// Done is closed when the byte stream ends.
func (s *Session) Done() <-chan struct{} { return s.done }

// Status returns the status slot.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Text returns everything received so far.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acc.String()
}

// Revealed returns the revealed prefix of Text.
func (s *Session) Revealed() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acc.String()[:s.cursor]
}

// HasText reports whether any text fragment arrived.
func (s *Session) HasText() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.textSeen
}

// Completed reports whether the byte stream ended.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// Err returns the failure that ended the stream, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
