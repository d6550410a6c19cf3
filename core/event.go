package core

import (
	"fmt"

	"github.com/google/uuid"
)

// Event is one native lifecycle record emitted by an agent run. The set of
// variants is closed: only types declared in this package implement it, so a
// type switch over Event is exhaustive.
//
// Events are delivered in production order on the channel returned by
// Engine.Run and must be treated as immutable once sent.
type Event interface {
	isEvent()
	// Kind returns a stable short name used for logging.
	Kind() string
}

// RunStartedEvent is the first event of every run.
type RunStartedEvent struct {
	RunID string
}

func (RunStartedEvent) isEvent() {}

// Kind implements Event.
func (RunStartedEvent) Kind() string { return "run_started" }

// ToolCalledEvent announces that the model requested a tool invocation.
// Arguments is the raw JSON argument document as produced by the model; it
// may be malformed.
type ToolCalledEvent struct {
	CallID    string
	Name      string
	Arguments string
}

func (ToolCalledEvent) isEvent() {}

// Kind implements Event.
func (ToolCalledEvent) Kind() string { return "tool_called" }

// ToolOutputEvent carries the textual result of a tool invocation.
type ToolOutputEvent struct {
	CallID string
	Name   string
	Output string
}

func (ToolOutputEvent) isEvent() {}

// Kind implements Event.
func (ToolOutputEvent) Kind() string { return "tool_output" }

// TextDeltaEvent carries one fragment of the assistant's answer.
type TextDeltaEvent struct {
	Delta string
}

func (TextDeltaEvent) isEvent() {}

// Kind implements Event.
func (TextDeltaEvent) Kind() string { return "text_delta" }

// MessageCompletedEvent marks the end of one model message. Text is the full
// message text; it duplicates the preceding deltas.
type MessageCompletedEvent struct {
	Text string
}

func (MessageCompletedEvent) isEvent() {}

// Kind implements Event.
func (MessageCompletedEvent) Kind() string { return "message_completed" }

// NewID generates a new unique identifier for runs, conversations and messages.
func NewID() string { return uuid.NewString() }

// DescribeEvent renders an event for debug logs.
func DescribeEvent(e Event) string {
	switch ev := e.(type) {
	case RunStartedEvent:
		return fmt.Sprintf("run_started(%s)", ev.RunID)
	case ToolCalledEvent:
		return fmt.Sprintf("tool_called(%s %s)", ev.Name, ev.CallID)
	case ToolOutputEvent:
		return fmt.Sprintf("tool_output(%s %s, %d bytes)", ev.Name, ev.CallID, len(ev.Output))
	case TextDeltaEvent:
		return fmt.Sprintf("text_delta(%d bytes)", len(ev.Delta))
	case MessageCompletedEvent:
		return fmt.Sprintf("message_completed(%d bytes)", len(ev.Text))
	case nil:
		return "<nil>"
	default:
		return e.Kind()
	}
}
