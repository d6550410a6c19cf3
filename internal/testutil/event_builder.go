package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/justanuragmaurya/chat-app/core"
)

// EventBuilder provides a fluent helper for constructing native event scripts.
// Example:
//
//	evs := NewEventBuilder().Search("weather NYC").Results("https://wx.com/a").Text("It's", " sunny.").Build()
//
// Tool call ids are generated sequentially so Search and Results pair up.
type EventBuilder struct {
	events []core.Event
	calls  int
	tool   string
}

// NewEventBuilder creates a builder using "web_search" as the tool name.
func NewEventBuilder() *EventBuilder { return &EventBuilder{tool: "web_search"} }

// Tool overrides the tool name used by subsequent Search/Results calls (chainable).
func (b *EventBuilder) Tool(name string) *EventBuilder { b.tool = name; return b }

// Started appends a RunStartedEvent (chainable).
func (b *EventBuilder) Started(runID string) *EventBuilder {
	b.events = append(b.events, core.RunStartedEvent{RunID: runID})
	return b
}

// Search appends a tool call whose arguments carry query (chainable).
func (b *EventBuilder) Search(query string) *EventBuilder {
	b.calls++
	args, _ := json.Marshal(map[string]any{"query": query})
	return b.ToolCall(string(args))
}

// ToolCall appends a tool call with raw JSON arguments (chainable).
func (b *EventBuilder) ToolCall(rawArgs string) *EventBuilder {
	b.events = append(b.events, core.ToolCalledEvent{CallID: b.callID(), Name: b.tool, Arguments: rawArgs})
	return b
}

// Results appends a tool output listing one record per link (chainable).
func (b *EventBuilder) Results(links ...string) *EventBuilder {
	recs := make([]map[string]string, 0, len(links))
	for _, l := range links {
		recs = append(recs, map[string]string{"title": l, "link": l})
	}
	out, _ := json.Marshal(recs)
	return b.ToolOutput(string(out))
}

// ToolOutput appends a tool output with a raw payload (chainable).
func (b *EventBuilder) ToolOutput(raw string) *EventBuilder {
	b.events = append(b.events, core.ToolOutputEvent{CallID: b.callID(), Name: b.tool, Output: raw})
	return b
}

// Text appends one TextDeltaEvent per fragment (chainable).
func (b *EventBuilder) Text(fragments ...string) *EventBuilder {
	for _, f := range fragments {
		b.events = append(b.events, core.TextDeltaEvent{Delta: f})
	}
	return b
}

// Completed appends a MessageCompletedEvent (chainable).
func (b *EventBuilder) Completed(text string) *EventBuilder {
	b.events = append(b.events, core.MessageCompletedEvent{Text: text})
	return b
}

// Build returns a copy of the accumulated events.
func (b *EventBuilder) Build() []core.Event {
	return append([]core.Event(nil), b.events...)
}

func (b *EventBuilder) callID() string {
	return fmt.Sprintf("call_%d", b.calls)
}
