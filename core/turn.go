package core

import (
	"fmt"
	"strings"
)

// Role identifies the author of a turn or content block.
type Role string

const (
	// RoleUser marks content written by the human.
	RoleUser Role = "user"
	// RoleAssistant marks content produced by the agent.
	RoleAssistant Role = "assistant"
	// RoleTool marks tool results fed back to the model.
	RoleTool Role = "tool"
)

// ParseRole validates a persisted role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAssistant:
		return Role(s), nil
	default:
		return "", fmt.Errorf("invalid turn role %q", s)
	}
}

// Turn is one message of a conversation. Slice position is the only ordering.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Prompt is the ordered input of one agent run.
type Prompt struct {
	Turns []Turn
}

// NewPrompt builds a prompt from a single user message.
func NewPrompt(message string) Prompt {
	return Prompt{Turns: []Turn{{Role: RoleUser, Content: message}}}
}

// PromptFromMessages builds a prompt from persisted messages in the given order.
func PromptFromMessages(msgs []Message) Prompt {
	turns := make([]Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, Turn{Role: m.Role, Content: m.Content})
	}
	return Prompt{Turns: turns}
}

// Empty reports whether the prompt has no turns.
func (p Prompt) Empty() bool { return len(p.Turns) == 0 }

// Flatten renders the prompt as "role: content" lines joined by newlines.
func (p Prompt) Flatten() string {
	lines := make([]string, 0, len(p.Turns))
	for _, t := range p.Turns {
		lines = append(lines, string(t.Role)+": "+t.Content)
	}
	return strings.Join(lines, "\n")
}

// Contents converts the prompt into model contents, one per turn.
func (p Prompt) Contents() []Content {
	out := make([]Content, 0, len(p.Turns))
	for _, t := range p.Turns {
		out = append(out, NewTextContent(t.Role, t.Content))
	}
	return out
}
