// Package core provides the foundational domain types shared by the chat
// server, the agent and the client. It defines:
//
//   - Events (the closed set of native lifecycle records an agent run emits)
//   - Turns and Prompts (ordered conversation input)
//   - Content parts exchanged with models
//   - The Engine contract used by the streaming pipeline
//   - The ConversationStore contract implemented by the store packages
//
// Implementation concerns (models, persistence, transport) live elsewhere;
// this package only exposes small interfaces and value types.
package core
