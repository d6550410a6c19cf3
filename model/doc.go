// Package model defines the provider-neutral model interface used by agents
// together with a scripted in-memory implementation.
//
// Provider adapters live in subpackages:
//
//   - model/openai: OpenAI Chat Completions, including OpenAI-compatible
//     gateways such as OpenRouter via a base URL
//   - model/anthropic: Anthropic Messages API
//
// Both adapters stream text as partial responses and finish with a single
// non-partial response carrying the full text and any tool calls.
package model
