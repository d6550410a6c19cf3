// Package client consumes the chat wire protocol.
//
// A Chat owns the conversation Transcript and runs one Session per
// outstanding request. Each session has two loops: a reader that feeds
// response chunks through a Decoder into the session accumulator, and a
// Scheduler that reveals the accumulated text one grapheme cluster per tick
// into the open assistant turn. The loops share nothing but the Session.
//
// Basic usage:
//
//	api := client.NewAPI("http://localhost:3000")
//	chat := client.NewChat(api, conversationID)
//	if err := chat.Open(ctx); err != nil { ... }
//	if err := chat.Send(ctx, "what's the weather?"); err != nil { ... }
//	err := chat.Wait()
package client
