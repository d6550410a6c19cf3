// Package wire defines the line-delimited event protocol spoken between the
// chat server and its clients.
//
// Each event is one JSON object terminated by "\n":
//
//	{"type":"status","message":"Searching: golang generics"}
//	{"type":"text","content":"Generics landed in "}
//
// The set of event types is closed. Decoders reject unknown types.
package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Type discriminates wire events.
type Type string

const (
	// TypeStatus is a transient progress note.
	TypeStatus Type = "status"
	// TypeText is an ordered fragment of the answer.
	TypeText Type = "text"
)

// ContentType is the response content type of a wire stream.
const ContentType = "text/plain; charset=utf-8"

// ErrUnknownType is returned when a line carries an unsupported type tag.
var ErrUnknownType = errors.New("wire: unknown event type")

// Event is one wire record. Exactly one of Message (status) or Content (text)
// is meaningful, selected by Type.
type Event struct {
	Type    Type
	Message string
	Content string
}

// Status builds a status event.
func Status(msg string) Event { return Event{Type: TypeStatus, Message: msg} }

// Text builds a text event.
func Text(content string) Event { return Event{Type: TypeText, Content: content} }

// IsText reports whether the event is a text fragment.
func (e Event) IsText() bool { return e.Type == TypeText }

type statusJSON struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
}

type textJSON struct {
	Type    Type   `json:"type"`
	Content string `json:"content"`
}

// MarshalJSON renders only the field belonging to the event's type.
func (e Event) MarshalJSON() ([]byte, error) {
	var v any
	switch e.Type {
	case TypeStatus:
		v = statusJSON{Type: TypeStatus, Message: e.Message}
	case TypeText:
		v = textJSON{Type: TypeText, Content: e.Content}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, e.Type)
	}

	// json.Marshal would escape <, > and & inside answer text.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON parses one wire object. The field matching the type must be a
// string; unknown types are rejected.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    Type    `json:"type"`
		Message *string `json:"message"`
		Content *string `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Type {
	case TypeStatus:
		if raw.Message == nil {
			return errors.New("wire: status event without message")
		}
		*e = Status(*raw.Message)
	case TypeText:
		if raw.Content == nil {
			return errors.New("wire: text event without content")
		}
		*e = Text(*raw.Content)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, raw.Type)
	}

	return nil
}

// Parse decodes one line (without its terminator).
func Parse(line []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(line, &e); err != nil {
		return Event{}, err
	}
	return e, nil
}
