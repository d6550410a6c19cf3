package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Encoder writes wire events to an underlying stream, one line per event.
//
// Every Encode call results in exactly one Write of the complete line
// followed by a Flush when the writer supports it, so a reader never observes
// events batched behind one another by the encoder. Encode blocks for as long
// as the underlying writer blocks.
//
// An Encoder is not safe for concurrent use.
type Encoder struct {
	w       io.Writer
	flusher http.Flusher
	buf     bytes.Buffer
	enc     *json.Encoder
	written int
}

// NewEncoder returns an encoder writing to w. If w implements http.Flusher it
// is flushed after every event.
func NewEncoder(w io.Writer) *Encoder {
	e := &Encoder{w: w}
	e.flusher, _ = w.(http.Flusher)
	e.enc = json.NewEncoder(&e.buf)
	e.enc.SetEscapeHTML(false)
	return e
}

// Encode serializes ev and writes it as one line.
func (e *Encoder) Encode(ev Event) error {
	e.buf.Reset()
	// json.Encoder appends the terminating newline.
	if err := e.enc.Encode(ev); err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	if _, err := e.w.Write(e.buf.Bytes()); err != nil {
		return fmt.Errorf("write %s event: %w", ev.Type, err)
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	e.written++
	return nil
}

// Written returns the number of events successfully written.
func (e *Encoder) Written() int { return e.written }

// Marshal renders ev as one newline-terminated line.
func Marshal(ev Event) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
