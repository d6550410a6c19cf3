package client

import (
	"bytes"

	"github.com/justanuragmaurya/chat-app/logging"
	"github.com/justanuragmaurya/chat-app/wire"
)

// Decoder reassembles wire events from arbitrarily split byte chunks.
//
// Lines are split on the '\n' byte before any text decoding, so a multi-byte
// character cut across two chunks is rejoined intact in the pending buffer.
type Decoder struct {
	pending []byte
	dropped int
	logger  logging.Logger
}

// NewDecoder creates a decoder logging dropped lines to logger (may be nil).
func NewDecoder(logger logging.Logger) *Decoder {
	return &Decoder{logger: logging.OrNoOp(logger)}
}

// Feed appends chunk and returns the events of every line it completed.
func (d *Decoder) Feed(chunk []byte) []wire.Event {
	d.pending = append(d.pending, chunk...)

	var out []wire.Event
	for {
		i := bytes.IndexByte(d.pending, '\n')
		if i < 0 {
			break
		}
		if ev, ok := d.parse(d.pending[:i]); ok {
			out = append(out, ev)
		}
		d.pending = d.pending[i+1:]
	}
	if len(d.pending) == 0 {
		d.pending = nil
	}
	return out
}

// Flush parses an unterminated trailing line at end of stream.
func (d *Decoder) Flush() []wire.Event {
	rest := d.pending
	d.pending = nil
	if ev, ok := d.parse(rest); ok {
		return []wire.Event{ev}
	}
	return nil
}

// Pending returns the number of buffered bytes of an incomplete line.
func (d *Decoder) Pending() int { return len(d.pending) }

// Dropped returns the number of lines that failed to parse.
func (d *Decoder) Dropped() int { return d.dropped }

func (d *Decoder) parse(line []byte) (wire.Event, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return wire.Event{}, false
	}
	ev, err := wire.Parse(line)
	if err != nil {
		d.dropped++
		d.logger.Warn("decoder.dropped_line", "bytes", len(line), "error", err.Error())
		return wire.Event{}, false
	}
	return ev, true
}
