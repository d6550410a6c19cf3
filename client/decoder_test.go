package client

import (
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justanuragmaurya/chat-app/wire"
)

func feedAll(d *Decoder, chunks ...[]byte) []wire.Event {
	var out []wire.Event
	for _, c := range chunks {
		out = append(out, d.Feed(c)...)
	}
	return append(out, d.Flush()...)
}

func TestDecoder_SplitAcrossChunks(t *testing.T) {
	d := NewDecoder(nil)
	got := feedAll(d,
		[]byte(`{"typ`),
		[]byte(`e":"text","content":"Hi"}`+"\n"+`{"type":"text","con`),
		[]byte(`tent":" there"}`+"\n"),
	)
	assert.Equal(t, []wire.Event{wire.Text("Hi"), wire.Text(" there")}, got)
	assert.Zero(t, d.Pending())
}

func TestDecoder_MultibyteSplit(t *testing.T) {
	line := []byte(`{"type":"text","content":"héllo 世界 👋"}` + "\n")
	i := bytes.Index(line, []byte("世")) + 1 // inside the 3-byte sequence

	d := NewDecoder(nil)
	assert.Empty(t, d.Feed(line[:i]))
	assert.Equal(t, []wire.Event{wire.Text("héllo 世界 👋")}, d.Feed(line[i:]))
}

func TestDecoder_BadLineDropped(t *testing.T) {
	d := NewDecoder(nil)
	got := d.Feed([]byte(`{"type":"status","message":"Searching: go"}` + "\n" +
		`{not json` + "\n" +
		`{"type":"video","url":"x"}` + "\n" +
		"\n" +
		`{"type":"text","content":"ok"}` + "\n"))

	assert.Equal(t, []wire.Event{wire.Status("Searching: go"), wire.Text("ok")}, got)
	assert.Equal(t, 2, d.Dropped())
}

func TestDecoder_FlushUnterminated(t *testing.T) {
	tail := []byte(`{"type":"text","content":"tail"}`)
	d := NewDecoder(nil)
	assert.Empty(t, d.Feed(tail))
	assert.Equal(t, len(tail), d.Pending())
	assert.Equal(t, []wire.Event{wire.Text("tail")}, d.Flush())
	assert.Empty(t, d.Flush())
}

func TestDecoder_CRLF(t *testing.T) {
	d := NewDecoder(nil)
	got := d.Feed([]byte(`{"type":"text","content":"a"}` + "\r\n"))
	assert.Equal(t, []wire.Event{wire.Text("a")}, got)
}

func TestDecoder_ReassemblyProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("any chunking decodes like the whole payload", prop.ForAll(
		func(contents []string, cuts []int) bool {
			var payload []byte
			var want []wire.Event
			for i, c := range contents {
				ev := wire.Text(c)
				if i%3 == 2 {
					ev = wire.Status(c)
				}
				line, err := wire.Marshal(ev)
				if err != nil {
					return false
				}
				payload = append(payload, line...)
				want = append(want, ev)
			}

			var chunks [][]byte
			rest := payload
			for _, c := range cuts {
				if len(rest) == 0 {
					break
				}
				n := c % (len(rest) + 1)
				chunks = append(chunks, rest[:n])
				rest = rest[n:]
			}
			chunks = append(chunks, rest)

			got := feedAll(NewDecoder(nil), chunks...)
			whole := feedAll(NewDecoder(nil), payload)
			if len(got) != len(want) || len(whole) != len(want) {
				return false
			}
			for i := range want {
				if got[i] != want[i] || whole[i] != want[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AnyString()),
		gen.SliceOf(gen.IntRange(0, 64)),
	))

	properties.TestingRun(t)
}

func TestDecoder_ByteAtATime(t *testing.T) {
	payload := []byte(`{"type":"status","message":"Reading wx.com"}` + "\n" + `{"type":"text","content":"ünï"}` + "\n")
	d := NewDecoder(nil)
	var got []wire.Event
	for i := range payload {
		got = append(got, d.Feed(payload[i:i+1])...)
	}
	require.Len(t, got, 2)
	assert.Equal(t, wire.Text("ünï"), got[1])
}
