package stream

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/justanuragmaurya/chat-app/core"
	"github.com/justanuragmaurya/chat-app/internal/testutil"
	"github.com/justanuragmaurya/chat-app/wire"
)

func TestNormalizer_ToolCalled(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		name string
		args string
		want []wire.Event
	}{
		{"query", `{"query":"weather NYC","count":3}`, []wire.Event{wire.Status("Searching: weather NYC")}},
		{"unicode query", `{"query":"café ☕"}`, []wire.Event{wire.Status("Searching: café ☕")}},
		{"malformed json", `{"query":`, nil},
		{"empty", ``, nil},
		{"no query", `{"q":"x"}`, nil},
		{"non-string query", `{"query":42}`, nil},
		{"array", `["query"]`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(core.ToolCalledEvent{CallID: "c1", Name: "web_search", Arguments: tt.args})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizer_ToolOutput(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		name   string
		output string
		want   []wire.Event
	}{
		{
			name:   "hosts stripped of scheme and www",
			output: `[{"link":"https://www.example.com/a"},{"link":"http://go.dev/doc"}]`,
			want:   []wire.Event{wire.Status("Reading example.com, go.dev")},
		},
		{
			name:   "duplicates collapse on equality",
			output: `[{"link":"https://wx.com/a"},{"link":"https://www.wx.com/b"},{"link":"https://news.wx.com"}]`,
			want:   []wire.Event{wire.Status("Reading wx.com, news.wx.com")},
		},
		{
			name:   "bad records skipped",
			output: `[{"title":"no link"},{"link":7},"junk",{"link":"not a url"},{"link":"https://ok.org"}]`,
			want:   []wire.Event{wire.Status("Reading ok.org")},
		},
		{name: "no hosts", output: `[{"title":"x"}]`, want: nil},
		{name: "empty list", output: `[]`, want: nil},
		{name: "object", output: `{"link":"https://a.com"}`, want: nil},
		{name: "error text", output: `Error performing search: timeout`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(core.ToolOutputEvent{CallID: "c1", Name: "web_search", Output: tt.output})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizer_TextPassThrough(t *testing.T) {
	n := NewNormalizer()
	for _, delta := range []string{"", " ", "  padded  ", "line\n", "日本"} {
		assert.Equal(t, []wire.Event{wire.Text(delta)}, n.Normalize(core.TextDeltaEvent{Delta: delta}))
	}
}

func TestNormalizer_IgnoresOtherKinds(t *testing.T) {
	n := NewNormalizer()
	assert.Nil(t, n.Normalize(core.RunStartedEvent{RunID: "r"}))
	assert.Nil(t, n.Normalize(core.MessageCompletedEvent{Text: "done"}))
	assert.Nil(t, n.Normalize(nil))
}

func TestNormalizer_CustomFields(t *testing.T) {
	n := NewNormalizer(func(o *NormalizerOptions) {
		o.QueryField = "q"
		o.LinkField = "url"
	})

	assert.Equal(t, []wire.Event{wire.Status("Searching: go")}, n.Normalize(core.ToolCalledEvent{Arguments: `{"q":"go"}`}))
	assert.Equal(t, []wire.Event{wire.Status("Reading a.io")}, n.Normalize(core.ToolOutputEvent{Output: `[{"url":"https://a.io"}]`}))
}

func TestHostname(t *testing.T) {
	h, ok := Hostname("https://www.Example.com:8443/path?q=1")
	assert.True(t, ok)
	assert.Equal(t, "Example.com", h)

	_, ok = Hostname("/relative/path")
	assert.False(t, ok)

	_, ok = Hostname("mailto:")
	assert.False(t, ok)
}

func TestNormalizer_Scenario(t *testing.T) {
	n := NewNormalizer()
	script := testutil.NewEventBuilder().
		Search("weather NYC").
		Results("https://wx.com/a").
		Text("It's", " sunny.").
		Build()

	var got []wire.Event
	for _, ev := range script {
		got = append(got, n.Normalize(ev)...)
	}

	assert.Equal(t, []wire.Event{
		wire.Status("Searching: weather NYC"),
		wire.Status("Reading wx.com"),
		wire.Text("It's"),
		wire.Text(" sunny."),
	}, got)
}

func TestNormalizer_OrderPreservationProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	n := NewNormalizer()

	properties.Property("text contents concatenate to the source deltas", prop.ForAll(
		func(deltas []string, noise []string) bool {
			var (
				script []core.Event
				want   strings.Builder
			)
			for i, d := range deltas {
				if i < len(noise) {
					script = append(script,
						core.ToolCalledEvent{Arguments: noise[i]},
						core.ToolOutputEvent{Output: noise[i]},
						core.MessageCompletedEvent{Text: noise[i]},
					)
				}
				script = append(script, core.TextDeltaEvent{Delta: d})
				want.WriteString(d)
			}

			var got strings.Builder
			texts := 0
			for _, ev := range script {
				for _, we := range n.Normalize(ev) {
					if we.IsText() {
						got.WriteString(we.Content)
						texts++
					}
				}
			}
			return got.String() == want.String() && texts == len(deltas)
		},
		gen.SliceOf(gen.AnyString()),
		gen.SliceOf(gen.AnyString()),
	))

	properties.TestingRun(t)
}
