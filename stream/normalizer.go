package stream

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/justanuragmaurya/chat-app/core"
	"github.com/justanuragmaurya/chat-app/logging"
	"github.com/justanuragmaurya/chat-app/wire"
)

// NormalizerOptions configures a Normalizer.
type NormalizerOptions struct {
	// QueryField is the tool argument carrying the search query.
	QueryField string
	// LinkField is the per-record field of a tool output carrying a URL.
	LinkField string
	Logger    logging.Logger
}

// Normalizer maps native agent events to wire events.
//
// Normalize never panics and never returns an error: a payload it cannot
// interpret yields no wire events. A Normalizer holds no per-stream state and
// is safe for concurrent use.
type Normalizer struct {
	queryField string
	linkField  string
	logger     logging.Logger
}

// NewNormalizer creates a Normalizer with default field names.
func NewNormalizer(optFns ...func(o *NormalizerOptions)) *Normalizer {
	opts := NormalizerOptions{
		QueryField: "query",
		LinkField:  "link",
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Normalizer{
		queryField: opts.QueryField,
		linkField:  opts.LinkField,
		logger:     logging.OrNoOp(opts.Logger),
	}
}

// Normalize returns the wire events produced by one native event, in order.
func (n *Normalizer) Normalize(ev core.Event) (out []wire.Event) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Warn("normalize.panic", "kind", kindOf(ev), "panic", fmt.Sprint(r))
			out = nil
		}
	}()

	switch e := ev.(type) {
	case core.ToolCalledEvent:
		if msg, ok := n.searching(e.Arguments); ok {
			return []wire.Event{wire.Status(msg)}
		}
		n.logger.Debug("normalize.tool_called.skipped", "tool", e.Name, "call_id", e.CallID)
	case core.ToolOutputEvent:
		if msg, ok := n.reading(e.Output); ok {
			return []wire.Event{wire.Status(msg)}
		}
		n.logger.Debug("normalize.tool_output.skipped", "tool", e.Name, "call_id", e.CallID)
	case core.TextDeltaEvent:
		return []wire.Event{wire.Text(e.Delta)}
	case core.RunStartedEvent, core.MessageCompletedEvent:
		// Carry no user-visible progress.
	}

	return nil
}

func (n *Normalizer) searching(args string) (string, bool) {
	if !gjson.Valid(args) {
		return "", false
	}
	q := gjson.Get(args, gjson.Escape(n.queryField))
	if q.Type != gjson.String {
		return "", false
	}
	return "Searching: " + q.Str, true
}

func (n *Normalizer) reading(output string) (string, bool) {
	if !gjson.Valid(output) {
		return "", false
	}
	res := gjson.Parse(output)
	if !res.IsArray() {
		return "", false
	}

	var hosts []string
	res.ForEach(func(_, rec gjson.Result) bool {
		if h, ok := n.hostOf(rec); ok && !slices.Contains(hosts, h) {
			hosts = append(hosts, h)
		}
		return true
	})
	if len(hosts) == 0 {
		return "", false
	}

	return "Reading " + strings.Join(hosts, ", "), true
}

func (n *Normalizer) hostOf(rec gjson.Result) (string, bool) {
	if !rec.IsObject() {
		return "", false
	}
	link := rec.Get(gjson.Escape(n.linkField))
	if link.Type != gjson.String {
		return "", false
	}
	return Hostname(link.Str)
}

// Hostname extracts the host of an absolute URL with any leading "www."
// removed.
func Hostname(link string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Scheme == "" {
		return "", false
	}
	h := strings.TrimPrefix(u.Hostname(), "www.")
	if h == "" {
		return "", false
	}
	return h, true
}

func kindOf(ev core.Event) string {
	if ev == nil {
		return "<nil>"
	}
	return ev.Kind()
}
