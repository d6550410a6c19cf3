// Package websearch provides the web_search tool backed by the LangSearch
// web search API.
package websearch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/justanuragmaurya/chat-app/core"
	"github.com/justanuragmaurya/chat-app/tool"
)

// DefaultEndpoint is the LangSearch web search endpoint.
const DefaultEndpoint = "https://api.langsearch.com/v1/web-search"

// Name is the tool name exposed to the model.
const Name = "web_search"

const (
	defaultFreshness = "noLimit"
	defaultCount     = 5
	noSummary        = "No summary available"
)

// Freshness values accepted by the search API.
var Freshness = []string{"oneDay", "oneWeek", "oneMonth", "oneYear", "noLimit"}

// Options configures the search tool.
type Options struct {
	APIKey     string
	Endpoint   string
	HTTPClient *http.Client
}

// Result is one search hit handed back to the model.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Summary string `json:"summary"`
}

// Query holds the decoded tool arguments.
type Query struct {
	Query     string `json:"query"`
	Freshness string `json:"freshness"`
	Count     int    `json:"count"`
	Summary   bool   `json:"summary"`
}

// Tool searches the live web.
type Tool struct {
	*tool.FunctionTool
	opts Options
}

// New constructs the web_search tool.
func New(optFns ...func(o *Options)) (*Tool, error) {
	opts := Options{
		Endpoint:   DefaultEndpoint,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	t := &Tool{opts: opts}
	ft, err := tool.NewFunctionTool(
		Name,
		"Search the live internet for real-time information, news, and website summaries. Use this for questions about current events.",
		Parameters(),
		t.call,
	)
	if err != nil {
		return nil, err
	}
	t.FunctionTool = ft
	return t, nil
}

// Parameters returns the JSON schema of the tool arguments.
func Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query to look up on the web.",
			},
			"freshness": map[string]any{
				"type":        "string",
				"enum":        Freshness,
				"default":     defaultFreshness,
				"description": "The time range for results. Use 'oneDay' for breaking news.",
			},
			"count": map[string]any{
				"type":    "integer",
				"minimum": 1,
				"maximum": 10,
				"default": defaultCount,
			},
			"summary": map[string]any{
				"type":    "boolean",
				"default": true,
			},
		},
		"required": []string{"query"},
	}
}

// ParseQuery applies defaults to already validated arguments.
func ParseQuery(args map[string]any) Query {
	q := Query{Freshness: defaultFreshness, Count: defaultCount, Summary: true}
	if v, ok := args["query"].(string); ok {
		q.Query = v
	}
	if v, ok := args["freshness"].(string); ok && v != "" {
		q.Freshness = v
	}
	switch v := args["count"].(type) {
	case float64:
		q.Count = int(v)
	case int:
		q.Count = v
	}
	if v, ok := args["summary"].(bool); ok {
		q.Summary = v
	}
	return q
}

// call never fails: search errors are returned as text so the model can
// react to them.
func (t *Tool) call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	q := ParseQuery(args)

	results, err := t.Search(toolCtx, q)
	if err != nil {
		toolCtx.Logger().Warn("websearch.failed", "query", q.Query, "error", err.Error())
		return fmt.Sprintf("Error performing search: %s", err.Error()), nil
	}

	toolCtx.Logger().Info("websearch.done", "query", q.Query, "results", len(results))

	b, err := json.Marshal(results)
	if err != nil {
		return fmt.Sprintf("Error performing search: %s", err.Error()), nil
	}
	return string(b), nil
}

type searchResponse struct {
	Data struct {
		WebPages struct {
			Value []struct {
				Name    string `json:"name"`
				URL     string `json:"url"`
				Snippet string `json:"snippet"`
				Summary string `json:"summary"`
			} `json:"value"`
		} `json:"webPages"`
	} `json:"data"`
}

// Search performs one search request.
func (t *Tool) Search(toolCtx *core.ToolContext, q Query) ([]Result, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(toolCtx.Context(), http.MethodPost, t.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+t.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("request failed with status code %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	results := make([]Result, 0, len(sr.Data.WebPages.Value))
	for _, page := range sr.Data.WebPages.Value {
		summary := page.Summary
		if summary == "" {
			summary = noSummary
		}
		results = append(results, Result{
			Title:   page.Name,
			Link:    page.URL,
			Snippet: page.Snippet,
			Summary: summary,
		})
	}
	return results, nil
}
