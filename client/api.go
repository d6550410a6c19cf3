package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/justanuragmaurya/chat-app/core"
	"github.com/justanuragmaurya/chat-app/logging"
)

// APIError is a non-2xx response of the chat server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("chat api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("chat api: status %d: %s", e.StatusCode, e.Message)
}

// APIOptions configures an API client.
type APIOptions struct {
	// HTTPClient must not set a Timeout shorter than the longest stream.
	HTTPClient *http.Client
	// Token is sent as "Authorization: Bearer <token>" when set.
	Token  string
	Logger logging.Logger
}

// API is an HTTP client of the chat server.
type API struct {
	baseURL string
	token   string
	http    *http.Client
	logger  logging.Logger
}

// NewAPI creates a client for the server at baseURL.
func NewAPI(baseURL string, optFns ...func(o *APIOptions)) *API {
	opts := APIOptions{HTTPClient: http.DefaultClient}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   opts.Token,
		http:    opts.HTTPClient,
		logger:  logging.OrNoOp(opts.Logger),
	}
}

type chatRequest struct {
	ConversationID string `json:"conversationId,omitempty"`
	Message        string `json:"message,omitempty"`
}

// Chat starts a streamed reply. An empty message resumes conversationID,
// whose last turn must then be a user turn. The caller closes the body.
func (a *API) Chat(ctx context.Context, conversationID, message string) (io.ReadCloser, error) {
	resp, err := a.do(ctx, http.MethodPost, "/api/chat", chatRequest{ConversationID: conversationID, Message: message})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// CreateConversation creates a conversation whose first turn is message.
func (a *API) CreateConversation(ctx context.Context, message string) (string, error) {
	var out struct {
		ConversationID string `json:"conversationId"`
	}
	if err := a.doJSON(ctx, http.MethodPost, "/api/conversation", chatRequest{Message: message}, &out); err != nil {
		return "", err
	}
	return out.ConversationID, nil
}

// Conversations lists the caller's conversations, newest first.
func (a *API) Conversations(ctx context.Context) ([]core.ConversationSummary, error) {
	var out struct {
		Conversations []core.ConversationSummary `json:"conversations"`
	}
	if err := a.doJSON(ctx, http.MethodGet, "/api/conversation", nil, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

// Messages returns the turns of a conversation in order.
func (a *API) Messages(ctx context.Context, conversationID string) ([]core.Message, error) {
	var out struct {
		Messages []core.Message `json:"messages"`
	}
	if err := a.doJSON(ctx, http.MethodGet, "/api/conversation/"+url.PathEscape(conversationID), nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// Workspaces lists the caller's workspaces, oldest first.
func (a *API) Workspaces(ctx context.Context) ([]core.Workspace, error) {
	var out struct {
		Workspaces []core.Workspace `json:"workspaces"`
	}
	if err := a.doJSON(ctx, http.MethodGet, "/api/workspace", nil, &out); err != nil {
		return nil, err
	}
	return out.Workspaces, nil
}

// CreateWorkspace creates a workspace named name.
func (a *API) CreateWorkspace(ctx context.Context, name string) (core.Workspace, error) {
	var out struct {
		Workspace core.Workspace `json:"workspace"`
	}
	body := map[string]string{"name": name}
	if err := a.doJSON(ctx, http.MethodPost, "/api/workspace", body, &out); err != nil {
		return core.Workspace{}, err
	}
	return out.Workspace, nil
}

func (a *API) doJSON(ctx context.Context, method, path string, payload, out any) error {
	resp, err := a.do(ctx, method, path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// do sends the request and returns the response when its status is 2xx.
func (a *API) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	a.logger.Debug("api.request", "method", method, "path", path)
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode/100 == 2 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var errBody struct {
		Error string `json:"error"`
	}
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
		if json.Unmarshal(data, &errBody) == nil {
			apiErr.Message = errBody.Error
		}
	}
	return nil, apiErr
}
