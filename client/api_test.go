package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justanuragmaurya/chat-app/core"
)

func TestAPI_RequestsAndDecoding(t *testing.T) {
	var gotAuth, gotBody string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = io.WriteString(w, `{"type":"text","content":"hi"}`+"\n")
	})
	mux.HandleFunc("POST /api/conversation", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"conversationId":"c-1"}`)
	})
	mux.HandleFunc("GET /api/conversation", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"conversations":[{"id":"c-1","title":"hello"}]}`)
	})
	mux.HandleFunc("GET /api/conversation/{id}", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": []core.Message{
			{ID: "m1", ConversationID: r.PathValue("id"), Role: core.RoleUser, Content: "hello"},
		}})
	})
	mux.HandleFunc("GET /api/workspace", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"workspaces":[{"id":"w1","name":"research"}]}`)
	})
	mux.HandleFunc("POST /api/workspace", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"workspace":{"id":"w2","name":"notes"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	api := NewAPI(srv.URL+"/", func(o *APIOptions) { o.Token = "tok" })
	ctx := context.Background()

	body, err := api.Chat(ctx, "c-1", "")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, `{"type":"text","content":"hi"}`+"\n", string(data))
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.JSONEq(t, `{"conversationId":"c-1"}`, gotBody)

	id, err := api.CreateConversation(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "c-1", id)

	convs, err := api.Conversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "hello", convs[0].Title)

	msgs, err := api.Messages(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "c-1", msgs[0].ConversationID)

	ws, err := api.Workspaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, "research", ws[0].Name)

	w, err := api.CreateWorkspace(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, "w2", w.ID)
}

func TestAPI_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"Unauthorized"}`)
	}))
	defer srv.Close()

	_, err := NewAPI(srv.URL).Conversations(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Unauthorized", apiErr.Message)
	assert.Equal(t, "chat api: status 401: Unauthorized", apiErr.Error())

	_, err = NewAPI(srv.URL).Chat(context.Background(), "", "hi")
	require.ErrorAs(t, err, &apiErr)
}
