package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justanuragmaurya/chat-app/core"
	"github.com/justanuragmaurya/chat-app/stream"
	"github.com/justanuragmaurya/chat-app/wire"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
}

// chat handles POST /api/chat. With a conversation id the new message (if
// any) is persisted first and the prompt is the whole history; otherwise the
// prompt is the message alone. The response streams wire events.
func (s *Server) chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ConversationID == "" && req.Message == "" {
		abortWithError(c, http.StatusBadRequest, "Message is required")
		return
	}

	ctx := c.Request.Context()
	prompt := core.NewPrompt(req.Message)

	if req.ConversationID != "" {
		if _, err := s.store.GetConversation(ctx, req.ConversationID); err != nil {
			s.storeError(c, err)
			return
		}
		if req.Message != "" {
			if _, err := s.store.AppendMessage(ctx, req.ConversationID, core.RoleUser, req.Message); err != nil {
				s.storeError(c, err)
				return
			}
		}
		history, err := s.store.Messages(ctx, req.ConversationID)
		if err != nil {
			s.storeError(c, err)
			return
		}
		prompt = core.PromptFromMessages(history)
	}

	if prompt.Empty() {
		abortWithError(c, http.StatusBadRequest, "Message is required")
		return
	}

	c.Header("Content-Type", wire.ContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	res := s.pipeline.Run(ctx, c.Writer, stream.Request{ConversationID: req.ConversationID, Prompt: prompt})
	if res.RunErr != nil {
		_ = c.Error(res.RunErr)
	}
}

// storeError maps store failures to responses.
func (s *Server) storeError(c *gin.Context, err error) {
	if errors.Is(err, core.ErrNotFound) {
		abortWithError(c, http.StatusNotFound, "Conversation not found")
		return
	}
	s.logger.Error("store.failed", "path", c.FullPath(), "error", err.Error())
	abortWithError(c, http.StatusInternalServerError, "Internal server error")
}
