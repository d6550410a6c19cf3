package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justanuragmaurya/chat-app/core"
)

// CreateConversationRequest is the body of POST /api/conversation.
type CreateConversationRequest struct {
	Message string `json:"message"`
}

// listConversations handles GET /api/conversation.
func (s *Server) listConversations(c *gin.Context) {
	userID, _ := getUserID(c)

	conversations, err := s.store.ListConversations(c.Request.Context(), userID)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// createConversation handles POST /api/conversation: the conversation is
// created together with its first user turn.
func (s *Server) createConversation(c *gin.Context) {
	userID, _ := getUserID(c)

	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		abortWithError(c, http.StatusBadRequest, "Message is required")
		return
	}

	ctx := c.Request.Context()
	conv, err := s.store.CreateConversation(ctx, userID)
	if err != nil {
		s.storeError(c, err)
		return
	}
	if _, err := s.store.AppendMessage(ctx, conv.ID, core.RoleUser, req.Message); err != nil {
		s.storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversationId": conv.ID})
}

// getConversation handles GET /api/conversation/:conversationId. Unknown
// conversations have no messages.
func (s *Server) getConversation(c *gin.Context) {
	msgs, err := s.store.Messages(c.Request.Context(), c.Param("conversationId"))
	if errors.Is(err, core.ErrNotFound) {
		msgs = []core.Message{}
	} else if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
