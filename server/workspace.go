package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CreateWorkspaceRequest is the body of POST /api/workspace.
type CreateWorkspaceRequest struct {
	Name string `json:"name"`
}

// listWorkspaces handles GET /api/workspace.
func (s *Server) listWorkspaces(c *gin.Context) {
	userID, _ := getUserID(c)

	workspaces, err := s.store.ListWorkspaces(c.Request.Context(), userID)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspaces": workspaces})
}

// createWorkspace handles POST /api/workspace.
func (s *Server) createWorkspace(c *gin.Context) {
	userID, _ := getUserID(c)

	var req CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		abortWithError(c, http.StatusBadRequest, "Name is required")
		return
	}

	w, err := s.store.CreateWorkspace(c.Request.Context(), userID, strings.TrimSpace(req.Name))
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspace": w})
}
