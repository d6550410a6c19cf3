package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/justanuragmaurya/chat-app/logging"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
}

// loggingMiddleware logs one line per request.
func loggingMiddleware(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if userID, ok := getUserID(c); ok {
			args = append(args, "user_id", userID)
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("http.request", args...)
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.Warn("http.request", args...)
		default:
			logger.Info("http.request", args...)
		}
	}
}

// recovery converts handler panics into 500 responses.
func recovery(logger logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		logger.Error("http.panic", "path", c.Request.URL.Path, "recover", rec)
		abortWithError(c, http.StatusInternalServerError, "Internal server error")
	})
}
