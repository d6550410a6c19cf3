// Package server exposes the chat HTTP surface: the streamed chat endpoint
// plus conversation and workspace management.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/justanuragmaurya/chat-app/core"
	"github.com/justanuragmaurya/chat-app/logging"
	"github.com/justanuragmaurya/chat-app/stream"
)

// Options configures a Server.
type Options struct {
	Addr           string
	AllowedOrigins []string
	// Identity resolves bearer credentials; nil treats every caller as anonymous.
	Identity Identity
	Logger   logging.Logger
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
	// Debug enables gin debug mode.
	Debug bool
}

// Server wires the HTTP routes to the engine and the store.
type Server struct {
	store    core.ConversationStore
	pipeline *stream.Pipeline
	identity Identity
	logger   logging.Logger
	router   *gin.Engine
	opts     Options
}

// New creates a server running chats on engine and persisting them in store.
func New(engine core.Engine, store core.ConversationStore, optFns ...func(o *Options)) *Server {
	opts := Options{
		Addr:            ":3000",
		AllowedOrigins:  []string{"*"},
		Logger:          logging.NoOpLogger{},
		ShutdownTimeout: 10 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := logging.OrNoOp(opts.Logger)

	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		store: store,
		pipeline: stream.NewPipeline(engine, store, func(o *stream.PipelineOptions) {
			o.Logger = logger
		}),
		identity: opts.Identity,
		logger:   logger,
		opts:     opts,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(recovery(s.logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  s.opts.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
	}))
	router.Use(loggingMiddleware(s.logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(identify(s.identity))
	{
		api.POST("/chat", s.chat)
		api.GET("/conversation/:conversationId", s.getConversation)
	}

	protected := api.Group("")
	protected.Use(requireUser())
	{
		protected.GET("/conversation", s.listConversations)
		protected.POST("/conversation", s.createConversation)
		protected.GET("/workspace", s.listWorkspaces)
		protected.POST("/workspace", s.createWorkspace)
	}

	return router
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
// In-flight streams finish their persistence before the process exits.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server.shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
