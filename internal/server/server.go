package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"servicos/internal/blobs"
	"servicos/internal/board"
	"servicos/internal/editor"
)

// Config carries the settings the HTTP layer needs.
type Config struct {
	StaticDir     string
	LoginUser     string
	LoginPassword string
	// HealthCheck, when set, is consulted by the readiness endpoint.
	HealthCheck func(ctx context.Context) error
}

// Server provides HTTP handlers for the services board.
type Server struct {
	engine   *gin.Engine
	board    *board.Board
	sessions *editor.Sessions
	blobs    *blobs.Store
	logger   *slog.Logger
	cfg      Config
	now      func() time.Time
}

// New constructs the HTTP server with routes and middleware configured.
func New(b *board.Board, sessions *editor.Sessions, files *blobs.Store, logger *slog.Logger, cfg Config) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api/healthz"))
	if limit := files.MaxBytes(); limit > 0 {
		router.MaxMultipartMemory = limit
	}

	srv := &Server{
		engine:   router,
		board:    b,
		sessions: sessions,
		blobs:    files,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}

	sessions.OnEvict(func(sess *editor.Session) {
		_ = sess.Do(func(e *editor.Editor) error {
			srv.releaseUploads(e.AddedAttachments())
			return nil
		})
	})

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)
		api.POST("/login", s.handleLogin)

		api.GET("/board", s.handleBoard)
		api.POST("/board/move", s.handleMoveCard)
		api.GET("/cards/:id", s.handleGetCard)

		ed := api.Group("/editor")
		{
			ed.POST("", s.handleOpenEditor)
			ed.GET(":id", s.handleGetEditor)
			ed.PATCH(":id/fields", s.handleSetField)
			ed.POST(":id/draft", s.handleInsertText)
			ed.POST(":id/draft/delete", s.handleDeleteText)
			ed.POST(":id/selection", s.handleSelect)
			ed.POST(":id/format", s.handleFormat)
			ed.POST(":id/comments", s.handleAddComment)
			ed.DELETE(":id/comments/:commentId", s.handleDeleteComment)
			ed.POST(":id/attachments", s.handleAddAttachments)
			ed.POST(":id/submit", s.handleSubmit)
			ed.POST(":id/cancel", s.handleCancel)
		}

		api.GET("/blobs/:id", s.handleGetBlob)
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	if s.cfg.HealthCheck != nil {
		if err := s.cfg.HealthCheck(c.Request.Context()); err != nil {
			s.respondError(c, http.StatusServiceUnavailable, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(c.Request.Context(), level, "request failed",
		slog.String("path", c.FullPath()),
		slog.Int("status", status),
		slog.String("error", err.Error()))
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
