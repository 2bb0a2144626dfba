package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountStatic serves the built board front end. Unknown non-API paths fall
// back to index.html so client-side views survive a reload.
func (s *Server) mountStatic() {
	dir := s.cfg.StaticDir
	s.engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") || dir == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	})

	if dir == "" {
		s.logger.Warn("static directory not configured; API only mode")
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		s.logger.Warn("static directory missing; API only mode", "path", dir, "error", err)
		s.cfg.StaticDir = ""
		dir = ""
		return
	}

	indexPath := filepath.Join(dir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		s.logger.Warn("index.html not found", "path", indexPath, "error", err)
	} else {
		s.engine.GET("/", func(c *gin.Context) {
			c.File(indexPath)
		})
	}

	assetsDir := filepath.Join(dir, "assets")
	if _, err := os.Stat(assetsDir); err == nil {
		s.engine.StaticFS("/assets", gin.Dir(assetsDir, false))
	}

	favicon := filepath.Join(dir, "favicon.ico")
	if _, err := os.Stat(favicon); err == nil {
		s.engine.StaticFile("/favicon.ico", favicon)
	}
}
