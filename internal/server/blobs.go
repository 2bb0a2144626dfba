package server

import (
	"errors"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"servicos/internal/blobs"
)

// handleGetBlob serves an uploaded attachment inline.
func (s *Server) handleGetBlob(c *gin.Context) {
	blob, err := s.blobs.Get(c.Param("id"))
	if errors.Is(err, blobs.ErrNotFound) {
		s.respondError(c, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": blob.Name}))
	c.Data(http.StatusOK, blob.MimeType, blob.Data)
}
