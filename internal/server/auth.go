package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"servicos/internal/i18n"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// handleLogin checks the configured credential pair. It only gates the
// front end; no session or token is issued.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Username != s.cfg.LoginUser || req.Password != s.cfg.LoginPassword {
		s.respondError(c, http.StatusUnauthorized, errors.New(i18n.T(i18n.InvalidLogin)))
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "ok", "username": req.Username})
}
