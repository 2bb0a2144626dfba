package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"servicos/internal/models"
)

type cardView struct {
	models.Card
	DaysOpen int `json:"daysOpen"`
}

type columnView struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Items []cardView `json:"items"`
}

type moveRequest struct {
	CardID         string `json:"cardId" binding:"required"`
	SourceColumnID string `json:"sourceColumnId" binding:"required"`
	TargetColumnID string `json:"targetColumnId" binding:"required"`
}

// boardView renders the current columns; days open is recomputed on every call.
func (s *Server) boardView() []columnView {
	now := s.now()
	snap := s.board.Snapshot()
	out := make([]columnView, 0, len(snap))
	for _, col := range snap {
		items := make([]cardView, 0, len(col.Items))
		for _, card := range col.Items {
			items = append(items, newCardView(card, now))
		}
		out = append(out, columnView{ID: col.ID, Title: col.Title, Items: items})
	}
	return out
}

func newCardView(card models.Card, now time.Time) cardView {
	return cardView{Card: card, DaysOpen: models.DaysOpen(card.DateInicio, now)}
}

// handleBoard returns every column with its cards in display order.
func (s *Server) handleBoard(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"columns": s.boardView()})
}

// handleMoveCard is the drop target of a drag gesture. Dropping a card on
// its own column or naming a card that is not there is accepted silently.
func (s *Server) handleMoveCard(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	moved, err := s.board.MoveCard(c.Request.Context(), req.CardID, req.SourceColumnID, req.TargetColumnID)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"moved": moved, "columns": s.boardView()})
}

// handleGetCard returns one card and the column holding it.
func (s *Server) handleGetCard(c *gin.Context) {
	card, columnID, ok := s.board.Find(c.Param("id"))
	if !ok {
		s.respondError(c, http.StatusNotFound, errors.New("card not found"))
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"card": newCardView(card, s.now()), "columnId": columnID})
}
