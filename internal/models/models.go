package models

import (
	"math"
	"time"

	"servicos/internal/richtext"
)

// Priority ranks how urgent a service is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DefaultPriority is assigned to every new card form.
const DefaultPriority = PriorityMedium

// IsValid reports whether p is one of the known priorities.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// AttachmentKind distinguishes pictures from other documents.
type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentDocument AttachmentKind = "document"
)

// IsValid reports whether k is a supported attachment kind.
func (k AttachmentKind) IsValid() bool {
	return k == AttachmentImage || k == AttachmentDocument
}

// Card represents a single prosthetics service on the board.
type Card struct {
	ID          string         `json:"id"`
	Identifier  string         `json:"identifier"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	DueDate     *time.Time     `json:"dueDate,omitempty"`
	Priority    Priority       `json:"priority"`
	AssignedTo  string         `json:"assignedTo"`
	DateInicio  time.Time      `json:"dateInicio"`
	Comments    []Comment      `json:"comments"`
	Attachments []Attachment   `json:"attachments"`
	History     []HistoryEvent `json:"history"`
}

// Clone returns a copy of c that shares no slices with it.
func (c Card) Clone() Card {
	out := c
	if c.DueDate != nil {
		due := *c.DueDate
		out.DueDate = &due
	}
	out.Comments = make([]Comment, len(c.Comments))
	for i, cm := range c.Comments {
		out.Comments[i] = cm.Clone()
	}
	out.Attachments = append([]Attachment{}, c.Attachments...)
	out.History = append([]HistoryEvent{}, c.History...)
	return out
}

// Comment is a rich-text note owned by a card.
type Comment struct {
	ID          string            `json:"id"`
	Text        string            `json:"text"`
	Body        richtext.Document `json:"body"`
	Date        time.Time         `json:"date"`
	Attachments []Attachment      `json:"attachments"`
}

// Clone returns a deep copy of the comment.
func (c Comment) Clone() Comment {
	out := c
	out.Body = c.Body.Clone()
	out.Attachments = append([]Attachment{}, c.Attachments...)
	return out
}

// HistoryEvent is one entry of a card's append-only audit trail.
type HistoryEvent struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
}

// Attachment references an uploaded file. URL is only valid while the
// process that received the upload is running.
type Attachment struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	MimeType string         `json:"type"`
	Kind     AttachmentKind `json:"kind"`
	URL      string         `json:"url"`
}

// Column is one production stage and the cards currently in it.
type Column struct {
	Title string `json:"title"`
	Items []Card `json:"items"`
}

// Fixed column identifiers, in display order.
const (
	ColumnEsperandoInicio = "esperando-inicio"
	ColumnEmProducao      = "em-producao"
	ColumnEmTransporte    = "em-transporte"
	ColumnFinalizado      = "finalizado"
)

// ColumnOrder lists the board columns left to right.
var ColumnOrder = []string{
	ColumnEsperandoInicio,
	ColumnEmProducao,
	ColumnEmTransporte,
	ColumnFinalizado,
}

// ColumnTitles maps each column id to its display title.
var ColumnTitles = map[string]string{
	ColumnEsperandoInicio: "Esperando Início",
	ColumnEmProducao:      "Em Produção",
	ColumnEmTransporte:    "Em Transporte",
	ColumnFinalizado:      "Finalizado",
}

// ValidColumn reports whether id names one of the fixed columns.
func ValidColumn(id string) bool {
	_, ok := ColumnTitles[id]
	return ok
}

// DaysOpen returns the number of started days between dateInicio and now.
func DaysOpen(dateInicio, now time.Time) int {
	diff := now.Sub(dateInicio)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(float64(diff) / float64(24*time.Hour)))
}
