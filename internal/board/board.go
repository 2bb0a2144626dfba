// Package board holds the column/card state of the services board.
//
// A Board owns every card. Each card lives in exactly one of the fixed
// columns; moving a card removes it from one column and appends it to
// another under a single lock, so readers never observe it in two places.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"servicos/internal/models"
)

// ErrDuplicateCard is returned by Seed for a card whose id or identifier
// is already on the board.
var ErrDuplicateCard = errors.New("card already on the board")

// Repository persists card placement. Implementations must keep a card's
// position when it is saved into the column it already belongs to and
// append it to the end of a column it is entering.
type Repository interface {
	ListCards(ctx context.Context) ([]Placement, error)
	PutCard(ctx context.Context, card models.Card, columnID string) error
}

// Placement is a stored card together with its column.
type Placement struct {
	ColumnID string
	Card     models.Card
}

// CardData carries the editable fields of a card as submitted by the editor.
type CardData struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    models.Priority
	AssignedTo  string
	Comments    []models.Comment
	Attachments []models.Attachment
	History     []models.HistoryEvent
}

// ColumnSnapshot is a read-only copy of one column.
type ColumnSnapshot struct {
	ID    string        `json:"id"`
	Title string        `json:"title"`
	Items []models.Card `json:"items"`
}

// Board is the single source of truth for columns and cards.
type Board struct {
	mu      sync.RWMutex
	columns map[string]*models.Column
	repo    Repository
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// Option configures a Board.
type Option func(*Board)

// WithRepository writes every mutation through to repo before it becomes visible.
func WithRepository(repo Repository) Option {
	return func(b *Board) { b.repo = repo }
}

// WithLogger sets the logger used for mutation traces.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Board) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithClock overrides the time source used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// WithIDFunc overrides how internal card ids are generated.
func WithIDFunc(newID func() string) Option {
	return func(b *Board) { b.newID = newID }
}

// New creates a board with the four fixed, empty columns.
func New(opts ...Option) *Board {
	b := &Board{
		columns: make(map[string]*models.Column, len(models.ColumnOrder)),
		logger:  slog.Default(),
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
	for _, id := range models.ColumnOrder {
		b.columns[id] = &models.Column{Title: models.ColumnTitles[id], Items: []models.Card{}}
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load replaces the in-memory columns with the repository contents.
func (b *Board) Load(ctx context.Context) error {
	if b.repo == nil {
		return nil
	}
	placements, err := b.repo.ListCards(ctx)
	if err != nil {
		return fmt.Errorf("load board: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, col := range b.columns {
		col.Items = []models.Card{}
	}
	for _, p := range placements {
		col, ok := b.columns[p.ColumnID]
		if !ok {
			b.logger.Warn("skipping card in unknown column", "card", p.Card.ID, "column", p.ColumnID)
			continue
		}
		col.Items = append(col.Items, p.Card)
	}
	return nil
}

// Empty reports whether no card exists in any column.
func (b *Board) Empty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, col := range b.columns {
		if len(col.Items) > 0 {
			return false
		}
	}
	return true
}

// Snapshot returns a deep copy of the columns in display order.
func (b *Board) Snapshot() []ColumnSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]ColumnSnapshot, 0, len(models.ColumnOrder))
	for _, id := range models.ColumnOrder {
		col := b.columns[id]
		items := make([]models.Card, len(col.Items))
		for i, card := range col.Items {
			items[i] = card.Clone()
		}
		out = append(out, ColumnSnapshot{ID: id, Title: col.Title, Items: items})
	}
	return out
}

// Find returns a copy of the card with cardID and the column holding it.
func (b *Board) Find(cardID string) (models.Card, string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	columnID, idx, ok := b.locate(cardID)
	if !ok {
		return models.Card{}, "", false
	}
	return b.columns[columnID].Items[idx].Clone(), columnID, true
}

func (b *Board) locate(cardID string) (string, int, bool) {
	for _, id := range models.ColumnOrder {
		if idx := indexOf(b.columns[id].Items, cardID); idx >= 0 {
			return id, idx, true
		}
	}
	return "", -1, false
}

func indexOf(items []models.Card, cardID string) int {
	for i, item := range items {
		if item.ID == cardID {
			return i
		}
	}
	return -1
}

// MoveCard moves a card from sourceColumnID to the end of targetColumnID.
// Dropping a card onto its own column, or naming a card that is not in the
// source column, is a no-op and reports false without an error.
func (b *Board) MoveCard(ctx context.Context, cardID, sourceColumnID, targetColumnID string) (bool, error) {
	if sourceColumnID == targetColumnID {
		return false, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	source, ok := b.columns[sourceColumnID]
	if !ok {
		return false, nil
	}
	target, ok := b.columns[targetColumnID]
	if !ok {
		return false, nil
	}
	idx := indexOf(source.Items, cardID)
	if idx < 0 {
		return false, nil
	}

	card := source.Items[idx]
	if b.repo != nil {
		if err := b.repo.PutCard(ctx, card, targetColumnID); err != nil {
			return false, fmt.Errorf("move card %s: %w", cardID, err)
		}
	}

	source.Items = append(source.Items[:idx:idx], source.Items[idx+1:]...)
	target.Items = append(target.Items, card)

	b.logger.Info("card moved", "card", card.Identifier, "from", sourceColumnID, "to", targetColumnID)
	return true, nil
}

// UpsertCard saves editor output. With existingID set, the form fields are
// merged over that card in place and its column is kept; an unknown id is a
// no-op. Without an id a new card gets an identifier, a creation time and a
// place at the end of the first column. The bool reports whether a card was
// written.
func (b *Board) UpsertCard(ctx context.Context, data CardData, existingID string) (models.Card, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existingID != "" {
		columnID, idx, ok := b.locate(existingID)
		if !ok {
			return models.Card{}, false, nil
		}
		updated := merge(b.columns[columnID].Items[idx], data)
		if b.repo != nil {
			if err := b.repo.PutCard(ctx, updated, columnID); err != nil {
				return models.Card{}, false, fmt.Errorf("update card %s: %w", existingID, err)
			}
		}
		b.columns[columnID].Items[idx] = updated
		b.logger.Info("card updated", "card", updated.Identifier)
		return updated.Clone(), true, nil
	}

	card := merge(models.Card{
		ID:         b.newID(),
		Identifier: NextIdentifier(b.allCards()),
		DateInicio: b.now(),
	}, data)
	if b.repo != nil {
		if err := b.repo.PutCard(ctx, card, models.ColumnEsperandoInicio); err != nil {
			return models.Card{}, false, fmt.Errorf("create card: %w", err)
		}
	}
	col := b.columns[models.ColumnEsperandoInicio]
	col.Items = append(col.Items, card)
	b.logger.Info("card created", "card", card.Identifier)
	return card.Clone(), true, nil
}

// Seed places card in columnID keeping its identifier. Missing ids and
// creation times are filled in. A card whose id or identifier is taken is
// rejected with ErrDuplicateCard.
func (b *Board) Seed(ctx context.Context, columnID string, card models.Card) (models.Card, error) {
	if !models.ValidColumn(columnID) {
		return models.Card{}, fmt.Errorf("unknown column %q", columnID)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if card.ID == "" {
		card.ID = b.newID()
	}
	for _, existing := range b.allCards() {
		if existing.ID == card.ID || (card.Identifier != "" && existing.Identifier == card.Identifier) {
			return models.Card{}, fmt.Errorf("%w: %s %s", ErrDuplicateCard, card.ID, card.Identifier)
		}
	}
	if card.DateInicio.IsZero() {
		card.DateInicio = b.now()
	}
	if !card.Priority.IsValid() {
		card.Priority = models.DefaultPriority
	}
	if card.Identifier == "" {
		card.Identifier = NextIdentifier(b.allCards())
	}
	card = card.Clone()

	if b.repo != nil {
		if err := b.repo.PutCard(ctx, card, columnID); err != nil {
			return models.Card{}, fmt.Errorf("seed card: %w", err)
		}
	}
	col := b.columns[columnID]
	col.Items = append(col.Items, card)
	return card.Clone(), nil
}

func (b *Board) allCards() []models.Card {
	var cards []models.Card
	for _, id := range models.ColumnOrder {
		cards = append(cards, b.columns[id].Items...)
	}
	return cards
}

func merge(card models.Card, data CardData) models.Card {
	card.Title = data.Title
	card.Description = data.Description
	card.DueDate = data.DueDate
	card.Priority = data.Priority
	if !card.Priority.IsValid() {
		card.Priority = models.DefaultPriority
	}
	card.AssignedTo = data.AssignedTo
	card.Comments = data.Comments
	card.Attachments = data.Attachments
	card.History = data.History
	return card.Clone()
}
