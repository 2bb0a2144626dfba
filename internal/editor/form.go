package editor

import (
	"fmt"
	"strings"
	"time"

	"servicos/internal/board"
	"servicos/internal/i18n"
	"servicos/internal/models"
)

// DateLayout is the format of the due date field.
const DateLayout = "2006-01-02"

// Field names an editable scalar of the card form.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldDueDate     Field = "dueDate"
	FieldPriority    Field = "priority"
	FieldAssignedTo  Field = "assignedTo"
)

var fieldLabels = map[Field]string{
	FieldTitle:       i18n.FieldTitle,
	FieldDescription: i18n.FieldDescription,
	FieldDueDate:     i18n.FieldDueDate,
	FieldPriority:    i18n.FieldPriority,
	FieldAssignedTo:  i18n.FieldAssignedTo,
}

var priorityLabels = map[models.Priority]string{
	models.PriorityLow:    i18n.PriorityLow,
	models.PriorityMedium: i18n.PriorityMedium,
	models.PriorityHigh:   i18n.PriorityHigh,
}

// Label returns the localized name of the field.
func (f Field) Label() string {
	return i18n.T(fieldLabels[f])
}

// Form is the in-progress state of one card.
type Form struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	DueDate     string                `json:"dueDate"`
	Priority    models.Priority       `json:"priority"`
	AssignedTo  string                `json:"assignedTo"`
	Comments    []models.Comment      `json:"comments"`
	Attachments []models.Attachment   `json:"attachments"`
	History     []models.HistoryEvent `json:"history"`
}

// DefaultForm is the form shown for a new service.
func DefaultForm() Form {
	return Form{
		Priority:    models.DefaultPriority,
		Comments:    []models.Comment{},
		Attachments: []models.Attachment{},
		History:     []models.HistoryEvent{},
	}
}

// FormFromCard copies a saved card into a fresh form.
func FormFromCard(card models.Card) Form {
	card = card.Clone()
	f := Form{
		Title:       card.Title,
		Description: card.Description,
		Priority:    card.Priority,
		AssignedTo:  card.AssignedTo,
		Comments:    card.Comments,
		Attachments: card.Attachments,
		History:     card.History,
	}
	if card.DueDate != nil {
		f.DueDate = card.DueDate.Format(DateLayout)
	}
	if !f.Priority.IsValid() {
		f.Priority = models.DefaultPriority
	}
	return f
}

// Clone returns a copy of f that shares no slices with it.
func (f Form) Clone() Form {
	out := f
	out.Comments = make([]models.Comment, len(f.Comments))
	for i, c := range f.Comments {
		out.Comments[i] = c.Clone()
	}
	out.Attachments = append([]models.Attachment{}, f.Attachments...)
	out.History = append([]models.HistoryEvent{}, f.History...)
	return out
}

func (f Form) get(field Field) string {
	switch field {
	case FieldTitle:
		return f.Title
	case FieldDescription:
		return f.Description
	case FieldDueDate:
		return f.DueDate
	case FieldPriority:
		return string(f.Priority)
	case FieldAssignedTo:
		return f.AssignedTo
	}
	return ""
}

// set validates value and stores it into field.
func (f Form) set(field Field, value string) (Form, error) {
	switch field {
	case FieldTitle:
		f.Title = value
	case FieldDescription:
		f.Description = value
	case FieldDueDate:
		if value != "" {
			if _, err := time.Parse(DateLayout, value); err != nil {
				return f, fmt.Errorf("%w: due date %q", ErrInvalidValue, value)
			}
		}
		f.DueDate = value
	case FieldPriority:
		p := models.Priority(value)
		if !p.IsValid() {
			return f, fmt.Errorf("%w: priority %q", ErrInvalidValue, value)
		}
		f.Priority = p
	case FieldAssignedTo:
		f.AssignedTo = value
	default:
		return f, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return f, nil
}

// fieldsDiffer reports whether any scalar field differs between a and b.
func fieldsDiffer(a, b Form) bool {
	for field := range fieldLabels {
		if a.get(field) != b.get(field) {
			return true
		}
	}
	return false
}

func commentIDs(comments []models.Comment) string {
	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	return strings.Join(ids, ",")
}

func attachmentIDs(attachments []models.Attachment) string {
	ids := make([]string, len(attachments))
	for i, a := range attachments {
		ids[i] = a.ID
	}
	return strings.Join(ids, ",")
}

// validate enforces the required fields of the form.
func (f Form) validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(f.Description) == "" {
		return ErrDescriptionRequired
	}
	return nil
}

// CardData converts the form into the board's upsert payload.
func (f Form) CardData() (board.CardData, error) {
	data := board.CardData{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Priority:    f.Priority,
		AssignedTo:  strings.TrimSpace(f.AssignedTo),
	}
	if f.DueDate != "" {
		due, err := time.Parse(DateLayout, f.DueDate)
		if err != nil {
			return board.CardData{}, fmt.Errorf("%w: due date %q", ErrInvalidValue, f.DueDate)
		}
		data.DueDate = &due
	}
	c := f.Clone()
	data.Comments = c.Comments
	data.Attachments = c.Attachments
	data.History = c.History
	return data, nil
}
