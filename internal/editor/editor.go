// Package editor implements the card editor: a small state machine around
// a card form whose every change is recorded in the card history, plus a
// rich-text comment composer that keeps the user's selection across
// toolbar clicks.
package editor

import (
	"errors"
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"servicos/internal/board"
	"servicos/internal/i18n"
	"servicos/internal/models"
	"servicos/internal/richtext"
)

var (
	ErrNotOpen             = errors.New("editor is not open")
	ErrAlreadyOpen         = errors.New("editor is already open")
	ErrUnknownField        = errors.New("unknown field")
	ErrInvalidValue        = errors.New("invalid value")
	ErrInvalidKind         = errors.New("invalid attachment kind")
	ErrInvalidFormat       = errors.New("invalid format")
	ErrUnsavedChanges      = errors.New(i18n.T(i18n.UnsavedChanges))
	ErrTitleRequired       = errors.New(i18n.T(i18n.IsRequired, i18n.T(i18n.FieldTitle)))
	ErrDescriptionRequired = errors.New(i18n.T(i18n.IsRequired, i18n.T(i18n.FieldDescription)))
)

// History glyphs.
const (
	IconEdit     = "✏️"
	IconComment  = "💬"
	IconImage    = "📷"
	IconDocument = "📎"
)

// State is the editor lifecycle state.
type State int

const (
	StateClosed State = iota
	StateOpenForCreate
	StateOpenForEdit
)

func (s State) String() string {
	switch s {
	case StateOpenForCreate:
		return "create"
	case StateOpenForEdit:
		return "edit"
	}
	return "closed"
}

// MarshalText lets the state travel as its name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Toolbar mirrors the toggles shown above the comment composer.
type Toolbar struct {
	Bold     bool   `json:"bold"`
	Italic   bool   `json:"italic"`
	FontSize int    `json:"fontSize"`
	Color    string `json:"color"`
}

func defaultToolbar() Toolbar {
	return Toolbar{FontSize: richtext.DefaultFontSize, Color: richtext.Palette[0]}
}

// File is an uploaded file already stored by the caller.
type File struct {
	ID       string
	Name     string
	MimeType string
	URL      string
}

// Submission is what a successful submit hands to the board.
type Submission struct {
	CardID string
	Data   board.CardData
}

// Editor holds the transient state of one card being created or edited.
type Editor struct {
	state    State
	cardID   string
	form     Form
	baseline Form

	draft     richtext.Document
	selection richtext.Tracker
	toolbar   Toolbar

	now        func() time.Time
	newID      func() string
	newEventID func() string
}

// Option configures an Editor.
type Option func(*Editor)

// WithClock overrides the time source for comments and history events.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) { e.now = now }
}

// WithIDFunc overrides the id generator for comments and attachments.
func WithIDFunc(newID func() string) Option {
	return func(e *Editor) { e.newID = newID }
}

// WithEventIDFunc overrides the id generator for history events.
func WithEventIDFunc(newID func() string) Option {
	return func(e *Editor) { e.newEventID = newID }
}

// New returns a closed editor.
func New(opts ...Option) *Editor {
	e := &Editor{
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
		newEventID: func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	e.reset()
	return e
}

func (e *Editor) reset() {
	e.state = StateClosed
	e.cardID = ""
	e.form = DefaultForm()
	e.baseline = DefaultForm()
	e.draft = richtext.Document{}
	e.selection.Clear()
	e.toolbar = defaultToolbar()
}

// State returns the lifecycle state.
func (e *Editor) State() State { return e.state }

// CardID returns the id of the card being edited, empty when creating.
func (e *Editor) CardID() string { return e.cardID }

// Form returns a copy of the current form.
func (e *Editor) Form() Form { return e.form.Clone() }

// Draft returns a copy of the comment being composed.
func (e *Editor) Draft() richtext.Document { return e.draft.Clone() }

// Toolbar returns the toolbar toggles.
func (e *Editor) Toolbar() Toolbar { return e.toolbar }

// SavedSelection returns the last selection recorded in the composer.
func (e *Editor) SavedSelection() (richtext.Range, bool) { return e.selection.Saved() }

func (e *Editor) isOpen() bool { return e.state != StateClosed }

// OpenCreate opens the editor on an empty form.
func (e *Editor) OpenCreate() error {
	if e.isOpen() {
		return ErrAlreadyOpen
	}
	e.reset()
	e.state = StateOpenForCreate
	return nil
}

// OpenEdit opens the editor on a copy of card as currently saved.
func (e *Editor) OpenEdit(card models.Card) error {
	if e.isOpen() {
		return ErrAlreadyOpen
	}
	e.reset()
	e.state = StateOpenForEdit
	e.cardID = card.ID
	e.form = FormFromCard(card)
	e.baseline = e.form.Clone()
	return nil
}

// transition runs one form mutation and appends the history it produced.
func (e *Editor) transition(fn func(Form) (Form, []models.HistoryEvent, error)) error {
	if !e.isOpen() {
		return ErrNotOpen
	}
	next, events, err := fn(e.form.Clone())
	if err != nil {
		return err
	}
	next.History = append(next.History, events...)
	e.form = next
	return nil
}

func (e *Editor) event(icon, description string) models.HistoryEvent {
	return models.HistoryEvent{
		ID:          e.newEventID(),
		Date:        e.now(),
		Icon:        icon,
		Description: description,
	}
}

// SetField changes one scalar field and logs the change. Writing the value
// a field already holds is not a change and logs nothing.
func (e *Editor) SetField(field Field, value string) error {
	return e.transition(func(f Form) (Form, []models.HistoryEvent, error) {
		if _, ok := fieldLabels[field]; !ok {
			return f, nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
		if f.get(field) == value {
			return f, nil, nil
		}
		next, err := f.set(field, value)
		if err != nil {
			return f, nil, err
		}

		description := i18n.T(i18n.FieldChanged, field.Label())
		if field == FieldPriority {
			description = i18n.T(i18n.FieldChangedTo, field.Label(), i18n.T(priorityLabels[next.Priority]))
		}
		return next, []models.HistoryEvent{e.event(IconEdit, description)}, nil
	})
}

// InsertText types text into the composer at offset.
func (e *Editor) InsertText(offset int, text string) error {
	if !e.isOpen() {
		return ErrNotOpen
	}
	if offset < 0 {
		offset = 0
	}
	if n := e.draft.Len(); offset > n {
		offset = n
	}
	e.draft = richtext.Insert(e.draft, offset, text)
	e.selection.Inserted(offset, utf8.RuneCountInString(text))
	return nil
}

// DeleteText removes the composer text covered by rng.
func (e *Editor) DeleteText(rng richtext.Range) error {
	if !e.isOpen() {
		return ErrNotOpen
	}
	e.draft = richtext.Delete(e.draft, rng)
	e.selection.Clear()
	return nil
}

// Select records the selection reported by the composer on pointer-up or
// key-up.
func (e *Editor) Select(rng richtext.Range) error {
	if !e.isOpen() {
		return ErrNotOpen
	}
	e.selection.Save(rng.Clamp(e.draft.Len()))
	return nil
}

// Format runs a toolbar command. live is the selection the composer holds
// right now; when it is nil or collapsed, focus has moved to the toolbar
// and the saved selection is restored instead. Color is only read for the
// color command.
func (e *Editor) Format(cmd richtext.Command, color string, live *richtext.Range) error {
	if !e.isOpen() {
		return ErrNotOpen
	}

	f := richtext.Format{Command: cmd}
	switch cmd {
	case richtext.CommandBold:
		e.toolbar.Bold = !e.toolbar.Bold
	case richtext.CommandItalic:
		e.toolbar.Italic = !e.toolbar.Italic
	case richtext.CommandFontSize:
		e.toolbar.FontSize = richtext.NextFontSize(e.toolbar.FontSize)
		f.Size = e.toolbar.FontSize
	case richtext.CommandColor:
		if !slices.Contains(richtext.Palette, color) {
			return fmt.Errorf("%w: color %q", ErrInvalidFormat, color)
		}
		e.toolbar.Color = color
		f.Color = color
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, cmd)
	}

	rng, ok := e.selection.Resolve(live)
	if !ok {
		return nil
	}
	e.draft = richtext.Apply(e.draft, rng, f)
	if cmd == richtext.CommandColor {
		e.selection.Clear()
	}
	return nil
}

// AddComment turns the composer contents into a comment. A blank composer
// is ignored and reports false.
func (e *Editor) AddComment() (models.Comment, bool, error) {
	if !e.isOpen() {
		return models.Comment{}, false, ErrNotOpen
	}
	if e.draft.IsBlank() {
		return models.Comment{}, false, nil
	}

	comment := models.Comment{
		ID:          e.newID(),
		Text:        richtext.HTML(e.draft),
		Body:        e.draft.Clone(),
		Date:        e.now(),
		Attachments: []models.Attachment{},
	}
	err := e.transition(func(f Form) (Form, []models.HistoryEvent, error) {
		f.Comments = append(f.Comments, comment)
		return f, []models.HistoryEvent{e.event(IconComment, i18n.T(i18n.CommentAdded))}, nil
	})
	if err != nil {
		return models.Comment{}, false, err
	}
	e.draft = richtext.Document{}
	e.selection.Clear()
	return comment.Clone(), true, nil
}

// DeleteComment removes a comment. Deletions are not logged.
func (e *Editor) DeleteComment(id string) (bool, error) {
	found := false
	err := e.transition(func(f Form) (Form, []models.HistoryEvent, error) {
		f.Comments = slices.DeleteFunc(f.Comments, func(c models.Comment) bool {
			if c.ID == id {
				found = true
				return true
			}
			return false
		})
		return f, nil, nil
	})
	return found, err
}

// AddAttachments attaches files, logging one history event per file. The
// first file's name is also dropped into the composer.
func (e *Editor) AddAttachments(kind models.AttachmentKind, files []File) ([]models.Attachment, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	icon, key := IconDocument, i18n.DocumentAttached
	if kind == models.AttachmentImage {
		icon, key = IconImage, i18n.ImageAttached
	}

	var added []models.Attachment
	err := e.transition(func(f Form) (Form, []models.HistoryEvent, error) {
		events := make([]models.HistoryEvent, 0, len(files))
		for _, file := range files {
			id := file.ID
			if id == "" {
				id = e.newID()
			}
			att := models.Attachment{
				ID:       id,
				Name:     file.Name,
				MimeType: file.MimeType,
				Kind:     kind,
				URL:      file.URL,
			}
			added = append(added, att)
			f.Attachments = append(f.Attachments, att)
			events = append(events, e.event(icon, i18n.T(key, file.Name)))
		}
		return f, events, nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) > 0 {
		e.draft = richtext.Append(e.draft, "["+files[0].Name+"]", richtext.Style{})
	}
	return added, nil
}

// AddedAttachments returns the attachments added since the editor was
// opened. Their uploads are orphaned if the form is discarded.
func (e *Editor) AddedAttachments() []models.Attachment {
	known := make(map[string]bool, len(e.baseline.Attachments))
	for _, a := range e.baseline.Attachments {
		known[a.ID] = true
	}
	var added []models.Attachment
	for _, a := range e.form.Attachments {
		if !known[a.ID] {
			added = append(added, a)
		}
	}
	return added
}

// HasChanges reports whether the form differs from what it was opened
// with: a field edit, or a comment or attachment added or removed.
func (e *Editor) HasChanges() bool {
	if !e.isOpen() {
		return false
	}
	return fieldsDiffer(e.form, e.baseline) ||
		commentIDs(e.form.Comments) != commentIDs(e.baseline.Comments) ||
		attachmentIDs(e.form.Attachments) != attachmentIDs(e.baseline.Attachments)
}

// Prepare validates the form and returns the data to upsert without
// closing the editor. CardID is empty for a new card.
func (e *Editor) Prepare() (Submission, error) {
	if !e.isOpen() {
		return Submission{}, ErrNotOpen
	}
	if err := e.form.validate(); err != nil {
		return Submission{}, err
	}
	data, err := e.form.CardData()
	if err != nil {
		return Submission{}, err
	}
	return Submission{CardID: e.cardID, Data: data}, nil
}

// Finish closes the editor once a prepared submission has been stored.
func (e *Editor) Finish() {
	e.reset()
}

// Submit prepares the submission and closes the editor.
func (e *Editor) Submit() (Submission, error) {
	sub, err := e.Prepare()
	if err != nil {
		return Submission{}, err
	}
	e.Finish()
	return sub, nil
}

// Cancel closes the editor, discarding the form. With unsaved changes the
// caller must pass confirmed, otherwise ErrUnsavedChanges is returned and
// the editor stays open.
func (e *Editor) Cancel(confirmed bool) error {
	if !e.isOpen() {
		return nil
	}
	if e.HasChanges() && !confirmed {
		return ErrUnsavedChanges
	}
	e.reset()
	return nil
}
