package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"servicos/internal/board"
	"servicos/internal/models"
	"servicos/internal/richtext"
)

var fixedNow = time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)

func newTestEditor(t *testing.T) *Editor {
	t.Helper()
	ids, events := 0, 0
	return New(
		WithClock(func() time.Time { return fixedNow }),
		WithIDFunc(func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		}),
		WithEventIDFunc(func() string {
			events++
			return fmt.Sprintf("ev-%d", events)
		}),
	)
}

func openCreate(t *testing.T) *Editor {
	t.Helper()
	e := newTestEditor(t)
	if err := e.OpenCreate(); err != nil {
		t.Fatalf("OpenCreate: %v", err)
	}
	return e
}

func savedCard() models.Card {
	due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return models.Card{
		ID:          "card-1",
		Identifier:  "PROT-001",
		Title:       "Prótese Lucas",
		Description: "Prótese total superior",
		DueDate:     &due,
		Priority:    models.PriorityHigh,
		AssignedTo:  "Ana",
		DateInicio:  fixedNow.Add(-48 * time.Hour),
		Comments:    []models.Comment{{ID: "c1", Text: "ok"}},
		Attachments: []models.Attachment{{ID: "a1", Name: "molde.pdf"}},
		History:     []models.HistoryEvent{{ID: "h1", Description: "Título foi alterado"}},
	}
}

func TestOpenCreateDefaults(t *testing.T) {
	e := openCreate(t)

	if e.State() != StateOpenForCreate {
		t.Fatalf("state = %s, want create", e.State())
	}
	f := e.Form()
	if f.Title != "" || f.Description != "" || f.DueDate != "" || f.AssignedTo != "" {
		t.Fatalf("expected empty fields, got %+v", f)
	}
	if f.Priority != models.PriorityMedium {
		t.Fatalf("priority = %s, want medium", f.Priority)
	}
	if len(f.Comments) != 0 || len(f.Attachments) != 0 || len(f.History) != 0 {
		t.Fatalf("expected empty collections, got %+v", f)
	}
	if err := e.OpenCreate(); !errors.Is(err, ErrAlreadyOpen) {
		t.Fatalf("reopen err = %v, want ErrAlreadyOpen", err)
	}
}

func TestOpenEditCopiesCard(t *testing.T) {
	e := newTestEditor(t)
	card := savedCard()
	if err := e.OpenEdit(card); err != nil {
		t.Fatalf("OpenEdit: %v", err)
	}

	if e.State() != StateOpenForEdit || e.CardID() != "card-1" {
		t.Fatalf("state=%s card=%s", e.State(), e.CardID())
	}
	f := e.Form()
	if f.Title != card.Title || f.DueDate != "2024-06-01" || f.Priority != models.PriorityHigh || f.AssignedTo != "Ana" {
		t.Fatalf("unexpected form: %+v", f)
	}
	if len(f.Comments) != 1 || len(f.Attachments) != 1 || len(f.History) != 1 {
		t.Fatalf("collections not carried over: %+v", f)
	}

	if err := e.SetField(FieldTitle, "Outro"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if card.Title != "Prótese Lucas" || len(card.History) != 1 {
		t.Fatal("editing mutated the source card")
	}
}

func TestSetFieldPriorityLogsLocalizedValue(t *testing.T) {
	e := openCreate(t)

	if err := e.SetField(FieldPriority, "high"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	history := e.Form().History
	if len(history) != 1 {
		t.Fatalf("expected 1 history event, got %d", len(history))
	}
	ev := history[0]
	if !strings.Contains(ev.Description, "Prioridade") || !strings.Contains(ev.Description, "Alta") {
		t.Fatalf("description = %q", ev.Description)
	}
	if ev.Icon != IconEdit || !ev.Date.Equal(fixedNow) || ev.ID != "ev-1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestSetFieldDescriptions(t *testing.T) {
	tests := []struct {
		field Field
		value string
		want  string
	}{
		{FieldTitle, "Ponte", "Título foi alterado"},
		{FieldDescription, "3 elementos", "Descrição foi alterado"},
		{FieldDueDate, "2024-07-01", "Data de Entrega foi alterado"},
		{FieldAssignedTo, "João", "Responsável foi alterado"},
		{FieldPriority, "low", "Prioridade foi alterado para Baixa"},
	}

	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			e := openCreate(t)
			if err := e.SetField(tt.field, tt.value); err != nil {
				t.Fatalf("SetField: %v", err)
			}
			history := e.Form().History
			if len(history) != 1 || history[0].Description != tt.want {
				t.Fatalf("history = %+v, want %q", history, tt.want)
			}
		})
	}
}

func TestSetFieldEachEditAppends(t *testing.T) {
	e := openCreate(t)
	for _, v := range []string{"P", "Po", "Pon"} {
		if err := e.SetField(FieldTitle, v); err != nil {
			t.Fatalf("SetField: %v", err)
		}
	}
	if err := e.SetField(FieldTitle, "Pon"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if n := len(e.Form().History); n != 3 {
		t.Fatalf("expected 3 events, got %d", n)
	}
}

func TestSetFieldRejectsBadInput(t *testing.T) {
	e := openCreate(t)

	tests := []struct {
		name  string
		field Field
		value string
		want  error
	}{
		{"priority", FieldPriority, "urgent", ErrInvalidValue},
		{"due date", FieldDueDate, "01/07/2024", ErrInvalidValue},
		{"field", Field("color"), "x", ErrUnknownField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := e.SetField(tt.field, tt.value); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if n := len(e.Form().History); n != 0 {
		t.Fatalf("rejected edits logged %d events", n)
	}
	if err := e.SetField(FieldDueDate, ""); err != nil {
		t.Fatalf("clearing due date: %v", err)
	}
}

func TestClosedEditorRejectsEdits(t *testing.T) {
	e := newTestEditor(t)
	if err := e.SetField(FieldTitle, "x"); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("SetField err = %v", err)
	}
	if err := e.InsertText(0, "x"); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("InsertText err = %v", err)
	}
	if _, _, err := e.AddComment(); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("AddComment err = %v", err)
	}
	if _, err := e.Submit(); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("Submit err = %v", err)
	}
	if err := e.Cancel(false); err != nil {
		t.Fatalf("Cancel on closed editor: %v", err)
	}
}

func TestFormattingKeepsSelectionAcrossToolbarClicks(t *testing.T) {
	e := openCreate(t)
	if err := e.InsertText(0, "hello world"); err != nil {
		t.Fatalf("InsertText: %v", err)
	}
	if err := e.Select(richtext.Range{Start: 0, End: 5}); err != nil {
		t.Fatalf("Select: %v", err)
	}

	// Toolbar click: the composer reports no live selection.
	if err := e.Format(richtext.CommandBold, "", nil); err != nil {
		t.Fatalf("bold: %v", err)
	}
	// Click back into the composer leaves a caret at the end.
	if err := e.Select(richtext.Range{Start: 11, End: 11}); err != nil {
		t.Fatalf("Select caret: %v", err)
	}
	if err := e.Format(richtext.CommandItalic, "", nil); err != nil {
		t.Fatalf("italic: %v", err)
	}

	comment, ok, err := e.AddComment()
	if err != nil || !ok {
		t.Fatalf("AddComment: ok=%v err=%v", ok, err)
	}
	runs := comment.Body.Runs
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %+v", runs)
	}
	if runs[0].Text != "hello" || !runs[0].Style.Bold || !runs[0].Style.Italic {
		t.Fatalf("first run = %+v", runs[0])
	}
	if runs[1].Text != " world" || runs[1].Style.Bold || runs[1].Style.Italic {
		t.Fatalf("second run = %+v", runs[1])
	}
	if !strings.Contains(comment.Text, "<b><i>hello</i></b>") {
		t.Fatalf("comment html = %q", comment.Text)
	}
}

func TestFormatLiveSelectionWins(t *testing.T) {
	e := openCreate(t)
	_ = e.InsertText(0, "abcdef")
	_ = e.Select(richtext.Range{Start: 0, End: 2})

	live := richtext.Range{Start: 4, End: 6}
	if err := e.Format(richtext.CommandBold, "", &live); err != nil {
		t.Fatalf("Format: %v", err)
	}
	d := e.Draft()
	if s, _ := d.StyleAt(0); s.Bold {
		t.Fatal("saved range formatted instead of live one")
	}
	if s, _ := d.StyleAt(5); !s.Bold {
		t.Fatal("live range not formatted")
	}
}

func TestFormatFontSizeCycles(t *testing.T) {
	e := openCreate(t)
	_ = e.InsertText(0, "abc")
	_ = e.Select(richtext.Range{Start: 0, End: 3})

	if err := e.Format(richtext.CommandFontSize, "", nil); err != nil {
		t.Fatalf("Format: %v", err)
	}
	if got := e.Toolbar().FontSize; got != 4 {
		t.Fatalf("font size = %d, want 4", got)
	}
	if s, _ := e.Draft().StyleAt(0); s.Size != 4 {
		t.Fatalf("run size = %d, want 4", s.Size)
	}
	for i := 0; i < 4; i++ {
		_ = e.Format(richtext.CommandFontSize, "", nil)
	}
	if got := e.Toolbar().FontSize; got != 1 {
		t.Fatalf("font size after wrap = %d, want 1", got)
	}
}

func TestFormatColor(t *testing.T) {
	e := openCreate(t)
	_ = e.InsertText(0, "abc")
	_ = e.Select(richtext.Range{Start: 0, End: 3})

	if err := e.Format(richtext.CommandColor, "#FFA500", nil); err != nil {
		t.Fatalf("Format: %v", err)
	}
	if s, _ := e.Draft().StyleAt(1); s.Color != "#FFA500" {
		t.Fatalf("color = %q", s.Color)
	}
	if _, ok := e.SavedSelection(); ok {
		t.Fatal("color pick should consume the saved selection")
	}
	if err := e.Format(richtext.CommandColor, "#123456", nil); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("off-palette color err = %v", err)
	}
	if err := e.Format("underline", "", nil); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("unknown command err = %v", err)
	}
}

func TestInsertTextShiftsSavedSelection(t *testing.T) {
	e := openCreate(t)
	_ = e.InsertText(0, "world")
	_ = e.Select(richtext.Range{Start: 0, End: 5})
	_ = e.InsertText(0, "hello ")

	if err := e.Format(richtext.CommandBold, "", nil); err != nil {
		t.Fatalf("Format: %v", err)
	}
	d := e.Draft()
	if s, _ := d.StyleAt(0); s.Bold {
		t.Fatal("prefix should stay plain")
	}
	if s, _ := d.StyleAt(6); !s.Bold {
		t.Fatal("original selection should be bold")
	}
}

func TestAddComment(t *testing.T) {
	e := openCreate(t)

	if _, ok, err := e.AddComment(); err != nil || ok {
		t.Fatalf("blank comment: ok=%v err=%v", ok, err)
	}
	_ = e.InsertText(0, "   ")
	if _, ok, _ := e.AddComment(); ok {
		t.Fatal("whitespace comment should be ignored")
	}

	_ = e.DeleteText(richtext.Range{Start: 0, End: 3})
	_ = e.InsertText(0, "Moldagem recebida")
	comment, ok, err := e.AddComment()
	if err != nil || !ok {
		t.Fatalf("AddComment: ok=%v err=%v", ok, err)
	}
	if comment.Text != "Moldagem recebida" || !comment.Date.Equal(fixedNow) {
		t.Fatalf("comment = %+v", comment)
	}

	f := e.Form()
	if len(f.Comments) != 1 || len(f.History) != 1 {
		t.Fatalf("form = %+v", f)
	}
	if f.History[0].Icon != IconComment || f.History[0].Description != "Novo comentário adicionado" {
		t.Fatalf("history = %+v", f.History[0])
	}
	if e.Draft().Len() != 0 {
		t.Fatal("draft should be cleared")
	}
}

func TestDeleteCommentDoesNotLog(t *testing.T) {
	e := openCreate(t)
	_ = e.InsertText(0, "x")
	comment, _, _ := e.AddComment()

	found, err := e.DeleteComment(comment.ID)
	if err != nil || !found {
		t.Fatalf("DeleteComment: found=%v err=%v", found, err)
	}
	f := e.Form()
	if len(f.Comments) != 0 {
		t.Fatal("comment not removed")
	}
	if len(f.History) != 1 {
		t.Fatalf("deletion logged: %+v", f.History)
	}
	if found, _ := e.DeleteComment("missing"); found {
		t.Fatal("missing comment reported as found")
	}
}

func TestAddAttachments(t *testing.T) {
	e := openCreate(t)
	files := []File{
		{ID: "b1", Name: "raio-x.png", MimeType: "image/png", URL: "/api/blobs/b1"},
		{ID: "b2", Name: "sorriso.jpg", MimeType: "image/jpeg", URL: "/api/blobs/b2"},
	}

	added, err := e.AddAttachments(models.AttachmentImage, files)
	if err != nil {
		t.Fatalf("AddAttachments: %v", err)
	}
	if len(added) != 2 || added[0].ID != "b1" || added[1].Kind != models.AttachmentImage {
		t.Fatalf("added = %+v", added)
	}

	f := e.Form()
	if len(f.Attachments) != 2 || len(f.History) != 2 {
		t.Fatalf("form = %+v", f)
	}
	if f.History[0].Description != `Imagem "raio-x.png" foi anexado` || f.History[0].Icon != IconImage {
		t.Fatalf("history[0] = %+v", f.History[0])
	}
	if got := e.Draft().PlainText(); got != "[raio-x.png]" {
		t.Fatalf("draft = %q", got)
	}

	if _, err := e.AddAttachments(models.AttachmentDocument, []File{{Name: "laudo.pdf"}}); err != nil {
		t.Fatalf("AddAttachments: %v", err)
	}
	last := e.Form().History[2]
	if last.Description != `Documento "laudo.pdf" foi anexado` || last.Icon != IconDocument {
		t.Fatalf("history[2] = %+v", last)
	}

	if _, err := e.AddAttachments("video", files); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("kind err = %v", err)
	}
}

func TestAddedAttachmentsExcludesSavedOnes(t *testing.T) {
	e := newTestEditor(t)
	if err := e.OpenEdit(savedCard()); err != nil {
		t.Fatalf("OpenEdit: %v", err)
	}
	if got := e.AddedAttachments(); len(got) != 0 {
		t.Fatalf("fresh edit reports added attachments: %+v", got)
	}

	if _, err := e.AddAttachments(models.AttachmentDocument, []File{{ID: "b9", Name: "pedido.pdf"}}); err != nil {
		t.Fatalf("AddAttachments: %v", err)
	}
	got := e.AddedAttachments()
	if len(got) != 1 || got[0].ID != "b9" {
		t.Fatalf("AddedAttachments() = %+v, want only b9", got)
	}
}

func TestCancelWithoutChangesCloses(t *testing.T) {
	e := openCreate(t)
	if e.HasChanges() {
		t.Fatal("fresh form should have no changes")
	}
	if err := e.Cancel(false); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if e.State() != StateClosed {
		t.Fatal("editor should be closed")
	}
}

func TestCancelWithChangesNeedsConfirmation(t *testing.T) {
	e := openCreate(t)
	_ = e.SetField(FieldAssignedTo, "Ana")

	if err := e.Cancel(false); !errors.Is(err, ErrUnsavedChanges) {
		t.Fatalf("Cancel err = %v, want ErrUnsavedChanges", err)
	}
	if e.State() != StateOpenForCreate {
		t.Fatal("editor closed without confirmation")
	}
	if err := e.Cancel(true); err != nil {
		t.Fatalf("confirmed Cancel: %v", err)
	}
	if e.State() != StateClosed || e.Form().AssignedTo != "" {
		t.Fatal("confirmed cancel should discard the form")
	}
}

func TestHasChangesComparesAgainstOpenedCard(t *testing.T) {
	e := newTestEditor(t)
	_ = e.OpenEdit(savedCard())

	if e.HasChanges() {
		t.Fatal("unchanged existing card reported as changed")
	}
	if err := e.Cancel(false); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	_ = e.OpenEdit(savedCard())
	_ = e.InsertText(0, "nota")
	if _, _, err := e.AddComment(); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if !e.HasChanges() {
		t.Fatal("added comment not detected")
	}
}

func TestHasChangesAfterRevertingField(t *testing.T) {
	e := openCreate(t)
	_ = e.SetField(FieldPriority, "high")
	_ = e.SetField(FieldPriority, "medium")
	if e.HasChanges() {
		t.Fatal("reverted field reported as change")
	}
}

func TestSubmitValidates(t *testing.T) {
	e := openCreate(t)
	if _, err := e.Submit(); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("err = %v, want ErrTitleRequired", err)
	}
	_ = e.SetField(FieldTitle, "Ponte")
	if _, err := e.Submit(); !errors.Is(err, ErrDescriptionRequired) {
		t.Fatalf("err = %v, want ErrDescriptionRequired", err)
	}
	if ErrTitleRequired.Error() != "Título é obrigatório" {
		t.Fatalf("message = %q", ErrTitleRequired.Error())
	}
	if e.State() != StateOpenForCreate {
		t.Fatal("failed submit closed the editor")
	}
}

func TestSubmitCreatesCardOnBoard(t *testing.T) {
	ctx := context.Background()
	b := board.New(board.WithClock(func() time.Time { return fixedNow }))
	existing, err := b.Seed(ctx, models.ColumnEmProducao, models.Card{Identifier: "PROT-001", Title: "Prótese Lucas"})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	e := openCreate(t)
	_ = e.SetField(FieldTitle, "Ponte Maria")
	_ = e.SetField(FieldDescription, "Ponte fixa de 3 elementos")
	_ = e.SetField(FieldDueDate, "2024-06-15")

	sub, err := e.Submit()
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.CardID != "" {
		t.Fatalf("new card submission carries id %q", sub.CardID)
	}
	if e.State() != StateClosed {
		t.Fatal("editor should close after submit")
	}

	card, ok, err := b.UpsertCard(ctx, sub.Data, sub.CardID)
	if err != nil || !ok {
		t.Fatalf("UpsertCard: ok=%v err=%v", ok, err)
	}
	if card.Identifier != "PROT-002" || !card.DateInicio.Equal(fixedNow) {
		t.Fatalf("card = %+v", card)
	}
	if card.DueDate == nil || card.DueDate.Format(DateLayout) != "2024-06-15" {
		t.Fatalf("due date = %v", card.DueDate)
	}
	if len(card.History) != 3 {
		t.Fatalf("history = %+v", card.History)
	}

	snap := b.Snapshot()
	if len(snap[0].Items) != 1 || snap[0].Items[0].Title != "Ponte Maria" {
		t.Fatalf("esperando-inicio = %+v", snap[0].Items)
	}
	if len(snap[1].Items) != 1 || snap[1].Items[0].ID != existing.ID {
		t.Fatalf("em-producao = %+v", snap[1].Items)
	}
}

func TestSubmitEditKeepsCardID(t *testing.T) {
	e := newTestEditor(t)
	_ = e.OpenEdit(savedCard())
	_ = e.SetField(FieldPriority, "medium")

	sub, err := e.Submit()
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.CardID != "card-1" {
		t.Fatalf("CardID = %q", sub.CardID)
	}
	if sub.Data.Priority != models.PriorityMedium || len(sub.Data.History) != 2 || len(sub.Data.Comments) != 1 {
		t.Fatalf("data = %+v", sub.Data)
	}
}
