package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"servicos/internal/blobs"
	"servicos/internal/editor"
	"servicos/internal/models"
	"servicos/internal/richtext"
)

type editorView struct {
	SessionID  string            `json:"sessionId"`
	State      editor.State      `json:"state"`
	CardID     string            `json:"cardId,omitempty"`
	Form       editor.Form       `json:"form"`
	Draft      richtext.Document `json:"draft"`
	DraftHTML  string            `json:"draftHtml"`
	Selection  *richtext.Range   `json:"selection,omitempty"`
	Toolbar    editor.Toolbar    `json:"toolbar"`
	HasChanges bool              `json:"hasChanges"`
	Palette    []string          `json:"palette"`
}

func newEditorView(sessionID string, e *editor.Editor) editorView {
	draft := e.Draft()
	v := editorView{
		SessionID:  sessionID,
		State:      e.State(),
		CardID:     e.CardID(),
		Form:       e.Form(),
		Draft:      draft,
		DraftHTML:  richtext.HTML(draft),
		Toolbar:    e.Toolbar(),
		HasChanges: e.HasChanges(),
		Palette:    richtext.Palette,
	}
	if rng, ok := e.SavedSelection(); ok {
		v.Selection = &rng
	}
	return v
}

type openEditorRequest struct {
	CardID string `json:"cardId"`
}

type fieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

type insertRequest struct {
	Offset int    `json:"offset"`
	Text   string `json:"text"`
}

type formatRequest struct {
	Command   string          `json:"command" binding:"required"`
	Color     string          `json:"color"`
	Selection *richtext.Range `json:"selection"`
}

type cancelRequest struct {
	Confirm bool `json:"confirm"`
}

// bindOptionalJSON decodes the request body into dst. An empty body, with
// or without a Content-Length, leaves dst at its zero value.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.Body == nil {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// editorStatus maps editor failures onto HTTP statuses.
func editorStatus(err error) int {
	switch {
	case errors.Is(err, editor.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, blobs.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, editor.ErrNotOpen),
		errors.Is(err, editor.ErrAlreadyOpen),
		errors.Is(err, editor.ErrUnsavedChanges):
		return http.StatusConflict
	case errors.Is(err, editor.ErrTitleRequired),
		errors.Is(err, editor.ErrDescriptionRequired),
		errors.Is(err, editor.ErrUnknownField),
		errors.Is(err, editor.ErrInvalidValue),
		errors.Is(err, editor.ErrInvalidKind),
		errors.Is(err, editor.ErrInvalidFormat):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// editorAction runs fn against the session named in the path and replies
// with the resulting editor state.
func (s *Server) editorAction(c *gin.Context, status int, fn func(*editor.Editor) error) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, editorStatus(err), err)
		return
	}

	var view editorView
	err = sess.Do(func(e *editor.Editor) error {
		if err := fn(e); err != nil {
			return err
		}
		view = newEditorView(sess.ID, e)
		return nil
	})
	if err != nil {
		s.respondError(c, editorStatus(err), err)
		return
	}
	respondSuccess(c, status, gin.H{"editor": view})
}

// handleOpenEditor starts an editor session, for a new service when no
// card id is given and for the named card otherwise.
func (s *Server) handleOpenEditor(c *gin.Context) {
	var req openEditorRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	var card models.Card
	if req.CardID != "" {
		found, _, ok := s.board.Find(req.CardID)
		if !ok {
			s.respondError(c, http.StatusNotFound, errors.New("card not found"))
			return
		}
		card = found
	}

	sess := s.sessions.Create()
	var view editorView
	err := sess.Do(func(e *editor.Editor) error {
		var err error
		if req.CardID != "" {
			err = e.OpenEdit(card)
		} else {
			err = e.OpenCreate()
		}
		view = newEditorView(sess.ID, e)
		return err
	})
	if err != nil {
		s.sessions.Delete(sess.ID)
		s.respondError(c, editorStatus(err), err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"editor": view})
}

// handleGetEditor returns the current editor state.
func (s *Server) handleGetEditor(c *gin.Context) {
	s.editorAction(c, http.StatusOK, func(*editor.Editor) error { return nil })
}

// handleSetField applies one field edit.
func (s *Server) handleSetField(c *gin.Context) {
	var req fieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	s.editorAction(c, http.StatusOK, func(e *editor.Editor) error {
		return e.SetField(editor.Field(req.Field), req.Value)
	})
}

// handleInsertText types into the comment composer.
func (s *Server) handleInsertText(c *gin.Context) {
	var req insertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	s.editorAction(c, http.StatusOK, func(e *editor.Editor) error {
		return e.InsertText(req.Offset, req.Text)
	})
}

// handleDeleteText removes a span of the comment composer.
func (s *Server) handleDeleteText(c *gin.Context) {
	var req richtext.Range
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	s.editorAction(c, http.StatusOK, func(e *editor.Editor) error {
		return e.DeleteText(req)
	})
}

// handleSelect records the composer selection after pointer-up or key-up.
func (s *Server) handleSelect(c *gin.Context) {
	var req richtext.Range
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	s.editorAction(c, http.StatusOK, func(e *editor.Editor) error {
		return e.Select(req)
	})
}

// handleFormat runs a toolbar command.
func (s *Server) handleFormat(c *gin.Context) {
	var req formatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	s.editorAction(c, http.StatusOK, func(e *editor.Editor) error {
		return e.Format(richtext.Command(req.Command), req.Color, req.Selection)
	})
}

// handleAddComment posts the composer contents as a comment.
func (s *Server) handleAddComment(c *gin.Context) {
	s.editorAction(c, http.StatusOK, func(e *editor.Editor) error {
		_, _, err := e.AddComment()
		return err
	})
}

// handleDeleteComment removes a comment from the form.
func (s *Server) handleDeleteComment(c *gin.Context) {
	commentID := c.Param("commentId")
	s.editorAction(c, http.StatusOK, func(e *editor.Editor) error {
		_, err := e.DeleteComment(commentID)
		return err
	})
}

// handleAddAttachments stores uploaded files and attaches them to the form.
// Nothing is stored unless the session exists and its editor is open.
func (s *Server) handleAddAttachments(c *gin.Context) {
	kind := models.AttachmentKind(c.PostForm("kind"))
	if !kind.IsValid() {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("%w: %q", editor.ErrInvalidKind, kind))
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	headers := form.File["files"]

	s.editorAction(c, http.StatusOK, func(e *editor.Editor) error {
		if e.State() == editor.StateClosed {
			return editor.ErrNotOpen
		}

		var stored []string
		files := make([]editor.File, 0, len(headers))
		for _, fh := range headers {
			blob, err := s.storeUpload(fh)
			if err != nil {
				s.blobs.Delete(stored...)
				return err
			}
			stored = append(stored, blob.ID)
			files = append(files, editor.File{
				ID:       blob.ID,
				Name:     blob.Name,
				MimeType: blob.MimeType,
				URL:      "/api/blobs/" + blob.ID,
			})
		}

		if _, err := e.AddAttachments(kind, files); err != nil {
			s.blobs.Delete(stored...)
			return err
		}
		return nil
	})
}

// releaseUploads frees the blobs behind attachments of a discarded form.
func (s *Server) releaseUploads(added []models.Attachment) {
	ids := make([]string, 0, len(added))
	for _, a := range added {
		ids = append(ids, a.ID)
	}
	s.blobs.Delete(ids...)
}

func (s *Server) storeUpload(fh *multipart.FileHeader) (blobs.Blob, error) {
	if limit := s.blobs.MaxBytes(); limit > 0 && fh.Size > limit {
		return blobs.Blob{}, fmt.Errorf("%w: %s", blobs.ErrTooLarge, fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return blobs.Blob{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return blobs.Blob{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	return s.blobs.Put(fh.Filename, fh.Header.Get("Content-Type"), data)
}

// handleSubmit stores the form on the board and ends the session.
func (s *Server) handleSubmit(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, editorStatus(err), err)
		return
	}

	var (
		card    models.Card
		written bool
	)
	err = sess.Do(func(e *editor.Editor) error {
		sub, err := e.Prepare()
		if err != nil {
			return err
		}
		card, written, err = s.board.UpsertCard(c.Request.Context(), sub.Data, sub.CardID)
		if err != nil {
			return err
		}
		e.Finish()
		return nil
	})
	if err != nil {
		s.respondError(c, editorStatus(err), err)
		return
	}
	s.sessions.Delete(sess.ID)

	payload := gin.H{"saved": written, "columns": s.boardView()}
	if written {
		payload["card"] = newCardView(card, s.now())
	}
	respondSuccess(c, http.StatusOK, payload)
}

// handleCancel closes the editor. Unsaved changes require confirm=true;
// without it the reply is 409 and the session stays open.
func (s *Server) handleCancel(c *gin.Context) {
	var req cancelRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, editorStatus(err), err)
		return
	}
	err = sess.Do(func(e *editor.Editor) error {
		added := e.AddedAttachments()
		if err := e.Cancel(req.Confirm); err != nil {
			return err
		}
		s.releaseUploads(added)
		return nil
	})
	if err != nil {
		s.respondError(c, editorStatus(err), err)
		return
	}
	s.sessions.Delete(sess.ID)
	respondSuccess(c, http.StatusOK, gin.H{"status": "closed"})
}
