package http

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"os"
	"strconv"

	"github.com/atinyakov/unidocs/internal/apperr"
	"github.com/atinyakov/unidocs/internal/middleware"
	"github.com/atinyakov/unidocs/internal/models"
	"github.com/atinyakov/unidocs/internal/server/response"
	"github.com/atinyakov/unidocs/internal/service"
)

// DocumentService defines the document operations used by DocumentHandler.
type DocumentService interface {
	List(ctx context.Context, q service.ListQuery) (*models.DocumentPage, error)
	Search(ctx context.Context, text, docType string, page, perPage int) (*models.DocumentPage, error)
	Get(ctx context.Context, id int64) (*models.Document, error)
	Upload(ctx context.Context, in service.UploadInput) (*models.Document, error)
	Download(ctx context.Context, id int64) (*models.Document, *os.File, error)
	Delete(ctx context.Context, id, userID int64, role string) error
	Rate(ctx context.Context, id, userID int64, score int) (*models.RatingResult, error)
}

// multipartOverhead is allowed on top of the file limit for form fields
// and part headers.
const multipartOverhead = 1 << 20

// DocumentHandler handles document listing, upload, download, deletion,
// rating and search.
type DocumentHandler struct {
	DocumentService DocumentService
	// MaxUploadBytes bounds the request body of uploads.
	MaxUploadBytes int64
}

// List handles GET /api/documents.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.DocumentService.List(r.Context(), service.ListQuery{
		SubjectID:     queryInt64(r, "subject_id"),
		ProgramID:     queryInt64(r, "program_id"),
		InstitutionID: queryInt64(r, "institution_id"),
		Type:          q.Get("type"),
		Level:         q.Get("level"),
		Page:          queryInt(r, "page"),
		PerPage:       queryInt(r, "per_page"),
	})
	writeResult(w, page, err)
}

// Search handles GET /api/search. q is required.
func (h *DocumentHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.DocumentService.Search(r.Context(), q.Get("q"), q.Get("type"), queryInt(r, "page"), queryInt(r, "per_page"))
	writeResult(w, page, err)
}

// Get handles GET /api/documents/{id}.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	withID(w, r, h.DocumentService.Get)
}

// Upload handles POST /api/documents as multipart/form-data with a
// "file" part.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		response.Error(w, apperr.ErrUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, apperr.ErrTooLarge)
			return
		}
		response.Error(w, apperr.Wrap(err, apperr.ErrValidation, "invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, apperr.Clone(apperr.ErrValidation, "no file sent"))
		return
	}
	defer file.Close()

	subjectID, _ := strconv.ParseInt(r.FormValue("subject_id"), 10, 64)
	doc, err := h.DocumentService.Upload(r.Context(), service.UploadInput{
		AuthorID:     claims.UserID,
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		Type:         r.FormValue("type"),
		AcademicYear: r.FormValue("academic_year"),
		SubjectID:    subjectID,
		FileName:     header.Filename,
		Size:         header.Size,
		Content:      file,
	})
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, doc)
}

// Download handles GET /api/documents/{id}/download, serving the file as
// an attachment under its original name.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	doc, f, err := h.DocumentService.Download(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	if doc.MIME != "" {
		w.Header().Set("Content-Type", doc.MIME)
	}
	http.ServeContent(w, r, doc.FileName, doc.CreatedAt, f)
}

// Delete handles DELETE /api/documents/{id}.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		response.Error(w, apperr.ErrUnauthorized)
		return
	}
	id, err := pathID(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	if err := h.DocumentService.Delete(r.Context(), id, claims.UserID, claims.Role); err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"message": "document deleted"})
}

// Rate handles POST /api/documents/{id}/rate with {"score": 1..5}.
func (h *DocumentHandler) Rate(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		response.Error(w, apperr.ErrUnauthorized)
		return
	}
	id, err := pathID(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	var req models.RateRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, apperr.Clone(apperr.ErrValidation, "score required (integer between 1 and 5)"))
		return
	}
	res, err := h.DocumentService.Rate(r.Context(), id, claims.UserID, req.Score)
	writeResult(w, res, err)
}
