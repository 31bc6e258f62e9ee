package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/unidocs/internal/models"
	"github.com/atinyakov/unidocs/internal/server/response"
)

// CatalogService serves institutions, programs and subjects.
type CatalogService interface {
	ListInstitutions(ctx context.Context) ([]models.Institution, error)
	GetInstitution(ctx context.Context, id int64) (*models.Institution, error)
	ListPrograms(ctx context.Context, institutionID int64) ([]models.Program, error)
	GetProgram(ctx context.Context, id int64) (*models.Program, error)
	ListSubjects(ctx context.Context, programID int64, level string) ([]models.Subject, error)
	GetSubject(ctx context.Context, id int64) (*models.Subject, error)
}

// CatalogHandler handles the read-only catalog endpoints.
type CatalogHandler struct {
	CatalogService CatalogService
}

func writeResult[T any](w http.ResponseWriter, v T, err error) {
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, v)
}

func withID[T any](w http.ResponseWriter, r *http.Request, get func(context.Context, int64) (T, error)) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	v, err := get(r.Context(), id)
	writeResult(w, v, err)
}

// ListInstitutions handles GET /api/institutions.
func (h *CatalogHandler) ListInstitutions(w http.ResponseWriter, r *http.Request) {
	v, err := h.CatalogService.ListInstitutions(r.Context())
	writeResult(w, v, err)
}

// GetInstitution handles GET /api/institutions/{id}.
func (h *CatalogHandler) GetInstitution(w http.ResponseWriter, r *http.Request) {
	withID(w, r, h.CatalogService.GetInstitution)
}

// ListPrograms handles GET /api/programs?institution_id=.
func (h *CatalogHandler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	v, err := h.CatalogService.ListPrograms(r.Context(), queryInt64(r, "institution_id"))
	writeResult(w, v, err)
}

// GetProgram handles GET /api/programs/{id}.
func (h *CatalogHandler) GetProgram(w http.ResponseWriter, r *http.Request) {
	withID(w, r, h.CatalogService.GetProgram)
}

// ListSubjects handles GET /api/subjects?program_id=&level=.
func (h *CatalogHandler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	v, err := h.CatalogService.ListSubjects(r.Context(), queryInt64(r, "program_id"), r.URL.Query().Get("level"))
	writeResult(w, v, err)
}

// GetSubject handles GET /api/subjects/{id}.
func (h *CatalogHandler) GetSubject(w http.ResponseWriter, r *http.Request) {
	withID(w, r, h.CatalogService.GetSubject)
}
