package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/atinyakov/unidocs/internal/apperr"
	"github.com/atinyakov/unidocs/internal/models"
	"github.com/atinyakov/unidocs/internal/repository"
)

// CatalogRepository reads the institution → program → subject tree.
type CatalogRepository interface {
	ListInstitutions(ctx context.Context) ([]models.Institution, error)
	GetInstitution(ctx context.Context, id int64) (*models.Institution, error)
	// ListPrograms filters by institution when institutionID is non-zero.
	ListPrograms(ctx context.Context, institutionID int64) ([]models.Program, error)
	GetProgram(ctx context.Context, id int64) (*models.Program, error)
	// ListSubjects filters by program and level when they are set.
	ListSubjects(ctx context.Context, programID int64, level string) ([]models.Subject, error)
	GetSubject(ctx context.Context, id int64) (*models.Subject, error)
}

// DocumentLister lists approved documents.
type DocumentLister interface {
	ListDocuments(ctx context.Context, f repository.DocumentFilter) ([]models.Document, int64, error)
}

// subjectDocumentsLimit bounds the documents embedded in a subject detail.
const subjectDocumentsLimit = 500

// CatalogService serves catalog listings and details.
type CatalogService struct {
	repo CatalogRepository
	docs DocumentLister
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(repo CatalogRepository, docs DocumentLister) *CatalogService {
	return &CatalogService{repo: repo, docs: docs}
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Clone(apperr.ErrNotFound, what+" not found")
	}
	return apperr.Wrap(err, apperr.ErrInternal, "failed to load "+what)
}

// ListInstitutions returns every institution sorted by name.
func (s *CatalogService) ListInstitutions(ctx context.Context) ([]models.Institution, error) {
	out, err := s.repo.ListInstitutions(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal, "failed to list institutions")
	}
	return out, nil
}

// GetInstitution returns an institution with its programs.
func (s *CatalogService) GetInstitution(ctx context.Context, id int64) (*models.Institution, error) {
	inst, err := s.repo.GetInstitution(ctx, id)
	if err != nil {
		return nil, notFound(err, "institution")
	}
	programs, err := s.repo.ListPrograms(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal, "failed to list programs")
	}
	inst.Programs = programs
	return inst, nil
}

// ListPrograms returns programs, optionally of one institution.
func (s *CatalogService) ListPrograms(ctx context.Context, institutionID int64) ([]models.Program, error) {
	out, err := s.repo.ListPrograms(ctx, institutionID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal, "failed to list programs")
	}
	return out, nil
}

// GetProgram returns a program with its subjects.
func (s *CatalogService) GetProgram(ctx context.Context, id int64) (*models.Program, error) {
	p, err := s.repo.GetProgram(ctx, id)
	if err != nil {
		return nil, notFound(err, "program")
	}
	subjects, err := s.repo.ListSubjects(ctx, id, "")
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal, "failed to list subjects")
	}
	p.Subjects = subjects
	return p, nil
}

// ListSubjects returns subjects, optionally of one program and level.
func (s *CatalogService) ListSubjects(ctx context.Context, programID int64, level string) ([]models.Subject, error) {
	out, err := s.repo.ListSubjects(ctx, programID, level)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal, "failed to list subjects")
	}
	return out, nil
}

// GetSubject returns a subject with its approved documents, newest first.
func (s *CatalogService) GetSubject(ctx context.Context, id int64) (*models.Subject, error) {
	subj, err := s.repo.GetSubject(ctx, id)
	if err != nil {
		return nil, notFound(err, "subject")
	}
	docs, _, err := s.docs.ListDocuments(ctx, repository.DocumentFilter{SubjectID: id, Limit: subjectDocumentsLimit})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal, "failed to list documents")
	}
	subj.Documents = docs
	return subj, nil
}
