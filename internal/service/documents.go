package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/unidocs/internal/apperr"
	"github.com/atinyakov/unidocs/internal/models"
	"github.com/atinyakov/unidocs/internal/repository"
)

// Pagination bounds for listings and search.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// sniffLen is how much of an upload is buffered for content detection.
const sniffLen = 3072

// DocumentRepository defines document and rating persistence.
type DocumentRepository interface {
	ListDocuments(ctx context.Context, f repository.DocumentFilter) ([]models.Document, int64, error)
	SearchDocuments(ctx context.Context, f repository.DocumentFilter) ([]models.Document, int64, error)
	// GetDocument returns sql.ErrNoRows for missing or deleted documents.
	GetDocument(ctx context.Context, id int64) (*models.Document, error)
	CreateDocument(ctx context.Context, d *models.Document) error
	SoftDeleteDocument(ctx context.Context, id int64) error
	IncrementDownloads(ctx context.Context, id int64) error
	UpsertRating(ctx context.Context, documentID, userID int64, score int) (*models.RatingResult, error)
}

// SubjectFinder resolves the subject an upload is filed under.
type SubjectFinder interface {
	GetSubject(ctx context.Context, id int64) (*models.Subject, error)
}

// FileStore keeps uploaded bytes.
type FileStore interface {
	Save(name string, r io.Reader) (int64, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

// DocumentObserver is told about accepted uploads and served downloads.
type DocumentObserver interface {
	ObserveUpload(size int64)
	ObserveDownload()
}

// DocumentConfig configures upload acceptance.
type DocumentConfig struct {
	MaxBytes          int64
	AllowedExtensions []string
}

// DocumentService implements document listing, upload, download,
// deletion and rating.
type DocumentService struct {
	repo     DocumentRepository
	subjects SubjectFinder
	files    FileStore
	logger   *zap.Logger
	config   DocumentConfig
	observer DocumentObserver
	stats    *StatsService
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(repo DocumentRepository, subjects SubjectFinder, files FileStore, logger *zap.Logger, config DocumentConfig) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxBytes <= 0 {
		config.MaxBytes = 16 << 20
	}
	return &DocumentService{repo: repo, subjects: subjects, files: files, logger: logger, config: config}
}

// WithObserver attaches metrics. It returns s for chaining.
func (s *DocumentService) WithObserver(o DocumentObserver) *DocumentService {
	s.observer = o
	return s
}

// WithStats makes uploads and deletions invalidate cached stats.
func (s *DocumentService) WithStats(stats *StatsService) *DocumentService {
	s.stats = stats
	return s
}

// ListQuery holds listing filters and paging as received from clients.
type ListQuery struct {
	SubjectID     int64
	ProgramID     int64
	InstitutionID int64
	Type          string
	Level         string
	Page          int
	PerPage       int
}

// NormalizePage clamps paging to 1-indexed pages of 1..MaxPerPage items.
func NormalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case perPage <= 0:
		perPage = DefaultPerPage
	case perPage > MaxPerPage:
		perPage = MaxPerPage
	}
	return page, perPage
}

func newPage(docs []models.Document, total int64, page, perPage int) *models.DocumentPage {
	return &models.DocumentPage{
		Documents: docs,
		Total:     total,
		Page:      page,
		Pages:     int(math.Ceil(float64(total) / float64(perPage))),
		PerPage:   perPage,
	}
}

// List returns one page of approved documents, newest first.
func (s *DocumentService) List(ctx context.Context, q ListQuery) (*models.DocumentPage, error) {
	page, perPage := NormalizePage(q.Page, q.PerPage)
	docs, total, err := s.repo.ListDocuments(ctx, repository.DocumentFilter{
		SubjectID:     q.SubjectID,
		ProgramID:     q.ProgramID,
		InstitutionID: q.InstitutionID,
		Type:          q.Type,
		Level:         q.Level,
		Limit:         perPage,
		Offset:        (page - 1) * perPage,
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal, "failed to list documents")
	}
	return newPage(docs, total, page, perPage), nil
}

// Search matches text against title, description and subject name.
func (s *DocumentService) Search(ctx context.Context, text, docType string, page, perPage int) (*models.DocumentPage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Clone(apperr.ErrValidation, "parameter 'q' is required")
	}
	page, perPage = NormalizePage(page, perPage)
	docs, total, err := s.repo.SearchDocuments(ctx, repository.DocumentFilter{
		Query:  text,
		Type:   docType,
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal, "failed to search documents")
	}
	return newPage(docs, total, page, perPage), nil
}

// Get returns a live document.
func (s *DocumentService) Get(ctx context.Context, id int64) (*models.Document, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, notFound(err, "document")
	}
	return doc, nil
}

// UploadInput is a parsed multipart upload.
type UploadInput struct {
	AuthorID     int64
	Title        string
	Description  string
	Type         string
	AcademicYear string
	SubjectID    int64
	FileName     string
	// Size is the client-declared size; the stored size is authoritative.
	Size    int64
	Content io.Reader
}

// Extension returns the lower-cased extension of name without its dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// Upload validates and stores a new document. Uploads are approved
// immediately.
func (s *DocumentService) Upload(ctx context.Context, in UploadInput) (*models.Document, error) {
	fileName := filepath.Base(strings.TrimSpace(in.FileName))
	if in.Content == nil || fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		return nil, apperr.Clone(apperr.ErrValidation, "no file sent")
	}
	ext := Extension(fileName)
	if ext == "" || !slices.Contains(s.config.AllowedExtensions, ext) {
		return nil, apperr.Clone(apperr.ErrValidation,
			"format not allowed, accepted formats: "+strings.Join(s.config.AllowedExtensions, ", "))
	}
	if strings.TrimSpace(in.Title) == "" || in.SubjectID <= 0 || in.Type == "" {
		return nil, apperr.Clone(apperr.ErrValidation, "required fields: title, subject_id, type")
	}
	if !models.ValidDocumentType(in.Type) {
		return nil, apperr.Clone(apperr.ErrValidation, "invalid type, expected one of: cours, examen, td, tp, expose")
	}
	if in.Size > s.config.MaxBytes {
		return nil, apperr.ErrTooLarge
	}
	if _, err := s.subjects.GetSubject(ctx, in.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Clone(apperr.ErrValidation, "unknown subject")
		}
		return nil, apperr.Wrap(err, apperr.ErrInternal, "failed to load subject")
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Content, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, apperr.Wrap(err, apperr.ErrValidation, "failed to read file")
	}
	head = head[:n]
	mime := mimetype.Detect(head).String()

	storage := fmt.Sprintf("%s.%s", strings.ReplaceAll(uuid.NewString(), "-", ""), ext)
	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), in.Content), s.config.MaxBytes+1)
	size, err := s.files.Save(storage, body)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal, "failed to store file")
	}
	if size > s.config.MaxBytes {
		s.removeFile(storage)
		return nil, apperr.ErrTooLarge
	}

	doc := &models.Document{
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Type:         in.Type,
		FileName:     fileName,
		StorageName:  storage,
		Size:         size,
		Format:       ext,
		MIME:         mime,
		AcademicYear: in.AcademicYear,
		SubjectID:    in.SubjectID,
		AuthorID:     in.AuthorID,
		Status:       models.StatusApproved,
	}
	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		s.removeFile(storage)
		return nil, apperr.Wrap(err, apperr.ErrInternal, "failed to save document")
	}

	s.logger.Info("document uploaded",
		zap.Int64("document_id", doc.ID),
		zap.Int64("author_id", doc.AuthorID),
		zap.Int64("size", size),
		zap.String("mime", mime),
	)
	if s.observer != nil {
		s.observer.ObserveUpload(size)
	}
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}

	// Re-read to fill the joined subject and author names.
	if full, err := s.repo.GetDocument(ctx, doc.ID); err == nil {
		return full, nil
	}
	return doc, nil
}

func (s *DocumentService) removeFile(name string) {
	if err := s.files.Delete(name); err != nil {
		s.logger.Warn("failed to remove stored file", zap.String("file", name), zap.Error(err))
	}
}

// Download counts a download and opens the stored file. The caller
// closes the file.
func (s *DocumentService) Download(ctx context.Context, id int64) (*models.Document, *os.File, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, nil, notFound(err, "document")
	}
	f, err := s.files.Open(doc.StorageName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, apperr.Clone(apperr.ErrNotFound, "file not found")
		}
		return nil, nil, apperr.Wrap(err, apperr.ErrInternal, "failed to open file")
	}
	if err := s.repo.IncrementDownloads(ctx, id); err != nil {
		_ = f.Close()
		return nil, nil, apperr.Wrap(err, apperr.ErrInternal, "failed to count download")
	}
	doc.Downloads++
	if s.observer != nil {
		s.observer.ObserveDownload()
	}
	return doc, f, nil
}

// Delete soft-deletes a document. Only its author or an admin may do so.
func (s *DocumentService) Delete(ctx context.Context, id, userID int64, role string) error {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return notFound(err, "document")
	}
	if doc.AuthorID != userID && role != models.RoleAdmin {
		return apperr.Clone(apperr.ErrForbidden, "not allowed")
	}
	if err := s.repo.SoftDeleteDocument(ctx, id); err != nil {
		return apperr.Wrap(err, apperr.ErrInternal, "failed to delete document")
	}
	s.logger.Info("document deleted", zap.Int64("document_id", id), zap.Int64("user_id", userID))
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
	return nil
}

// Rate records userID's 1..5 score for a document, replacing any earlier one.
func (s *DocumentService) Rate(ctx context.Context, id, userID int64, score int) (*models.RatingResult, error) {
	if score < 1 || score > 5 {
		return nil, apperr.Clone(apperr.ErrValidation, "score required (integer between 1 and 5)")
	}
	if _, err := s.repo.GetDocument(ctx, id); err != nil {
		return nil, notFound(err, "document")
	}
	res, err := s.repo.UpsertRating(ctx, id, userID, score)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal, "failed to record rating")
	}
	return res, nil
}
