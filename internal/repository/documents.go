package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/atinyakov/unidocs/internal/models"
)

// DocumentFilter narrows document listings. Zero values mean "any".
type DocumentFilter struct {
	SubjectID     int64
	ProgramID     int64
	InstitutionID int64
	Type          string
	Level         string
	// Query is matched case-insensitively against title, description and
	// subject name. Only SearchDocuments honours it.
	Query  string
	Limit  int
	Offset int
}

// PostgresDocumentRepository implements document and rating persistence.
type PostgresDocumentRepository struct {
	DB *sqlx.DB
}

// NewPostgresDocumentRepository creates a document repository on db.
func NewPostgresDocumentRepository(db *sqlx.DB) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{DB: db}
}

const documentFrom = `
	  FROM documents d
	  JOIN subjects s ON s.id = d.subject_id
	  JOIN programs p ON p.id = s.program_id
	  JOIN users u ON u.id = d.author_id`

const documentSelect = `
	SELECT d.id, d.title, d.description, d.type, d.file_name, d.storage_name, d.size,
	       d.format, d.mime, d.academic_year, d.subject_id, s.name AS subject, d.author_id,
	       u.surname || ' ' || u.name AS author, d.downloads,
	       COALESCE((SELECT ROUND(AVG(r.score)::numeric, 1)::float8
	                   FROM ratings r WHERE r.document_id = d.id), 0) AS average_rating,
	       d.status, d.created_at` + documentFrom

// conditions builds the WHERE clause shared by the listing and its count.
func (f DocumentFilter) conditions(search bool) (string, []any) {
	conds := []string{"d.status = 'approved'", "d.deleted_at IS NULL"}
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if search {
		pattern := "%" + escapeLike(f.Query) + "%"
		args = append(args, pattern)
		n := len(args)
		conds = append(conds, fmt.Sprintf("(d.title ILIKE $%d OR d.description ILIKE $%d OR s.name ILIKE $%d)", n, n, n))
		if f.Type != "" {
			add("d.type = $%d", f.Type)
		}
		return " WHERE " + strings.Join(conds, " AND "), args
	}

	if f.SubjectID > 0 {
		add("d.subject_id = $%d", f.SubjectID)
	}
	if f.Type != "" {
		add("d.type = $%d", f.Type)
	}
	if f.Level != "" {
		add("s.level = $%d", f.Level)
	}
	if f.ProgramID > 0 {
		add("s.program_id = $%d", f.ProgramID)
	}
	if f.InstitutionID > 0 {
		add("p.institution_id = $%d", f.InstitutionID)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *PostgresDocumentRepository) page(ctx context.Context, where string, args []any, limit, offset int) ([]models.Document, int64, error) {
	var total int64
	if err := r.DB.GetContext(ctx, &total, `SELECT COUNT(*)`+documentFrom+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	n := len(args)
	query := documentSelect + where + fmt.Sprintf(" ORDER BY d.created_at DESC, d.id DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	docs := []models.Document{}
	if err := r.DB.SelectContext(ctx, &docs, query, append(args, limit, offset)...); err != nil {
		return nil, 0, fmt.Errorf("select documents: %w", err)
	}
	return docs, total, nil
}

// ListDocuments returns approved documents matching f, newest first, and
// the total number of matches.
func (r *PostgresDocumentRepository) ListDocuments(ctx context.Context, f DocumentFilter) ([]models.Document, int64, error) {
	where, args := f.conditions(false)
	return r.page(ctx, where, args, f.Limit, f.Offset)
}

// SearchDocuments returns approved documents whose title, description or
// subject name contains f.Query, optionally restricted to f.Type.
func (r *PostgresDocumentRepository) SearchDocuments(ctx context.Context, f DocumentFilter) ([]models.Document, int64, error) {
	where, args := f.conditions(true)
	return r.page(ctx, where, args, f.Limit, f.Offset)
}

// GetDocument returns a non-deleted document or sql.ErrNoRows.
func (r *PostgresDocumentRepository) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	var d models.Document
	if err := r.DB.GetContext(ctx, &d, documentSelect+` WHERE d.id = $1 AND d.deleted_at IS NULL`, id); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDocument inserts d and fills its ID and CreatedAt.
func (r *PostgresDocumentRepository) CreateDocument(ctx context.Context, d *models.Document) error {
	return r.DB.QueryRowxContext(ctx, `
		INSERT INTO documents (title, description, type, file_name, storage_name, size, format, mime,
		                       academic_year, subject_id, author_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`, d.Title, d.Description, d.Type, d.FileName, d.StorageName, d.Size, d.Format, d.MIME,
		d.AcademicYear, d.SubjectID, d.AuthorID, d.Status,
	).Scan(&d.ID, &d.CreatedAt)
}

// SoftDeleteDocument marks a document deleted; the purge job removes it later.
func (r *PostgresDocumentRepository) SoftDeleteDocument(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE documents SET deleted_at = NOW(), status = 'deleted'
		 WHERE id = $1 AND deleted_at IS NULL
	`, id)
	return err
}

// IncrementDownloads bumps the download counter.
func (r *PostgresDocumentRepository) IncrementDownloads(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE documents SET downloads = downloads + 1 WHERE id = $1`, id)
	return err
}

// UpsertRating records userID's score for documentID, replacing any
// previous score, and returns the new average.
func (r *PostgresDocumentRepository) UpsertRating(ctx context.Context, documentID, userID int64, score int) (*models.RatingResult, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var rating models.Rating
	if err := tx.GetContext(ctx, &rating, `
		INSERT INTO ratings (document_id, user_id, score)
		VALUES ($1, $2, $3)
		ON CONFLICT (document_id, user_id) DO UPDATE SET score = EXCLUDED.score
		RETURNING id, document_id, user_id, score, created_at
	`, documentID, userID, score); err != nil {
		return nil, fmt.Errorf("upsert rating: %w", err)
	}

	var avg float64
	if err := tx.GetContext(ctx, &avg, `
		SELECT COALESCE(ROUND(AVG(score)::numeric, 1)::float8, 0) FROM ratings WHERE document_id = $1
	`, documentID); err != nil {
		return nil, fmt.Errorf("average rating: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &models.RatingResult{Average: avg, Rating: rating}, nil
}
