package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/atinyakov/unidocs/internal/models"
)

// PostgresCatalogRepository reads institutions, programs and subjects.
type PostgresCatalogRepository struct {
	DB *sqlx.DB
}

// NewPostgresCatalogRepository creates a catalog repository on db.
func NewPostgresCatalogRepository(db *sqlx.DB) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{DB: db}
}

// ListInstitutions returns every institution ordered by name.
func (r *PostgresCatalogRepository) ListInstitutions(ctx context.Context) ([]models.Institution, error) {
	out := []models.Institution{}
	if err := r.DB.SelectContext(ctx, &out, `
		SELECT id, name, code, city, created_at FROM institutions ORDER BY name
	`); err != nil {
		return nil, fmt.Errorf("ListInstitutions: %w", err)
	}
	return out, nil
}

// GetInstitution returns one institution or sql.ErrNoRows.
func (r *PostgresCatalogRepository) GetInstitution(ctx context.Context, id int64) (*models.Institution, error) {
	var inst models.Institution
	if err := r.DB.GetContext(ctx, &inst, `
		SELECT id, name, code, city, created_at FROM institutions WHERE id = $1
	`, id); err != nil {
		return nil, err
	}
	return &inst, nil
}

const programSelect = `
	SELECT p.id, p.name, p.institution_id, i.code AS institution, p.created_at
	  FROM programs p
	  JOIN institutions i ON i.id = p.institution_id`

// ListPrograms returns programs ordered by name, restricted to institutionID when non-zero.
func (r *PostgresCatalogRepository) ListPrograms(ctx context.Context, institutionID int64) ([]models.Program, error) {
	query := programSelect
	var args []any
	if institutionID > 0 {
		query += ` WHERE p.institution_id = $1`
		args = append(args, institutionID)
	}
	query += ` ORDER BY p.name`

	out := []models.Program{}
	if err := r.DB.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("ListPrograms: %w", err)
	}
	return out, nil
}

// GetProgram returns one program or sql.ErrNoRows.
func (r *PostgresCatalogRepository) GetProgram(ctx context.Context, id int64) (*models.Program, error) {
	var p models.Program
	if err := r.DB.GetContext(ctx, &p, programSelect+` WHERE p.id = $1`, id); err != nil {
		return nil, err
	}
	return &p, nil
}

const subjectSelect = `
	SELECT s.id, s.name, s.program_id, p.name AS program, s.level, s.created_at
	  FROM subjects s
	  JOIN programs p ON p.id = s.program_id`

// ListSubjects returns subjects ordered by name, optionally filtered by
// program and level.
func (r *PostgresCatalogRepository) ListSubjects(ctx context.Context, programID int64, level string) ([]models.Subject, error) {
	var (
		conds []string
		args  []any
	)
	if programID > 0 {
		args = append(args, programID)
		conds = append(conds, fmt.Sprintf("s.program_id = $%d", len(args)))
	}
	if level != "" {
		args = append(args, level)
		conds = append(conds, fmt.Sprintf("s.level = $%d", len(args)))
	}

	query := subjectSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY s.name`

	out := []models.Subject{}
	if err := r.DB.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("ListSubjects: %w", err)
	}
	return out, nil
}

// GetSubject returns one subject or sql.ErrNoRows.
func (r *PostgresCatalogRepository) GetSubject(ctx context.Context, id int64) (*models.Subject, error) {
	var s models.Subject
	if err := r.DB.GetContext(ctx, &s, subjectSelect+` WHERE s.id = $1`, id); err != nil {
		return nil, err
	}
	return &s, nil
}
