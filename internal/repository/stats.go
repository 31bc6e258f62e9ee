package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Countable names the aggregates exposed by CountRows.
type Countable string

const (
	CountInstitutions Countable = "institutions"
	CountPrograms     Countable = "programs"
	CountSubjects     Countable = "subjects"
	CountDocuments    Countable = "documents"
	CountUsers        Countable = "users"
)

var countQueries = map[Countable]string{
	CountInstitutions: `SELECT COUNT(*) FROM institutions`,
	CountPrograms:     `SELECT COUNT(*) FROM programs`,
	CountSubjects:     `SELECT COUNT(*) FROM subjects`,
	CountDocuments:    `SELECT COUNT(*) FROM documents WHERE status = 'approved' AND deleted_at IS NULL`,
	CountUsers:        `SELECT COUNT(*) FROM users`,
}

// PostgresStatsRepository computes aggregate counts.
type PostgresStatsRepository struct {
	DB *sqlx.DB
}

// NewPostgresStatsRepository creates a stats repository on db.
func NewPostgresStatsRepository(db *sqlx.DB) *PostgresStatsRepository {
	return &PostgresStatsRepository{DB: db}
}

// CountRows returns the size of the named aggregate.
func (r *PostgresStatsRepository) CountRows(ctx context.Context, what Countable) (int64, error) {
	query, ok := countQueries[what]
	if !ok {
		return 0, fmt.Errorf("unknown aggregate %q", what)
	}
	var n int64
	if err := r.DB.GetContext(ctx, &n, query); err != nil {
		return 0, fmt.Errorf("count %s: %w", what, err)
	}
	return n, nil
}
