// Package repository provides PostgreSQL persistence for users, the
// academic catalog, documents and ratings.
package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/atinyakov/unidocs/internal/models"
)

// ErrDuplicate is returned when an insert violates a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// PostgresAuthRepository implements user persistence using a PostgreSQL database.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sqlx.DB
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the given database connection.
func NewPostgresAuthRepository(db *sqlx.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

const userColumns = `id, name, surname, email, password_hash, role, institution_id, program_id, level, created_at`

// CreateUser inserts u and fills its ID and CreatedAt. A taken email
// yields ErrDuplicate.
func (r *PostgresAuthRepository) CreateUser(ctx context.Context, u *models.User) error {
	err := r.DB.QueryRowxContext(ctx, `
		INSERT INTO users (name, surname, email, password_hash, role, institution_id, program_id, level)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, u.Name, u.Surname, u.Email, u.PasswordHash, u.Role, u.InstitutionID, u.ProgramID, u.Level,
	).Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// FindUserByEmail returns the user with the given email or sql.ErrNoRows.
func (r *PostgresAuthRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.DB.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = $1`, email); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindUserByID returns the user with the given id or sql.ErrNoRows.
func (r *PostgresAuthRepository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := r.DB.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &u, nil
}
