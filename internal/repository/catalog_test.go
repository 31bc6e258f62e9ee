package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestListInstitutions(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCatalogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM institutions ORDER BY name`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "city", "created_at"}).
			AddRow(int64(1), "Université Cheikh Anta Diop", "UCAD", "Dakar", time.Now()).
			AddRow(int64(2), "Université Gaston Berger", "UGB", "Saint-Louis", time.Now()))

	got, err := repo.ListInstitutions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[1].Code != "UGB" {
		t.Errorf("unexpected institutions: %+v", got)
	}
}

func TestListInstitutions_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCatalogRepository(db)

	mock.ExpectQuery("FROM institutions").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "city", "created_at"}))

	got, err := repo.ListInstitutions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestListPrograms_FilteredByInstitution(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCatalogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE p.institution_id = $1 ORDER BY p.name`)).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "institution_id", "institution", "created_at"}).
			AddRow(int64(10), "Informatique", int64(4), "UCAD", time.Now()))

	got, err := repo.ListPrograms(context.Background(), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Institution != "UCAD" {
		t.Errorf("unexpected programs: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestListSubjects_ProgramAndLevel(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCatalogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE s.program_id = $1 AND s.level = $2 ORDER BY s.name`)).
		WithArgs(int64(10), "L1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "program_id", "program", "level", "created_at"}).
			AddRow(int64(100), "Algorithmique", int64(10), "Informatique", "L1", time.Now()))

	got, err := repo.ListSubjects(context.Background(), 10, "L1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Level != "L1" {
		t.Errorf("unexpected subjects: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestListSubjects_Error(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCatalogRepository(db)

	mock.ExpectQuery("FROM subjects").WillReturnError(errors.New("query fail"))

	_, err := repo.ListSubjects(context.Background(), 0, "")
	if err == nil || !regexp.MustCompile(`ListSubjects`).MatchString(err.Error()) {
		t.Errorf("expected ListSubjects error, got %v", err)
	}
}

func TestGetProgram(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCatalogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE p.id = $1`)).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "institution_id", "institution", "created_at"}).
			AddRow(int64(10), "Informatique", int64(4), "UCAD", time.Now()))

	p, err := repo.GetProgram(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Informatique" {
		t.Errorf("unexpected program: %+v", p)
	}
}
