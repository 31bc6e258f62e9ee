package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed_SkipsWhenCatalogExists(t *testing.T) {
	dbMock, mock := newMock(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM institutions`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	inserted, err := Seed(context.Background(), dbMock)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeed_InsertsDemoCatalog(t *testing.T) {
	dbMock, mock := newMock(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM institutions`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectBegin()

	var id int64
	for _, inst := range demoCatalog {
		id++
		mock.ExpectQuery("INSERT INTO institutions").
			WithArgs(inst.name, inst.code, inst.city).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id))
		for _, prog := range inst.programs {
			id++
			mock.ExpectQuery("INSERT INTO programs").
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id))
			for _, subj := range prog.subjects {
				mock.ExpectExec("INSERT INTO subjects").
					WithArgs(subj.name, id, subj.level).
					WillReturnResult(sqlmock.NewResult(1, 1))
			}
		}
	}
	mock.ExpectCommit()

	inserted, err := Seed(context.Background(), dbMock)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeed_RollsBackOnError(t *testing.T) {
	dbMock, mock := newMock(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM institutions`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO institutions").WillReturnError(errors.New("duplicate code"))
	mock.ExpectRollback()

	_, err := Seed(context.Background(), dbMock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert institution UCAD")
	assert.NoError(t, mock.ExpectationsWereMet())
}
