package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-review-api/internal/model"
)

func newMock(t *testing.T) (sqlmock.Sqlmock, func() *GenreRepo) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return mock, func() *GenreRepo { return NewGenreRepo(db) }
}

func TestGenreRepoCreateDuplicate(t *testing.T) {
	mock, repo := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO genres (name)")).
		WithArgs("Action").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'action' for key 'uq_genres_name'"})

	_, err := repo().Create(context.Background(), " Action ")
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestGenreRepoCreate(t *testing.T) {
	mock, repo := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO genres (name)")).
		WithArgs("Drama").
		WillReturnResult(sqlmock.NewResult(4, 1))

	g, err := repo().Create(context.Background(), "Drama")
	require.NoError(t, err)
	assert.Equal(t, model.Genre{ID: 4, Name: "Drama"}, g)
}

func TestGenreRepoFindByNameLowercases(t *testing.T) {
	mock, repo := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(name) = ?")).
		WithArgs("sci-fi").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(2, "Sci-Fi"))

	g, err := repo().FindByName(context.Background(), "  SCI-FI ")
	require.NoError(t, err)
	assert.Equal(t, "Sci-Fi", g.Name)
}

func TestGenreRepoDeleteInUse(t *testing.T) {
	mock, repo := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM genres WHERE id = ? FOR UPDATE")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM movie_genres")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	err := repo().Delete(context.Background(), 7)
	assert.ErrorIs(t, err, ErrInUse)
}

func TestGenreRepoDeleteMissing(t *testing.T) {
	mock, repo := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM genres")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectRollback()

	err := repo().Delete(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenreRepoDeleteEmpty(t *testing.T) {
	mock, repo := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM genres")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM movie_genres")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM genres WHERE id = ?")).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo().Delete(context.Background(), 3))
}
