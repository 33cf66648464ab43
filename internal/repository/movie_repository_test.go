package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-review-api/internal/model"
)

func newMovieMock(t *testing.T) (sqlmock.Sqlmock, *MovieRepo) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return mock, NewMovieRepo(db)
}

func TestMovieRepoDeleteCascadesReviews(t *testing.T) {
	mock, repo := newMovieMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reviews WHERE movie_id = ?")).
		WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM movie_genres WHERE movie_id = ?")).
		WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM movies WHERE id = ?")).
		WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 5))
}

func TestMovieRepoDeleteMissingRollsBack(t *testing.T) {
	mock, repo := newMovieMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reviews")).WithArgs(8).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM movie_genres")).WithArgs(8).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM movies")).WithArgs(8).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Delete(context.Background(), 8), ErrNotFound)
}

func TestMovieRepoCreateGetsOrCreatesGenres(t *testing.T) {
	mock, repo := newMovieMock(t)
	release := time.Date(1994, 9, 23, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO movies (name, release_date, rating)")).
		WithArgs("The Shawshank Redemption", release, 9).
		WillReturnResult(sqlmock.NewResult(11, 1))
	// "Drama" exists already
	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(name) = ?")).
		WithArgs("drama").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Drama"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO movie_genres")).
		WithArgs(11, 1).WillReturnResult(sqlmock.NewResult(0, 1))
	// "Prison" is new
	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(name) = ?")).
		WithArgs("prison").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO genres (name)")).
		WithArgs("Prison").WillReturnResult(sqlmock.NewResult(6, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO movie_genres")).
		WithArgs(11, 6).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m := &model.Movie{Name: "The Shawshank Redemption", ReleaseDate: release, Rating: 9}
	require.NoError(t, repo.Create(context.Background(), m, []string{"Drama", "Prison", "drama"}))
	assert.Equal(t, uint64(11), m.ID)
}

func TestMovieRepoCreateGenreRaceReadsWinner(t *testing.T) {
	mock, repo := newMovieMock(t)
	release := time.Date(2010, 7, 16, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO movies (name, release_date, rating)")).
		WithArgs("Inception", release, 8).
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(name) = ? LIMIT 1")).
		WithArgs("heist").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO genres (name)")).
		WithArgs("Heist").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'heist' for key 'uq_genres_name'"})
	// the other transaction committed the row after our snapshot
	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(name) = ? LIMIT 1 FOR SHARE")).
		WithArgs("heist").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(7, "heist"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO movie_genres")).
		WithArgs(12, 7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m := &model.Movie{Name: "Inception", ReleaseDate: release, Rating: 8}
	require.NoError(t, repo.Create(context.Background(), m, []string{"Heist"}))
	assert.Equal(t, uint64(12), m.ID)
}

func TestMovieRepoUpdateToggle(t *testing.T) {
	mock, repo := newMovieMock(t)
	rating := 7

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM movies WHERE id = ? FOR UPDATE")).
		WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE movies SET rating = ? WHERE id = ?")).
		WithArgs(7, 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE mg.movie_id = ?")).
		WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Drama"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM movie_genres WHERE movie_id = ? AND genre_id = ?")).
		WithArgs(2, 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), 2, model.MoviePatch{Rating: &rating, Genres: []string{"DRAMA"}})
	require.NoError(t, err)
}

func TestMovieRepoGetByIDNotFound(t *testing.T) {
	mock, repo := newMovieMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM movies m WHERE m.id = ?")).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "release_date", "rating", "created_at", "updated_at"}))

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}
