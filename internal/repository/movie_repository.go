// Package repository contains data access logic for Movie operations.  Movie
// reads come back fully populated: the attached genres and every review are
// loaded with one extra query each, regardless of how many movies are read.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/movie-review-api/internal/model"
)

// MovieRepo manages persistence for movies and their genre associations.
type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

const movieColumns = "m.id, m.name, m.release_date, m.rating, m.created_at, m.updated_at"

// List returns all movies ordered by id.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	return r.query(ctx, `SELECT `+movieColumns+` FROM movies m ORDER BY m.id`)
}

// ListByGenre returns the movies tagged with the given genre.
func (r *MovieRepo) ListByGenre(ctx context.Context, genreID uint64) ([]model.Movie, error) {
	return r.query(ctx, `SELECT `+movieColumns+`
		FROM movies m JOIN movie_genres mg ON mg.movie_id = m.id
		WHERE mg.genre_id = ? ORDER BY m.id`, genreID)
}

// GetByID fetches one movie with its genres and reviews.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	movies, err := r.query(ctx, `SELECT `+movieColumns+` FROM movies m WHERE m.id = ?`, id)
	if err != nil {
		return model.Movie{}, err
	}
	if len(movies) == 0 {
		return model.Movie{}, ErrNotFound
	}
	return movies[0], nil
}

func (r *MovieRepo) query(ctx context.Context, q string, args ...any) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Movie{}
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.ID, &m.Name, &m.ReleaseDate, &m.Rating, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attach(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attach loads genres and reviews for the given movies in place.
func (r *MovieRepo) attach(ctx context.Context, movies []model.Movie) error {
	if len(movies) == 0 {
		return nil
	}
	index := make(map[uint64]int, len(movies))
	ids := make([]uint64, len(movies))
	for i := range movies {
		movies[i].Genres = []model.Genre{}
		movies[i].Reviews = []model.Review{}
		index[movies[i].ID] = i
		ids[i] = movies[i].ID
	}
	in, args := inClause(ids)

	grows, err := r.db.QueryContext(ctx, `SELECT mg.movie_id, g.id, g.name
		FROM movie_genres mg JOIN genres g ON g.id = mg.genre_id
		WHERE mg.movie_id IN `+in+` ORDER BY g.id`, args...)
	if err != nil {
		return err
	}
	defer grows.Close()
	for grows.Next() {
		var movieID uint64
		var g model.Genre
		if err := grows.Scan(&movieID, &g.ID, &g.Name); err != nil {
			return err
		}
		i := index[movieID]
		movies[i].Genres = append(movies[i].Genres, g)
	}
	if err := grows.Err(); err != nil {
		return err
	}

	rrows, err := r.db.QueryContext(ctx, `SELECT id, user_id, movie_id, description, created_at, updated_at
		FROM reviews WHERE movie_id IN `+in+` ORDER BY id`, args...)
	if err != nil {
		return err
	}
	defer rrows.Close()
	for rrows.Next() {
		var rv model.Review
		if err := rrows.Scan(&rv.ID, &rv.UserID, &rv.MovieID, &rv.Description, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
			return err
		}
		i := index[rv.MovieID]
		movies[i].Reviews = append(movies[i].Reviews, rv)
	}
	return rrows.Err()
}

// Create inserts the movie and attaches one genre per distinct name,
// creating genres that do not exist yet.  Everything happens in one
// transaction.  On success m.ID is set.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie, genreNames []string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO movies (name, release_date, rating) VALUES (?, ?, ?)`,
			m.Name, m.ReleaseDate, m.Rating)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		m.ID = uint64(id)
		for _, name := range model.UniqueGenreNames(genreNames) {
			g, err := getOrCreateGenre(ctx, tx, name)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT IGNORE INTO movie_genres (movie_id, genre_id) VALUES (?, ?)`, m.ID, g.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update applies the non-nil fields of p and toggles the named genres
// (see model.PlanGenreToggle).  It returns ErrNotFound for an unknown id.
func (r *MovieRepo) Update(ctx context.Context, id uint64, p model.MoviePatch) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE id = ? FOR UPDATE`, id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var sets []string
		var args []any
		if p.Name != nil {
			sets = append(sets, "name = ?")
			args = append(args, *p.Name)
		}
		if p.ReleaseDate != nil {
			sets = append(sets, "release_date = ?")
			args = append(args, *p.ReleaseDate)
		}
		if p.Rating != nil {
			sets = append(sets, "rating = ?")
			args = append(args, *p.Rating)
		}
		if len(sets) > 0 {
			args = append(args, id)
			if _, err := tx.ExecContext(ctx,
				`UPDATE movies SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
				return err
			}
		}
		if len(p.Genres) == 0 {
			return nil
		}

		current, err := movieGenres(ctx, tx, id)
		if err != nil {
			return err
		}
		remove, add := model.PlanGenreToggle(current, p.Genres)
		for _, g := range remove {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM movie_genres WHERE movie_id = ? AND genre_id = ?`, id, g.ID); err != nil {
				return err
			}
		}
		for _, name := range add {
			g, err := getOrCreateGenre(ctx, tx, name)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT IGNORE INTO movie_genres (movie_id, genre_id) VALUES (?, ?)`, id, g.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

func movieGenres(ctx context.Context, q queryer, movieID uint64) ([]model.Genre, error) {
	rows, err := q.QueryContext(ctx, `SELECT g.id, g.name
		FROM movie_genres mg JOIN genres g ON g.id = mg.genre_id
		WHERE mg.movie_id = ?`, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Genre
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Delete removes a movie together with its reviews and genre links.
// The foreign keys cascade as well; the explicit deletes keep the
// behaviour independent of the schema's ON DELETE rules.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE movie_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM movie_genres WHERE movie_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
