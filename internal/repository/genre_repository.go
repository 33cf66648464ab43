// Package repository contains data access logic separated from HTTP handlers.
// This file holds the Genre queries.  Genre names are unique regardless of
// case: lookups compare LOWER(name) and the uq_genres_name key sits on a
// case-insensitive collation.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/movie-review-api/internal/model"
)

// GenreRepo encapsulates all database queries related to genres.
type GenreRepo struct {
	db *sql.DB
}

func NewGenreRepo(db *sql.DB) *GenreRepo {
	return &GenreRepo{db: db}
}

// List returns every genre ordered by id.
func (r *GenreRepo) List(ctx context.Context) ([]model.Genre, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM genres ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Genre{}
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetByID fetches a genre or returns ErrNotFound.
func (r *GenreRepo) GetByID(ctx context.Context, id uint64) (model.Genre, error) {
	var g model.Genre
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM genres WHERE id = ?`, id).Scan(&g.ID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return g, ErrNotFound
	}
	return g, err
}

// FindByName looks a genre up ignoring case.
func (r *GenreRepo) FindByName(ctx context.Context, name string) (model.Genre, error) {
	return findGenreByName(ctx, r.db, name)
}

func findGenreByName(ctx context.Context, q queryer, name string) (model.Genre, error) {
	return scanGenreByName(ctx, q, `SELECT id, name FROM genres WHERE LOWER(name) = ? LIMIT 1`, name)
}

// lockGenreByName is a locking read, so inside a transaction it sees rows
// committed after the transaction's snapshot.
func lockGenreByName(ctx context.Context, tx *sql.Tx, name string) (model.Genre, error) {
	return scanGenreByName(ctx, tx, `SELECT id, name FROM genres WHERE LOWER(name) = ? LIMIT 1 FOR SHARE`, name)
}

func scanGenreByName(ctx context.Context, q queryer, query, name string) (model.Genre, error) {
	var g model.Genre
	err := q.QueryRowContext(ctx, query, model.NormalizeGenreName(name)).Scan(&g.ID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return g, ErrNotFound
	}
	return g, err
}

// Create inserts a genre.  A case-insensitive name clash returns ErrDuplicate.
func (r *GenreRepo) Create(ctx context.Context, name string) (model.Genre, error) {
	name = strings.TrimSpace(name)
	res, err := r.db.ExecContext(ctx, `INSERT INTO genres (name) VALUES (?)`, name)
	if err != nil {
		if isDuplicate(err) {
			return model.Genre{}, ErrDuplicate
		}
		return model.Genre{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Genre{}, err
	}
	return model.Genre{ID: uint64(id), Name: name}, nil
}

// Rename changes a genre's name.  It returns ErrNotFound for an unknown id
// and ErrDuplicate when another genre already owns the name.
func (r *GenreRepo) Rename(ctx context.Context, id uint64, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE genres SET name = ? WHERE id = ?`, strings.TrimSpace(name), id)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// MySQL reports zero affected rows when the value did not change, so
	// tell "missing" apart from "same name" with a lookup.
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return nil
}

// Delete removes a genre that no movie references.  ErrInUse is returned
// while any movie_genres row points at it; the FK restrict on movie_genres
// backs the check up if a movie is tagged concurrently.
func (r *GenreRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM genres WHERE id = ? FOR UPDATE`, id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var refs int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM movie_genres WHERE genre_id = ?`, id).Scan(&refs); err != nil {
			return err
		}
		if refs > 0 {
			return ErrInUse
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM genres WHERE id = ?`, id); err != nil {
			if isReferenced(err) {
				return ErrInUse
			}
			return err
		}
		return nil
	})
}

// getOrCreateGenre returns the genre matching name ignoring case, creating
// it when absent.  A concurrent insert of the same name loses the race on
// uq_genres_name and falls back to reading the winner's row.
func getOrCreateGenre(ctx context.Context, tx *sql.Tx, name string) (model.Genre, error) {
	g, err := findGenreByName(ctx, tx, name)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return g, err
	}
	name = strings.TrimSpace(name)
	res, err := tx.ExecContext(ctx, `INSERT INTO genres (name) VALUES (?)`, name)
	if err != nil {
		if isDuplicate(err) {
			return lockGenreByName(ctx, tx, name)
		}
		return model.Genre{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Genre{}, err
	}
	return model.Genre{ID: uint64(id), Name: name}, nil
}
