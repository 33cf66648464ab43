package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/movie-review-api/internal/model"
)

// ReviewRepo persists reviews.  (user_id, movie_id) is unique.
type ReviewRepo struct {
	db *sql.DB
}

func NewReviewRepo(db *sql.DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

// GetByID fetches a review or returns ErrNotFound.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (model.Review, error) {
	var rv model.Review
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, movie_id, description, created_at, updated_at FROM reviews WHERE id = ?`, id).
		Scan(&rv.ID, &rv.UserID, &rv.MovieID, &rv.Description, &rv.CreatedAt, &rv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return rv, ErrNotFound
	}
	return rv, err
}

// Exists reports whether the user already reviewed the movie.
func (r *ReviewRepo) Exists(ctx context.Context, userID, movieID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM reviews WHERE user_id = ? AND movie_id = ? LIMIT 1`, userID, movieID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Create inserts a review with both timestamps set to now and fills
// rv.ID, rv.CreatedAt and rv.UpdatedAt.  ErrDuplicate is returned when
// the user already reviewed the movie.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (user_id, movie_id, description) VALUES (?, ?, ?)`,
		rv.UserID, rv.MovieID, rv.Description)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*rv = created
	return nil
}

// UpdateDescription replaces the text and bumps updated_at.
func (r *ReviewRepo) UpdateDescription(ctx context.Context, id uint64, description string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET description = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, description, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// zero rows also means "nothing changed" within the same second
	_, err = r.GetByID(ctx, id)
	return err
}

// Delete removes a review.
func (r *ReviewRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
