package model

import "time"

// Review is a user's text review of a movie.  A user may review a
// given movie at most once.
type Review struct {
	ID          uint64    // reviews.id
	UserID      uint64    // reviews.user_id
	MovieID     uint64    // reviews.movie_id
	Description string    // reviews.description
	CreatedAt   time.Time // reviews.created_at
	UpdatedAt   time.Time // reviews.updated_at
}
