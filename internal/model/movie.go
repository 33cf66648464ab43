package model

import "time"

// Movie rating bounds, inclusive.
const (
	MinRating = 0
	MaxRating = 10
)

// Movie represents a row in the `movies` table together with the
// genres attached through `movie_genres` and the reviews written for it.
// Genres and Reviews are filled by the repository on reads.
type Movie struct {
	ID          uint64    // movies.id
	Name        string    // movies.name
	ReleaseDate time.Time // movies.release_date (DATE)
	Rating      int       // movies.rating
	Genres      []Genre
	Reviews     []Review
	CreatedAt   time.Time // movies.created_at
	UpdatedAt   time.Time // movies.updated_at
}

// MoviePatch carries a partial movie update.  Nil pointers leave the
// column untouched.  Genres holds names to toggle (see PlanGenreToggle).
type MoviePatch struct {
	Name        *string
	ReleaseDate *time.Time
	Rating      *int
	Genres      []string
}

// Empty reports whether the patch changes nothing.
func (p MoviePatch) Empty() bool {
	return p.Name == nil && p.ReleaseDate == nil && p.Rating == nil && len(p.Genres) == 0
}
