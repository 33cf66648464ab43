package handler

import (
	"time"

	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/service"
)

type genreJSON struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type reviewJSON struct {
	ID          uint64    `json:"id"`
	User        uint64    `json:"user"`
	Movie       uint64    `json:"movie"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type movieJSON struct {
	ID           uint64       `json:"id"`
	Name         string       `json:"name"`
	ReleaseDate  string       `json:"release_date"`
	Rating       int          `json:"rating"`
	Genre        []genreJSON  `json:"genre"`
	MovieReviews []reviewJSON `json:"movie_reviews"`
}

func toGenreJSON(g model.Genre) genreJSON { return genreJSON{ID: g.ID, Name: g.Name} }

func toGenresJSON(gs []model.Genre) []genreJSON {
	out := make([]genreJSON, 0, len(gs))
	for _, g := range gs {
		out = append(out, toGenreJSON(g))
	}
	return out
}

func toReviewJSON(r model.Review) reviewJSON {
	return reviewJSON{
		ID:          r.ID,
		User:        r.UserID,
		Movie:       r.MovieID,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func toMovieJSON(m model.Movie) movieJSON {
	reviews := make([]reviewJSON, 0, len(m.Reviews))
	for _, r := range m.Reviews {
		reviews = append(reviews, toReviewJSON(r))
	}
	return movieJSON{
		ID:           m.ID,
		Name:         m.Name,
		ReleaseDate:  m.ReleaseDate.Format(service.DateLayout),
		Rating:       m.Rating,
		Genre:        toGenresJSON(m.Genres),
		MovieReviews: reviews,
	}
}

func toMoviesJSON(ms []model.Movie) []movieJSON {
	out := make([]movieJSON, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMovieJSON(m))
	}
	return out
}
