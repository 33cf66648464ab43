package service

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/movie-review-api/internal/model"
)

// DateLayout is the wire format of release dates.
const DateLayout = "2006-01-02"

const msgBadDate = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."

// MovieService manages movies and their genre links.
type MovieService struct {
	movies MovieStore
}

func NewMovieService(movies MovieStore) *MovieService {
	return &MovieService{movies: movies}
}

// MovieInput is the body of a create request.  Genre holds genre names
// that are looked up ignoring case and created when missing.
type MovieInput struct {
	Name        string   `json:"name" validate:"required,max=50"`
	ReleaseDate string   `json:"release_date" validate:"required"`
	Rating      *int     `json:"rating"`
	Genre       []string `json:"genre" validate:"dive,max=50"`
}

// MoviePatchInput is the body of an update.  Absent fields are left as
// they are; every name in Genre toggles that genre on the movie.
type MoviePatchInput struct {
	Name        *string  `json:"name"`
	ReleaseDate *string  `json:"release_date"`
	Rating      *int     `json:"rating"`
	Genre       []string `json:"genre" validate:"dive,max=50"`
}

func (s *MovieService) List(ctx context.Context) ([]model.Movie, error) {
	return s.movies.List(ctx)
}

func (s *MovieService) Get(ctx context.Context, id uint64) (model.Movie, error) {
	m, err := s.movies.GetByID(ctx, id)
	return m, mapNotFound(err)
}

func (s *MovieService) Create(ctx context.Context, in MovieInput) (model.Movie, error) {
	in.Name = strings.TrimSpace(in.Name)
	fields := fieldErrors{}
	fields.merge(Validate(in))

	m := model.Movie{Name: in.Name}
	if _, ok := fields["release_date"]; !ok {
		m.ReleaseDate = parseDate(fields, in.ReleaseDate)
	}
	if in.Rating != nil {
		checkRating(fields, *in.Rating)
		m.Rating = *in.Rating
	}
	if err := fields.err(); err != nil {
		return model.Movie{}, err
	}
	if err := s.movies.Create(ctx, &m, in.Genre); err != nil {
		return model.Movie{}, err
	}
	return s.Get(ctx, m.ID)
}

// Update applies a partial update and returns the stored movie.
func (s *MovieService) Update(ctx context.Context, id uint64, in MoviePatchInput) (model.Movie, error) {
	fields := fieldErrors{}
	fields.merge(Validate(in))

	var p model.MoviePatch
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		switch {
		case name == "":
			fields.add("name", "This field may not be blank.")
		case len([]rune(name)) > 50:
			fields.add("name", "Ensure this field has no more than 50 characters.")
		}
		p.Name = &name
	}
	if in.ReleaseDate != nil {
		d := parseDate(fields, *in.ReleaseDate)
		p.ReleaseDate = &d
	}
	if in.Rating != nil {
		checkRating(fields, *in.Rating)
		p.Rating = in.Rating
	}
	p.Genres = in.Genre
	if err := fields.err(); err != nil {
		return model.Movie{}, err
	}

	if !p.Empty() {
		if err := s.movies.Update(ctx, id, p); err != nil {
			return model.Movie{}, mapNotFound(err)
		}
	}
	return s.Get(ctx, id)
}

// Delete removes a movie with its reviews and genre links.
func (s *MovieService) Delete(ctx context.Context, id uint64) error {
	return mapNotFound(s.movies.Delete(ctx, id))
}

func parseDate(fields fieldErrors, v string) time.Time {
	d, err := time.Parse(DateLayout, strings.TrimSpace(v))
	if err != nil {
		fields.add("release_date", msgBadDate)
	}
	return d
}

func checkRating(fields fieldErrors, r int) {
	switch {
	case r < model.MinRating:
		fields.add("rating", "Ensure this value is greater than or equal to 0.")
	case r > model.MaxRating:
		fields.add("rating", "Ensure this value is less than or equal to 10.")
	}
}
