package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/repository"
)

const (
	msgGenreExists = "genre already exists."
	msgGenreInUse  = "only empty genre can be deleted."
	msgNotFound    = "not found."
)

// GenreService manages the genre list.  Names are unique ignoring case.
type GenreService struct {
	genres GenreStore
	movies MovieStore
}

func NewGenreService(genres GenreStore, movies MovieStore) *GenreService {
	return &GenreService{genres: genres, movies: movies}
}

// GenreInput is the body of create and update requests.
type GenreInput struct {
	Name string `json:"name" validate:"required,max=50"`
}

func (s *GenreService) List(ctx context.Context) ([]model.Genre, error) {
	return s.genres.List(ctx)
}

// Movies returns every movie tagged with the genre.
func (s *GenreService) Movies(ctx context.Context, id uint64) ([]model.Movie, error) {
	if _, err := s.genres.GetByID(ctx, id); err != nil {
		return nil, mapNotFound(err)
	}
	return s.movies.ListByGenre(ctx, id)
}

func (s *GenreService) Create(ctx context.Context, in GenreInput) (model.Genre, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := Validate(in); err != nil {
		return model.Genre{}, err
	}
	if _, err := s.genres.FindByName(ctx, in.Name); err == nil {
		return model.Genre{}, conflict(msgGenreExists)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.Genre{}, err
	}
	g, err := s.genres.Create(ctx, in.Name)
	if errors.Is(err, repository.ErrDuplicate) {
		return model.Genre{}, conflict(msgGenreExists)
	}
	return g, err
}

// Update renames a genre.  Only other genres count as a clash, so a genre
// may be renamed to a different spelling of its own name.
func (s *GenreService) Update(ctx context.Context, id uint64, in GenreInput) (model.Genre, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := Validate(in); err != nil {
		return model.Genre{}, err
	}
	if _, err := s.genres.GetByID(ctx, id); err != nil {
		return model.Genre{}, mapNotFound(err)
	}
	if other, err := s.genres.FindByName(ctx, in.Name); err == nil && other.ID != id {
		return model.Genre{}, conflict(msgGenreExists)
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return model.Genre{}, err
	}
	switch err := s.genres.Rename(ctx, id, in.Name); {
	case errors.Is(err, repository.ErrDuplicate):
		return model.Genre{}, conflict(msgGenreExists)
	case err != nil:
		return model.Genre{}, mapNotFound(err)
	}
	return model.Genre{ID: id, Name: in.Name}, nil
}

// Delete removes a genre that no movie uses.
func (s *GenreService) Delete(ctx context.Context, id uint64) error {
	err := s.genres.Delete(ctx, id)
	if errors.Is(err, repository.ErrInUse) {
		return conflict(msgGenreInUse)
	}
	return mapNotFound(err)
}

// mapNotFound turns repository.ErrNotFound into a 404 service error and
// passes everything else through.
func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(msgNotFound)
	}
	return err
}
