package storetest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/repository"
)

// Catalog holds genres, movies, their links and reviews in one place so
// cascades and reference checks behave like the database.  Use the
// Genres, Movies and Reviews views as the service stores.
type Catalog struct {
	mu      sync.Mutex
	genres  map[uint64]model.Genre
	movies  map[uint64]model.Movie
	links   map[uint64]map[uint64]bool // movie id -> genre ids
	reviews map[uint64]model.Review

	nextGenre, nextMovie, nextReview uint64
}

func NewCatalog() *Catalog {
	return &Catalog{
		genres:  map[uint64]model.Genre{},
		movies:  map[uint64]model.Movie{},
		links:   map[uint64]map[uint64]bool{},
		reviews: map[uint64]model.Review{},
	}
}

func (c *Catalog) Genres() *Genres   { return &Genres{c} }
func (c *Catalog) Movies() *Movies   { return &Movies{c} }
func (c *Catalog) Reviews() *Reviews { return &Reviews{c} }

type Genres struct{ c *Catalog }

func (g *Genres) List(_ context.Context) ([]model.Genre, error) {
	g.c.mu.Lock()
	defer g.c.mu.Unlock()
	out := []model.Genre{}
	for _, r := range g.c.genres {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (g *Genres) GetByID(_ context.Context, id uint64) (model.Genre, error) {
	g.c.mu.Lock()
	defer g.c.mu.Unlock()
	r, ok := g.c.genres[id]
	if !ok {
		return model.Genre{}, repository.ErrNotFound
	}
	return r, nil
}

func (g *Genres) FindByName(_ context.Context, name string) (model.Genre, error) {
	g.c.mu.Lock()
	defer g.c.mu.Unlock()
	return g.c.findGenre(name)
}

func (c *Catalog) findGenre(name string) (model.Genre, error) {
	key := model.NormalizeGenreName(name)
	for _, r := range c.genres {
		if model.NormalizeGenreName(r.Name) == key {
			return r, nil
		}
	}
	return model.Genre{}, repository.ErrNotFound
}

func (g *Genres) Create(_ context.Context, name string) (model.Genre, error) {
	g.c.mu.Lock()
	defer g.c.mu.Unlock()
	if _, err := g.c.findGenre(name); err == nil {
		return model.Genre{}, repository.ErrDuplicate
	}
	return g.c.insertGenre(name), nil
}

func (c *Catalog) insertGenre(name string) model.Genre {
	c.nextGenre++
	r := model.Genre{ID: c.nextGenre, Name: strings.TrimSpace(name)}
	c.genres[r.ID] = r
	return r
}

func (c *Catalog) getOrCreateGenre(name string) model.Genre {
	if r, err := c.findGenre(name); err == nil {
		return r
	}
	return c.insertGenre(name)
}

func (g *Genres) Rename(_ context.Context, id uint64, name string) error {
	g.c.mu.Lock()
	defer g.c.mu.Unlock()
	r, ok := g.c.genres[id]
	if !ok {
		return repository.ErrNotFound
	}
	if other, err := g.c.findGenre(name); err == nil && other.ID != id {
		return repository.ErrDuplicate
	}
	r.Name = strings.TrimSpace(name)
	g.c.genres[id] = r
	return nil
}

func (g *Genres) Delete(_ context.Context, id uint64) error {
	g.c.mu.Lock()
	defer g.c.mu.Unlock()
	if _, ok := g.c.genres[id]; !ok {
		return repository.ErrNotFound
	}
	for _, set := range g.c.links {
		if set[id] {
			return repository.ErrInUse
		}
	}
	delete(g.c.genres, id)
	return nil
}

type Movies struct{ c *Catalog }

// assemble fills genres and reviews.  Caller holds the lock.
func (c *Catalog) assemble(m model.Movie) model.Movie {
	m.Genres = []model.Genre{}
	for gid := range c.links[m.ID] {
		m.Genres = append(m.Genres, c.genres[gid])
	}
	sort.Slice(m.Genres, func(i, j int) bool { return m.Genres[i].ID < m.Genres[j].ID })
	m.Reviews = []model.Review{}
	for _, rv := range c.reviews {
		if rv.MovieID == m.ID {
			m.Reviews = append(m.Reviews, rv)
		}
	}
	sort.Slice(m.Reviews, func(i, j int) bool { return m.Reviews[i].ID < m.Reviews[j].ID })
	return m
}

func (s *Movies) list(keep func(model.Movie) bool) []model.Movie {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	out := []model.Movie{}
	for _, m := range s.c.movies {
		if keep(m) {
			out = append(out, s.c.assemble(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Movies) List(_ context.Context) ([]model.Movie, error) {
	return s.list(func(model.Movie) bool { return true }), nil
}

func (s *Movies) ListByGenre(_ context.Context, genreID uint64) ([]model.Movie, error) {
	return s.list(func(m model.Movie) bool { return s.c.links[m.ID][genreID] }), nil
}

func (s *Movies) GetByID(_ context.Context, id uint64) (model.Movie, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	m, ok := s.c.movies[id]
	if !ok {
		return model.Movie{}, repository.ErrNotFound
	}
	return s.c.assemble(m), nil
}

func (s *Movies) Create(_ context.Context, m *model.Movie, genreNames []string) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.c.nextMovie++
	m.ID = s.c.nextMovie
	m.CreatedAt, m.UpdatedAt = now(), now()
	row := *m
	row.Genres, row.Reviews = nil, nil
	s.c.movies[m.ID] = row
	s.c.links[m.ID] = map[uint64]bool{}
	for _, n := range model.UniqueGenreNames(genreNames) {
		s.c.links[m.ID][s.c.getOrCreateGenre(n).ID] = true
	}
	return nil
}

func (s *Movies) Update(_ context.Context, id uint64, p model.MoviePatch) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	m, ok := s.c.movies[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.ReleaseDate != nil {
		m.ReleaseDate = *p.ReleaseDate
	}
	if p.Rating != nil {
		m.Rating = *p.Rating
	}
	m.UpdatedAt = now()
	s.c.movies[id] = m

	current := s.c.assemble(m).Genres
	remove, add := model.PlanGenreToggle(current, p.Genres)
	for _, g := range remove {
		delete(s.c.links[id], g.ID)
	}
	for _, n := range add {
		s.c.links[id][s.c.getOrCreateGenre(n).ID] = true
	}
	return nil
}

func (s *Movies) Delete(_ context.Context, id uint64) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if _, ok := s.c.movies[id]; !ok {
		return repository.ErrNotFound
	}
	for rid, rv := range s.c.reviews {
		if rv.MovieID == id {
			delete(s.c.reviews, rid)
		}
	}
	delete(s.c.links, id)
	delete(s.c.movies, id)
	return nil
}

type Reviews struct{ c *Catalog }

func (s *Reviews) GetByID(_ context.Context, id uint64) (model.Review, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	rv, ok := s.c.reviews[id]
	if !ok {
		return model.Review{}, repository.ErrNotFound
	}
	return rv, nil
}

func (s *Reviews) Exists(_ context.Context, userID, movieID uint64) (bool, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.c.hasReview(userID, movieID), nil
}

func (c *Catalog) hasReview(userID, movieID uint64) bool {
	for _, rv := range c.reviews {
		if rv.UserID == userID && rv.MovieID == movieID {
			return true
		}
	}
	return false
}

func (s *Reviews) Create(_ context.Context, rv *model.Review) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if _, ok := s.c.movies[rv.MovieID]; !ok {
		return errors.New("foreign key constraint fails: reviews.movie_id")
	}
	if s.c.hasReview(rv.UserID, rv.MovieID) {
		return repository.ErrDuplicate
	}
	s.c.nextReview++
	rv.ID = s.c.nextReview
	rv.CreatedAt, rv.UpdatedAt = now(), now()
	s.c.reviews[rv.ID] = *rv
	return nil
}

func (s *Reviews) UpdateDescription(_ context.Context, id uint64, description string) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	rv, ok := s.c.reviews[id]
	if !ok {
		return repository.ErrNotFound
	}
	rv.Description = description
	rv.UpdatedAt = now()
	s.c.reviews[id] = rv
	return nil
}

func (s *Reviews) Delete(_ context.Context, id uint64) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if _, ok := s.c.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.c.reviews, id)
	return nil
}
