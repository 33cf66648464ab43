package service

import (
	"context"
	"time"

	"github.com/iliyamo/movie-review-api/internal/model"
)

// The store interfaces are satisfied by the MySQL repositories in
// internal/repository and by the in-memory fakes in internal/storetest.
// Implementations report missing rows with repository.ErrNotFound and
// unique key hits with repository.ErrDuplicate.

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	MarkVerified(ctx context.Context, id uint64) (bool, error)
	UpdatePassword(ctx context.Context, id uint64, hash string) error
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

type GenreStore interface {
	List(ctx context.Context) ([]model.Genre, error)
	GetByID(ctx context.Context, id uint64) (model.Genre, error)
	FindByName(ctx context.Context, name string) (model.Genre, error)
	Create(ctx context.Context, name string) (model.Genre, error)
	Rename(ctx context.Context, id uint64, name string) error
	Delete(ctx context.Context, id uint64) error
}

type MovieStore interface {
	List(ctx context.Context) ([]model.Movie, error)
	ListByGenre(ctx context.Context, genreID uint64) ([]model.Movie, error)
	GetByID(ctx context.Context, id uint64) (model.Movie, error)
	Create(ctx context.Context, m *model.Movie, genreNames []string) error
	Update(ctx context.Context, id uint64, p model.MoviePatch) error
	Delete(ctx context.Context, id uint64) error
}

type ReviewStore interface {
	GetByID(ctx context.Context, id uint64) (model.Review, error)
	Exists(ctx context.Context, userID, movieID uint64) (bool, error)
	Create(ctx context.Context, rv *model.Review) error
	UpdateDescription(ctx context.Context, id uint64, description string) error
	Delete(ctx context.Context, id uint64) error
}
