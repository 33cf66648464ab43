package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/repository"
)

const (
	msgReviewExists  = "review already exists."
	msgEditForbidden = "you can only edit your own review."
	msgDelForbidden  = "you can only delete your own review."
)

// ReviewService manages reviews.  A user reviews a movie at most once and
// only the author may change or remove a review.
type ReviewService struct {
	reviews ReviewStore
	movies  MovieStore
}

func NewReviewService(reviews ReviewStore, movies MovieStore) *ReviewService {
	return &ReviewService{reviews: reviews, movies: movies}
}

// ReviewInput is the body of create and update requests.
type ReviewInput struct {
	Description string `json:"description" validate:"required,max=250"`
}

func (s *ReviewService) Create(ctx context.Context, userID, movieID uint64, in ReviewInput) (model.Review, error) {
	in.Description = strings.TrimSpace(in.Description)
	if err := Validate(in); err != nil {
		return model.Review{}, err
	}
	if _, err := s.movies.GetByID(ctx, movieID); err != nil {
		return model.Review{}, mapNotFound(err)
	}
	exists, err := s.reviews.Exists(ctx, userID, movieID)
	if err != nil {
		return model.Review{}, err
	}
	if exists {
		return model.Review{}, conflict(msgReviewExists)
	}
	rv := model.Review{UserID: userID, MovieID: movieID, Description: in.Description}
	if err := s.reviews.Create(ctx, &rv); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Review{}, conflict(msgReviewExists)
		}
		return model.Review{}, err
	}
	return rv, nil
}

// Update replaces the description of the caller's own review.
func (s *ReviewService) Update(ctx context.Context, userID, id uint64, in ReviewInput) (model.Review, error) {
	in.Description = strings.TrimSpace(in.Description)
	rv, err := s.owned(ctx, userID, id, msgEditForbidden)
	if err != nil {
		return model.Review{}, err
	}
	if err := Validate(in); err != nil {
		return model.Review{}, err
	}
	if err := s.reviews.UpdateDescription(ctx, rv.ID, in.Description); err != nil {
		return model.Review{}, mapNotFound(err)
	}
	rv, err = s.reviews.GetByID(ctx, id)
	return rv, mapNotFound(err)
}

// Delete removes the caller's own review.
func (s *ReviewService) Delete(ctx context.Context, userID, id uint64) error {
	if _, err := s.owned(ctx, userID, id, msgDelForbidden); err != nil {
		return err
	}
	return mapNotFound(s.reviews.Delete(ctx, id))
}

func (s *ReviewService) owned(ctx context.Context, userID, id uint64, msg string) (model.Review, error) {
	rv, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return model.Review{}, mapNotFound(err)
	}
	if rv.UserID != userID {
		return model.Review{}, forbidden(msg)
	}
	return rv, nil
}
