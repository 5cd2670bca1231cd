package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bookden/library-service/library/internal/errs"
	"github.com/bookden/library-service/library/internal/model"
	"github.com/bookden/library-service/library/internal/repository"
	"go.uber.org/zap"
)

type RatingService struct {
	log     *zap.Logger
	ratings repository.Ratings
	catalog repository.Catalog
}

func NewRatingService(ratings repository.Ratings, catalog repository.Catalog, log *zap.Logger) *RatingService {
	return &RatingService{
		log:     log,
		ratings: ratings,
		catalog: catalog,
	}
}

// Rate upserts: a user keeps at most one rating per book, last write wins.
func (s *RatingService) Rate(ctx context.Context, bookUid, username string, stars int) (model.Rating, error) {
	if _, err := s.catalog.GetBook(ctx, bookUid); err != nil {
		return model.Rating{}, err
	}
	return s.ratings.Upsert(ctx, model.Rating{
		BookUid:   bookUid,
		Username:  username,
		Stars:     stars,
		CreatedAt: time.Now().UTC(),
	})
}

func (s *RatingService) ListRatings(ctx context.Context, bookUid string) ([]model.Rating, error) {
	if _, err := s.catalog.GetBook(ctx, bookUid); err != nil {
		return nil, err
	}
	return s.ratings.ListRatings(ctx, bookUid)
}

func (s *RatingService) CreateReview(ctx context.Context, bookUid, username, comment string) (model.Review, error) {
	if _, err := s.catalog.GetBook(ctx, bookUid); err != nil {
		return model.Review{}, err
	}
	return s.ratings.CreateReview(ctx, model.Review{
		ReviewUid: uuid.NewString(),
		BookUid:   bookUid,
		Username:  username,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	})
}

func (s *RatingService) ListReviews(ctx context.Context, bookUid string) ([]model.Review, error) {
	if _, err := s.catalog.GetBook(ctx, bookUid); err != nil {
		return nil, err
	}
	return s.ratings.ListReviews(ctx, bookUid)
}

// DeleteReview is permitted to the author and to admins.
func (s *RatingService) DeleteReview(ctx context.Context, reviewUid, username string, admin bool) error {
	review, err := s.ratings.GetReview(ctx, reviewUid)
	if err != nil {
		return err
	}
	if review.Username != username && !admin {
		return errs.ErrForbidden
	}
	return s.ratings.DeleteReview(ctx, reviewUid)
}
