package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bookden/library-service/library/internal/errs"
	"github.com/bookden/library-service/library/internal/model"
	"github.com/bookden/library-service/library/internal/repository/filestore"
	"github.com/bookden/library-service/library/internal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRatingFixture(t *testing.T) (*service.RatingService, *filestore.Store) {
	t.Helper()
	store, err := filestore.Open(filepath.Join(t.TempDir(), "state.json"), zap.NewNop())
	require.NoError(t, err)
	_, err = store.CreateBook(context.Background(), model.Book{BookUid: "b1", Title: "Dune", Stock: 1})
	require.NoError(t, err)
	return service.NewRatingService(store, store, zap.NewNop()), store
}

func TestRatingService_RateUpserts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newRatingFixture(t)

	_, err := svc.Rate(ctx, "b1", "alice", 2)
	require.NoError(t, err)
	_, err = svc.Rate(ctx, "b1", "bob", 4)
	require.NoError(t, err)

	// re-rating replaces, it does not add
	_, err = svc.Rate(ctx, "b1", "alice", 5)
	require.NoError(t, err)

	ratings, err := svc.ListRatings(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, ratings, 2)

	byUser := map[string]int{}
	for _, r := range ratings {
		byUser[r.Username] = r.Stars
	}
	require.Equal(t, map[string]int{"alice": 5, "bob": 4}, byUser)

	_, err = svc.Rate(ctx, "missing", "alice", 3)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRatingService_Reviews(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newRatingFixture(t)

	first, err := svc.CreateReview(ctx, "b1", "alice", "great read")
	require.NoError(t, err)
	second, err := svc.CreateReview(ctx, "b1", "bob", "slow start")
	require.NoError(t, err)

	reviews, err := svc.ListReviews(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	// insertion order
	require.Equal(t, first.ReviewUid, reviews[0].ReviewUid)
	require.Equal(t, second.ReviewUid, reviews[1].ReviewUid)
}

func TestRatingService_DeleteReview(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newRatingFixture(t)

	review, err := svc.CreateReview(ctx, "b1", "alice", "great read")
	require.NoError(t, err)

	err = svc.DeleteReview(ctx, review.ReviewUid, "bob", false)
	require.ErrorIs(t, err, errs.ErrForbidden)

	// admins may moderate any review
	err = svc.DeleteReview(ctx, review.ReviewUid, "bob", true)
	require.NoError(t, err)

	err = svc.DeleteReview(ctx, review.ReviewUid, "alice", false)
	require.ErrorIs(t, err, errs.ErrNotFound)
}
