package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	sq "github.com/Masterminds/squirrel"

	"github.com/bookden/library-service/library/internal/errs"
	"github.com/bookden/library-service/library/internal/model"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type ratingRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRatingRepository(db *sqlx.DB, log *zap.Logger) (*ratingRepository, error) {
	return &ratingRepository{
		db:  db,
		log: log.Named("rating-repo"),
	}, nil
}

const (
	ratingsTableName = `ratings`
	reviewsTableName = `reviews`
)

// Upsert keeps at most one rating per (book, user); the last write wins.
func (r *ratingRepository) Upsert(ctx context.Context, rt model.Rating) (model.Rating, error) {
	q := `
insert into ratings (book_uid, username, stars, created_at)
values ($1, $2, $3, $4)
on conflict (book_uid, username)
do update set stars = excluded.stars, created_at = excluded.created_at
returning *`
	var rating model.Rating
	if err := r.db.GetContext(ctx, &rating, q, rt.BookUid, rt.Username, rt.Stars, rt.CreatedAt); err != nil {
		r.log.Error("Upsert rating", zap.Error(err))
		return model.Rating{}, err
	}
	return rating, nil
}

func (r *ratingRepository) ListRatings(ctx context.Context, bookUid string) ([]model.Rating, error) {
	q, args, err := qb.Select("id", "book_uid", "username", "stars", "created_at").
		From(ratingsTableName).
		Where(sq.Eq{"book_uid": bookUid}).
		OrderBy("created_at desc, id desc").
		ToSql()
	if err != nil {
		return nil, err
	}
	var items []model.Rating
	if err := r.db.SelectContext(ctx, &items, q, args...); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ratingRepository) AverageByBook(ctx context.Context) (map[string]float64, error) {
	q := `select book_uid, avg(stars) from ratings group by book_uid`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	avgs := make(map[string]float64)
	for rows.Next() {
		var (
			bookUid string
			avg     float64
		)
		if err := rows.Scan(&bookUid, &avg); err != nil {
			return nil, err
		}
		avgs[bookUid] = avg
	}
	return avgs, rows.Err()
}

func (r *ratingRepository) CreateReview(ctx context.Context, rv model.Review) (model.Review, error) {
	q, args, err := qb.Insert(reviewsTableName).
		Columns("review_uid", "book_uid", "username", "comment", "created_at").
		Values(rv.ReviewUid, rv.BookUid, rv.Username, rv.Comment, rv.CreatedAt).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Review{}, err
	}
	var review model.Review
	if err := r.db.GetContext(ctx, &review, q, args...); err != nil {
		r.log.Error("CreateReview", zap.String("q", q), zap.Any("args", args))
		return model.Review{}, err
	}
	return review, nil
}

func (r *ratingRepository) ListReviews(ctx context.Context, bookUid string) ([]model.Review, error) {
	q, args, err := qb.Select("id", "review_uid", "book_uid", "username", "comment", "created_at").
		From(reviewsTableName).
		Where(sq.Eq{"book_uid": bookUid}).
		OrderBy("id asc").
		ToSql()
	if err != nil {
		return nil, err
	}
	var items []model.Review
	if err := r.db.SelectContext(ctx, &items, q, args...); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ratingRepository) GetReview(ctx context.Context, reviewUid string) (model.Review, error) {
	q, args, err := qb.Select("id", "review_uid", "book_uid", "username", "comment", "created_at").
		From(reviewsTableName).
		Where(sq.Eq{"review_uid": reviewUid}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Review{}, err
	}
	var review model.Review
	if err := r.db.GetContext(ctx, &review, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Review{}, errs.ErrNotFound
		}
		return model.Review{}, err
	}
	return review, nil
}

func (r *ratingRepository) DeleteReview(ctx context.Context, reviewUid string) error {
	q, args, err := qb.Delete(reviewsTableName).
		Where(sq.Eq{"review_uid": reviewUid}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *ratingRepository) Counts(ctx context.Context) (int, int, error) {
	q := `select
	(select count(*) from ratings),
	(select count(*) from reviews)`
	var ratings, reviews int
	if err := r.db.QueryRowContext(ctx, q).Scan(&ratings, &reviews); err != nil {
		return 0, 0, err
	}
	return ratings, reviews, nil
}
