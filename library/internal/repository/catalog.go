package repository

import (
	"context"
	"database/sql"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	sq "github.com/Masterminds/squirrel"

	"github.com/bookden/library-service/library/internal/errs"
	"github.com/bookden/library-service/library/internal/model"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type catalogRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewCatalogRepository(db *sqlx.DB, log *zap.Logger) (*catalogRepository, error) {
	return &catalogRepository{
		db:  db,
		log: log.Named("catalog-repo"),
	}, nil
}

const (
	booksTableName = `books`
)

var bookColumns = []string{
	"id", "book_uid", "title", "author", "category", "description",
	"cover_image", "isbn", "published_year", "created_by", "created_at", "stock",
}

func (r *catalogRepository) GetBook(ctx context.Context, bookUid string) (model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"book_uid": bookUid}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *catalogRepository) ListBooks(ctx context.Context, f model.BookFilter) ([]model.Book, int, error) {
	q := qb.Select(bookColumns...).
		From(booksTableName).
		OrderBy("created_at desc, id desc")

	if f.Category != "" {
		q = q.Where(sq.Eq{"category": f.Category})
	}
	if f.Author != "" {
		q = q.Where(sq.Eq{"author": f.Author})
	}
	if f.Page != 0 && f.Size != 0 {
		q = q.Limit(uint64(f.Size)).Offset(uint64((f.Page - 1) * f.Size))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, 0, err
	}
	r.log.Debug("ListBooks", zap.String("query", query), zap.Any("args", args))

	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, 0, err
	}

	cq := qb.Select("count(*)").From(booksTableName)
	if f.Category != "" {
		cq = cq.Where(sq.Eq{"category": f.Category})
	}
	if f.Author != "" {
		cq = cq.Where(sq.Eq{"author": f.Author})
	}
	query, args, err = cq.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return books, total, nil
}

func (r *catalogRepository) CreateBook(ctx context.Context, b model.Book) (model.Book, error) {
	q, args, err := qb.Insert(booksTableName).
		Columns("book_uid", "title", "author", "category", "description",
			"cover_image", "isbn", "published_year", "created_by", "created_at", "stock").
		Values(b.BookUid, b.Title, b.Author, b.Category, b.Description,
			b.CoverImage, b.ISBN, b.PublishedYear, b.CreatedBy, b.CreatedAt, b.Stock).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, q, args...); err != nil {
		r.log.Error("CreateBook", zap.String("q", q), zap.Any("args", args))
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return model.Book{}, errs.ErrConflict
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *catalogRepository) UpdateBook(ctx context.Context, b model.Book) (model.Book, error) {
	q, args, err := qb.Update(booksTableName).
		Set("title", b.Title).
		Set("author", b.Author).
		Set("category", b.Category).
		Set("description", b.Description).
		Set("cover_image", b.CoverImage).
		Set("isbn", b.ISBN).
		Set("published_year", b.PublishedYear).
		Set("stock", b.Stock).
		Where(sq.Eq{"book_uid": b.BookUid}).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *catalogRepository) DeleteBook(ctx context.Context, bookUid string) error {
	q, args, err := qb.Delete(booksTableName).
		Where(sq.Eq{"book_uid": bookUid}).
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

func (r *catalogRepository) CountBooks(ctx context.Context) (int, int, error) {
	q := `select count(*), coalesce(sum(stock), 0) from books`
	var books, copies int
	if err := r.db.QueryRowContext(ctx, q).Scan(&books, &copies); err != nil {
		return 0, 0, err
	}
	return books, copies, nil
}
