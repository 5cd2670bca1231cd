package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/bookden/library-service/library/internal/model"
)

// Catalog owns Book rows.
type Catalog interface {
	ListBooks(ctx context.Context, f model.BookFilter) ([]model.Book, int, error)
	GetBook(ctx context.Context, bookUid string) (model.Book, error)
	CreateBook(ctx context.Context, b model.Book) (model.Book, error)
	UpdateBook(ctx context.Context, b model.Book) (model.Book, error)
	DeleteBook(ctx context.Context, bookUid string) error
	CountBooks(ctx context.Context) (books, copies int, err error)
}

// Loans owns ledger rows and refers to books by uid only.
type Loans interface {
	ListByUser(ctx context.Context, username string) ([]model.Loan, error)
	ListByBook(ctx context.Context, bookUid string) ([]model.Loan, error)
	ListActive(ctx context.Context) ([]model.Loan, error)
	GetLoan(ctx context.Context, loanUid string) (model.Loan, error)
	CreateLoan(ctx context.Context, l model.Loan) (model.Loan, error)
	MarkReturned(ctx context.Context, loanUid string, at time.Time) error
	MarkExtended(ctx context.Context, loanUid string, due time.Time) error
}

type Ratings interface {
	Upsert(ctx context.Context, r model.Rating) (model.Rating, error)
	ListRatings(ctx context.Context, bookUid string) ([]model.Rating, error)
	AverageByBook(ctx context.Context) (map[string]float64, error)
	CreateReview(ctx context.Context, rv model.Review) (model.Review, error)
	ListReviews(ctx context.Context, bookUid string) ([]model.Review, error)
	GetReview(ctx context.Context, reviewUid string) (model.Review, error)
	DeleteReview(ctx context.Context, reviewUid string) error
	Counts(ctx context.Context) (ratings, reviews int, err error)
}

// History is append-only except for RemoveDelete, which is invoked by restore.
type History interface {
	InsertEdit(ctx context.Context, rec model.EditRecord) error
	InsertDelete(ctx context.Context, rec model.DeleteRecord) error
	ListEdits(ctx context.Context) ([]model.EditRecord, error)
	ListDeletes(ctx context.Context) ([]model.DeleteRecord, error)
	GetDelete(ctx context.Context, recordUid string) (model.DeleteRecord, error)
	RemoveDelete(ctx context.Context, recordUid string) error
}

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
