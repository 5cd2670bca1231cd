package handler

import (
	"context"
	"time"

	"github.com/bookden/library-service/library/internal/model"
	"github.com/bookden/library-service/library/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type CatalogService interface {
	ListBooks(ctx context.Context, f model.BookFilter) (model.ListBooks, error)
	GetBook(ctx context.Context, bookUid string) (model.BookView, error)
	CreateBook(ctx context.Context, username string, req model.CreateBookRequest) (model.Book, error)
	UpdateBook(ctx context.Context, username, bookUid string, req model.UpdateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, username, bookUid string) (model.DeleteRecord, error)
	BulkDeleteBooks(ctx context.Context, username string, bookUids []string) ([]model.DeleteRecord, error)
	RegenerateCover(ctx context.Context, username, bookUid string) (model.Book, error)
}

type LoanService interface {
	ListLoans(ctx context.Context, username string, now time.Time) ([]model.LoanView, error)
	LoansForBook(ctx context.Context, bookUid string, now time.Time) ([]model.LoanView, error)
	CreateLoan(ctx context.Context, bookUid, username string, now time.Time) (model.Loan, error)
	ReturnLoan(ctx context.Context, loanUid, username string, now time.Time) (model.Loan, error)
	ExtendLoan(ctx context.Context, loanUid, username string, now time.Time) (model.Loan, error)
}

type RatingService interface {
	Rate(ctx context.Context, bookUid, username string, stars int) (model.Rating, error)
	ListRatings(ctx context.Context, bookUid string) ([]model.Rating, error)
	CreateReview(ctx context.Context, bookUid, username, comment string) (model.Review, error)
	ListReviews(ctx context.Context, bookUid string) ([]model.Review, error)
	DeleteReview(ctx context.Context, reviewUid, username string, admin bool) error
}

type HistoryService interface {
	ListEdits(ctx context.Context) ([]model.EditRecord, error)
	ListDeletes(ctx context.Context) ([]model.DeleteRecord, error)
	RestoreBook(ctx context.Context, recordUid string) (model.Book, error)
}

type StatsService interface {
	Stats(ctx context.Context) (model.Stats, error)
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (model.LoginResponse, error)
}

var (
	_ CatalogService = (*service.CatalogService)(nil)
	_ LoanService    = (*service.LoanService)(nil)
	_ RatingService  = (*service.RatingService)(nil)
	_ HistoryService = (*service.HistoryService)(nil)
	_ StatsService   = (*service.StatsService)(nil)
	_ AuthService    = (*service.AuthService)(nil)
)
