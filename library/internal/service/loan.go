package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/bookden/library-service/library/internal/errs"
	"github.com/bookden/library-service/library/internal/model"
	"github.com/bookden/library-service/library/internal/repository"
	"github.com/bookden/library-service/pkg/auth"
	"go.uber.org/zap"
)

// LoanService is the only component that appends to or mutates the loan
// ledger. Per loan the transitions are ACTIVE -> RETURNED (terminal) and
// ACTIVE -> ACTIVE(extended), one-shot. Every precondition is checked before
// any write, so a refused operation leaves the ledger untouched.
type LoanService struct {
	log     *zap.Logger
	loans   repository.Loans
	catalog repository.Catalog
}

func NewLoanService(loans repository.Loans, catalog repository.Catalog, log *zap.Logger) *LoanService {
	return &LoanService{
		log:     log,
		loans:   loans,
		catalog: catalog,
	}
}

func (s *LoanService) CreateLoan(ctx context.Context, bookUid, username string, now time.Time) (model.Loan, error) {
	book, err := s.catalog.GetBook(ctx, bookUid)
	if err != nil {
		return model.Loan{}, err
	}

	userLoans, err := s.loans.ListByUser(ctx, username)
	if err != nil {
		return model.Loan{}, err
	}
	if UserHasOverdue(username, userLoans, now) {
		return model.Loan{}, errs.ErrOverdueBlock
	}

	bookLoans, err := s.loans.ListByBook(ctx, bookUid)
	if err != nil {
		return model.Loan{}, err
	}
	if AvailableStock(book, bookLoans) <= 0 {
		return model.Loan{}, errs.ErrOutOfStock
	}

	loan := model.Loan{
		LoanUid:  uuid.NewString(),
		BookUid:  bookUid,
		Username: username,
		LoanDate: now,
		DueDate:  now.Add(LoanPeriod),
	}
	created, err := s.loans.CreateLoan(ctx, loan)
	if err != nil {
		return model.Loan{}, errors.Wrap(err, "create loan")
	}
	s.log.Info("loan created",
		zap.String("loanUid", created.LoanUid),
		zap.String("bookUid", bookUid),
		zap.String("username", username))
	return created, nil
}

// ReturnLoan also serves the UI's cancel action. It is not reversible:
// re-borrowing requires a new loan.
func (s *LoanService) ReturnLoan(ctx context.Context, loanUid, username string, now time.Time) (model.Loan, error) {
	loan, err := s.loans.GetLoan(ctx, loanUid)
	if err != nil {
		return model.Loan{}, err
	}
	if loan.Username != username && !auth.IsAdmin(ctx) {
		return model.Loan{}, errs.ErrForbidden
	}
	if loan.ReturnDate != nil {
		return model.Loan{}, errs.ErrAlreadyReturned
	}
	if err := s.loans.MarkReturned(ctx, loanUid, now); err != nil {
		return model.Loan{}, err
	}
	loan.ReturnDate = &now
	return loan, nil
}

func (s *LoanService) ExtendLoan(ctx context.Context, loanUid, username string, now time.Time) (model.Loan, error) {
	loan, err := s.loans.GetLoan(ctx, loanUid)
	if err != nil {
		return model.Loan{}, err
	}
	if loan.Username != username && !auth.IsAdmin(ctx) {
		return model.Loan{}, errs.ErrForbidden
	}
	if loan.ReturnDate != nil {
		return model.Loan{}, errs.ErrNotFound
	}
	if loan.Extended {
		return model.Loan{}, errs.ErrAlreadyExtended
	}
	due := loan.DueDate.Add(LoanPeriod)
	if err := s.loans.MarkExtended(ctx, loanUid, due); err != nil {
		return model.Loan{}, err
	}
	loan.DueDate = due
	loan.Extended = true
	return loan, nil
}

func (s *LoanService) ListLoans(ctx context.Context, username string, now time.Time) ([]model.LoanView, error) {
	loans, err := s.loans.ListByUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, loans, now, true)
}

func (s *LoanService) LoansForBook(ctx context.Context, bookUid string, now time.Time) ([]model.LoanView, error) {
	if _, err := s.catalog.GetBook(ctx, bookUid); err != nil {
		return nil, err
	}
	loans, err := s.loans.ListByBook(ctx, bookUid)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, loans, now, false)
}

func (s *LoanService) decorate(ctx context.Context, loans []model.Loan, now time.Time, withBook bool) ([]model.LoanView, error) {
	views := make([]model.LoanView, 0, len(loans))
	for _, l := range loans {
		view := model.LoanView{
			Loan:    l,
			Overdue: IsOverdue(l, now),
		}
		if withBook {
			if book, err := s.catalog.GetBook(ctx, l.BookUid); err == nil {
				b := book
				view.Book = &b
			}
		}
		views = append(views, view)
	}
	return views, nil
}
