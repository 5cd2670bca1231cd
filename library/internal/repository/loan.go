package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	sq "github.com/Masterminds/squirrel"

	"github.com/bookden/library-service/library/internal/errs"
	"github.com/bookden/library-service/library/internal/model"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type loanRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewLoanRepository(db *sqlx.DB, log *zap.Logger) (*loanRepository, error) {
	return &loanRepository{
		db:  db,
		log: log.Named("loan-repo"),
	}, nil
}

const (
	loansTableName = `loans`
)

var loanColumns = []string{
	"id", "loan_uid", "book_uid", "username", "loan_date", "due_date", "return_date", "extended",
}

func (r *loanRepository) GetLoan(ctx context.Context, loanUid string) (model.Loan, error) {
	q, args, err := qb.Select(loanColumns...).
		From(loansTableName).
		Where(sq.Eq{"loan_uid": loanUid}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}

	var loan model.Loan
	if err := r.db.GetContext(ctx, &loan, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Loan{}, errs.ErrNotFound
		}
		return model.Loan{}, err
	}
	return loan, nil
}

func (r *loanRepository) ListByUser(ctx context.Context, username string) ([]model.Loan, error) {
	return r.list(ctx, sq.Eq{"username": username})
}

func (r *loanRepository) ListByBook(ctx context.Context, bookUid string) ([]model.Loan, error) {
	return r.list(ctx, sq.Eq{"book_uid": bookUid})
}

func (r *loanRepository) ListActive(ctx context.Context) ([]model.Loan, error) {
	return r.list(ctx, sq.Eq{"return_date": nil})
}

func (r *loanRepository) list(ctx context.Context, pred interface{}) ([]model.Loan, error) {
	q, args, err := qb.Select(loanColumns...).
		From(loansTableName).
		Where(pred).
		OrderBy("loan_date desc, id desc").
		ToSql()
	if err != nil {
		return nil, err
	}
	var loans []model.Loan
	if err := r.db.SelectContext(ctx, &loans, q, args...); err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *loanRepository) CreateLoan(ctx context.Context, l model.Loan) (model.Loan, error) {
	q, args, err := qb.Insert(loansTableName).
		Columns("loan_uid", "book_uid", "username", "loan_date", "due_date", "return_date", "extended").
		Values(l.LoanUid, l.BookUid, l.Username, l.LoanDate, l.DueDate, l.ReturnDate, l.Extended).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}

	var loan model.Loan
	if err := r.db.GetContext(ctx, &loan, q, args...); err != nil {
		r.log.Error("CreateLoan", zap.String("q", q), zap.Any("args", args))
		return model.Loan{}, err
	}
	return loan, nil
}

// MarkReturned flips an active loan to returned. The predicate keeps an
// already-returned row untouched so the first return date always wins.
func (r *loanRepository) MarkReturned(ctx context.Context, loanUid string, at time.Time) error {
	q := `
update loans
	set return_date = $2
where loan_uid = $1 and return_date is null`
	res, err := r.db.ExecContext(ctx, q, loanUid, at)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrAlreadyReturned
	}
	return nil
}

func (r *loanRepository) MarkExtended(ctx context.Context, loanUid string, due time.Time) error {
	q := `
update loans
	set due_date = $2, extended = true
where loan_uid = $1 and return_date is null and extended = false`
	res, err := r.db.ExecContext(ctx, q, loanUid, due)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrAlreadyExtended
	}
	return nil
}
