package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bookden/library-service/library/internal/errs"
	"github.com/bookden/library-service/library/internal/model"
	"github.com/bookden/library-service/library/internal/repository/filestore"
	"github.com/bookden/library-service/library/internal/service"
	"github.com/bookden/library-service/pkg/auth"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLoanFixture(t *testing.T, books ...model.Book) (*service.LoanService, *filestore.Store) {
	t.Helper()
	store, err := filestore.Open(filepath.Join(t.TempDir(), "state.json"), zap.NewNop())
	require.NoError(t, err)
	for _, b := range books {
		_, err := store.CreateBook(context.Background(), b)
		require.NoError(t, err)
	}
	return service.NewLoanService(store, store, zap.NewNop()), store
}

func TestLoanService_Lifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Now().UTC()
	svc, _ := newLoanFixture(t, model.Book{BookUid: "b1", Title: "Dune", Stock: 1})

	loan, err := svc.CreateLoan(ctx, "b1", "reader", now)
	require.NoError(t, err)
	require.Equal(t, "b1", loan.BookUid)
	require.Equal(t, "reader", loan.Username)
	require.Equal(t, now.Add(service.LoanPeriod), loan.DueDate)
	require.False(t, loan.Extended)
	require.Nil(t, loan.ReturnDate)

	// the only copy is out
	_, err = svc.CreateLoan(ctx, "b1", "other", now)
	require.ErrorIs(t, err, errs.ErrOutOfStock)

	returned, err := svc.ReturnLoan(ctx, loan.LoanUid, "reader", now.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnDate)

	// returning frees the copy
	_, err = svc.CreateLoan(ctx, "b1", "other", now.Add(2*time.Hour))
	require.NoError(t, err)
}

func TestLoanService_CreateLoan_UnknownBook(t *testing.T) {
	t.Parallel()
	svc, _ := newLoanFixture(t)
	_, err := svc.CreateLoan(context.Background(), "missing", "reader", time.Now().UTC())
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestLoanService_OverdueBlocksNewLoans(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Now().UTC()
	svc, store := newLoanFixture(t,
		model.Book{BookUid: "b1", Stock: 5},
		model.Book{BookUid: "b2", Stock: 5},
	)

	_, err := store.CreateLoan(ctx, model.Loan{
		LoanUid:  "overdue-loan",
		BookUid:  "b1",
		Username: "reader",
		LoanDate: now.Add(-10 * 24 * time.Hour),
		DueDate:  now.Add(-3 * 24 * time.Hour),
	})
	require.NoError(t, err)

	// blocked even though plenty of copies of another book are available
	_, err = svc.CreateLoan(ctx, "b2", "reader", now)
	require.ErrorIs(t, err, errs.ErrOverdueBlock)

	// other users are unaffected
	_, err = svc.CreateLoan(ctx, "b2", "other", now)
	require.NoError(t, err)

	// returning the overdue loan lifts the block
	_, err = svc.ReturnLoan(ctx, "overdue-loan", "reader", now)
	require.NoError(t, err)
	_, err = svc.CreateLoan(ctx, "b2", "reader", now)
	require.NoError(t, err)
}

func TestLoanService_ExtendOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Now().UTC()
	svc, _ := newLoanFixture(t, model.Book{BookUid: "b1", Stock: 1})

	loan, err := svc.CreateLoan(ctx, "b1", "reader", now)
	require.NoError(t, err)

	// extending mid-term shifts the due date from the old due date, not from now
	extended, err := svc.ExtendLoan(ctx, loan.LoanUid, "reader", now.Add(3*24*time.Hour))
	require.NoError(t, err)
	require.True(t, extended.Extended)
	require.Equal(t, loan.DueDate.Add(service.LoanPeriod), extended.DueDate)

	_, err = svc.ExtendLoan(ctx, loan.LoanUid, "reader", now)
	require.ErrorIs(t, err, errs.ErrAlreadyExtended)
}

func TestLoanService_ReturnedLoanIsTerminal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Now().UTC()
	svc, store := newLoanFixture(t, model.Book{BookUid: "b1", Stock: 1})

	loan, err := svc.CreateLoan(ctx, "b1", "reader", now)
	require.NoError(t, err)
	first, err := svc.ReturnLoan(ctx, loan.LoanUid, "reader", now)
	require.NoError(t, err)

	_, err = svc.ReturnLoan(ctx, loan.LoanUid, "reader", now.Add(time.Hour))
	require.ErrorIs(t, err, errs.ErrAlreadyReturned)

	// the first return date stands
	kept, err := store.GetLoan(ctx, loan.LoanUid)
	require.NoError(t, err)
	require.NotNil(t, kept.ReturnDate)
	require.True(t, kept.ReturnDate.Equal(*first.ReturnDate))

	// a returned loan is gone as far as extension is concerned
	_, err = svc.ExtendLoan(ctx, loan.LoanUid, "reader", now)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestLoanService_Ownership(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Now().UTC()
	svc, _ := newLoanFixture(t, model.Book{BookUid: "b1", Stock: 1})

	loan, err := svc.CreateLoan(ctx, "b1", "reader", now)
	require.NoError(t, err)

	_, err = svc.ReturnLoan(ctx, loan.LoanUid, "other", now)
	require.ErrorIs(t, err, errs.ErrForbidden)
	_, err = svc.ExtendLoan(ctx, loan.LoanUid, "other", now)
	require.ErrorIs(t, err, errs.ErrForbidden)

	adminCtx := auth.SetAuthContext(ctx, "admin", auth.RoleAdmin)
	_, err = svc.ReturnLoan(adminCtx, loan.LoanUid, "admin", now)
	require.NoError(t, err)
}

func TestLoanService_ListLoans(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Now().UTC()
	svc, store := newLoanFixture(t, model.Book{BookUid: "b1", Title: "Dune", Stock: 2})

	_, err := store.CreateLoan(ctx, model.Loan{
		LoanUid:  "late",
		BookUid:  "b1",
		Username: "reader",
		LoanDate: now.Add(-10 * 24 * time.Hour),
		DueDate:  now.Add(-3 * 24 * time.Hour),
	})
	require.NoError(t, err)
	_, err = store.CreateLoan(ctx, model.Loan{
		LoanUid:  "fresh",
		BookUid:  "b1",
		Username: "reader",
		LoanDate: now,
		DueDate:  now.Add(service.LoanPeriod),
	})
	require.NoError(t, err)

	views, err := svc.ListLoans(ctx, "reader", now)
	require.NoError(t, err)
	require.Len(t, views, 2)

	// most recent first, decorated with book and overdue flag
	require.Equal(t, "fresh", views[0].LoanUid)
	require.False(t, views[0].Overdue)
	require.Equal(t, "late", views[1].LoanUid)
	require.True(t, views[1].Overdue)
	require.NotNil(t, views[0].Book)
	require.Equal(t, "Dune", views[0].Book.Title)
}
