package filestore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bookden/library-service/library/internal/errs"
	"github.com/bookden/library-service/library/internal/model"
	"github.com/bookden/library-service/library/internal/repository/filestore"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := filestore.Open(path, zap.NewNop())
	require.NoError(t, err)

	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	book, err := store.CreateBook(ctx, model.Book{
		BookUid:   "b1",
		Title:     "Dune",
		Author:    "Frank Herbert",
		Category:  "Sci-Fi",
		CreatedBy: "admin",
		CreatedAt: created,
		Stock:     3,
	})
	require.NoError(t, err)

	_, err = store.CreateLoan(ctx, model.Loan{
		LoanUid:  "l1",
		BookUid:  "b1",
		Username: "reader",
		LoanDate: created,
		DueDate:  created.Add(7 * 24 * time.Hour),
	})
	require.NoError(t, err)

	reopened, err := filestore.Open(path, zap.NewNop())
	require.NoError(t, err)

	got, err := reopened.GetBook(ctx, "b1")
	require.NoError(t, err)
	require.Equal(t, book, got)

	loan, err := reopened.GetLoan(ctx, "l1")
	require.NoError(t, err)
	require.Equal(t, "b1", loan.BookUid)
	require.True(t, loan.DueDate.Equal(created.Add(7*24*time.Hour)))

	// ids keep advancing after a reopen
	other, err := reopened.CreateBook(ctx, model.Book{BookUid: "b2", Title: "Solaris"})
	require.NoError(t, err)
	require.Greater(t, other.ID, book.ID)
}

func TestStore_ListBooksFilterAndPaging(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, err := filestore.Open(filepath.Join(t.TempDir(), "state.json"), zap.NewNop())
	require.NoError(t, err)

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, b := range []model.Book{
		{BookUid: "b1", Title: "Dune", Author: "Herbert", Category: "Sci-Fi"},
		{BookUid: "b2", Title: "Solaris", Author: "Lem", Category: "Sci-Fi"},
		{BookUid: "b3", Title: "Emma", Author: "Austen", Category: "Classic"},
	} {
		b.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		_, err := store.CreateBook(ctx, b)
		require.NoError(t, err)
	}

	books, total, err := store.ListBooks(ctx, model.BookFilter{Category: "Sci-Fi"})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	// newest first
	require.Equal(t, "b2", books[0].BookUid)
	require.Equal(t, "b1", books[1].BookUid)

	books, total, err = store.ListBooks(ctx, model.BookFilter{Page: 2, Size: 2})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, books, 1)
	require.Equal(t, "b1", books[0].BookUid)

	books, _, err = store.ListBooks(ctx, model.BookFilter{Page: 5, Size: 2})
	require.NoError(t, err)
	require.Empty(t, books)
}

func TestStore_MarkReturnedAndExtendedGuards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, err := filestore.Open(filepath.Join(t.TempDir(), "state.json"), zap.NewNop())
	require.NoError(t, err)

	now := time.Now().UTC()
	_, err = store.CreateLoan(ctx, model.Loan{LoanUid: "l1", BookUid: "b1", Username: "reader", LoanDate: now, DueDate: now.Add(24 * time.Hour)})
	require.NoError(t, err)

	require.NoError(t, store.MarkExtended(ctx, "l1", now.Add(48*time.Hour)))
	require.ErrorIs(t, store.MarkExtended(ctx, "l1", now.Add(72*time.Hour)), errs.ErrAlreadyExtended)

	require.NoError(t, store.MarkReturned(ctx, "l1", now))
	require.ErrorIs(t, store.MarkReturned(ctx, "l1", now), errs.ErrAlreadyReturned)
	require.ErrorIs(t, store.MarkExtended(ctx, "l1", now), errs.ErrAlreadyExtended)

	// a loan that never existed is not "already" anything
	require.ErrorIs(t, store.MarkReturned(ctx, "missing", now), errs.ErrNotFound)
	require.ErrorIs(t, store.MarkExtended(ctx, "missing", now), errs.ErrNotFound)
}

func TestStore_DeleteJournal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, err := filestore.Open(filepath.Join(t.TempDir(), "state.json"), zap.NewNop())
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, store.InsertDelete(ctx, model.DeleteRecord{RecordUid: "d1", BookUid: "b1", CreatedAt: now}))
	require.NoError(t, store.InsertDelete(ctx, model.DeleteRecord{RecordUid: "d2", BookUid: "b2", CreatedAt: now.Add(time.Minute)}))

	deletes, err := store.ListDeletes(ctx)
	require.NoError(t, err)
	require.Len(t, deletes, 2)
	// most recent first
	require.Equal(t, "d2", deletes[0].RecordUid)

	rec, err := store.GetDelete(ctx, "d1")
	require.NoError(t, err)
	require.Equal(t, "b1", rec.BookUid)

	require.NoError(t, store.RemoveDelete(ctx, "d1"))
	_, err = store.GetDelete(ctx, "d1")
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.ErrorIs(t, store.RemoveDelete(ctx, "d1"), errs.ErrNotFound)
}
