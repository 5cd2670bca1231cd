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
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDiffBooks(t *testing.T) {
	t.Parallel()
	before := model.Book{
		BookUid:       "b1",
		Title:         "Dune",
		Author:        "Frank Herbert",
		Category:      "Sci-Fi",
		PublishedYear: 1965,
		Stock:         3,
	}

	require.Empty(t, service.DiffBooks(before, before))

	after := before
	after.Title = "Dune Messiah"
	after.Stock = 5
	changes := service.DiffBooks(before, after)
	require.Equal(t, []model.FieldChange{
		{Field: "title", OldValue: "Dune", NewValue: "Dune Messiah"},
		{Field: "stock", OldValue: "3", NewValue: "5"},
	}, changes)
}

func newCatalogFixture(t *testing.T) (*service.CatalogService, *service.HistoryService, *filestore.Store) {
	t.Helper()
	store, err := filestore.Open(filepath.Join(t.TempDir(), "state.json"), zap.NewNop())
	require.NoError(t, err)
	catalogSvc := service.NewCatalogService(store, store, store, store, nil, nil, zap.NewNop())
	historySvc := service.NewHistoryService(store, store, nil, zap.NewNop())
	return catalogSvc, historySvc, store
}

func TestCatalogService_UpdateBook_Journal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	catalogSvc, historySvc, _ := newCatalogFixture(t)

	book, err := catalogSvc.CreateBook(ctx, "admin", model.CreateBookRequest{
		Title:    "Dune",
		Author:   "Frank Herbert",
		Category: "Sci-Fi",
		Stock:    3,
	})
	require.NoError(t, err)

	// a no-op edit writes nothing and journals nothing
	sameTitle := "Dune"
	got, err := catalogSvc.UpdateBook(ctx, "admin", book.BookUid, model.UpdateBookRequest{Title: &sameTitle})
	require.NoError(t, err)
	require.Equal(t, book, got)
	edits, err := historySvc.ListEdits(ctx)
	require.NoError(t, err)
	require.Empty(t, edits)

	newTitle := "Dune Messiah"
	updated, err := catalogSvc.UpdateBook(ctx, "admin", book.BookUid, model.UpdateBookRequest{Title: &newTitle})
	require.NoError(t, err)
	require.Equal(t, "Dune Messiah", updated.Title)

	edits, err = historySvc.ListEdits(ctx)
	require.NoError(t, err)
	require.Len(t, edits, 1)
	require.Equal(t, "admin", edits[0].Editor)
	require.Equal(t, book.BookUid, edits[0].BookUid)
	require.Equal(t, "Dune", edits[0].Before.Title)
	require.Equal(t, "Dune Messiah", edits[0].After.Title)
	require.Equal(t, []model.FieldChange{
		{Field: "title", OldValue: "Dune", NewValue: "Dune Messiah"},
	}, edits[0].Changes)

	// journal is most recent first
	newAuthor := "F. Herbert"
	_, err = catalogSvc.UpdateBook(ctx, "admin", book.BookUid, model.UpdateBookRequest{Author: &newAuthor})
	require.NoError(t, err)
	edits, err = historySvc.ListEdits(ctx)
	require.NoError(t, err)
	require.Len(t, edits, 2)
	require.Equal(t, "author", edits[0].Changes[0].Field)
}

func TestCatalogService_UpdateBook_StockBelowActiveLoans(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	catalogSvc, _, store := newCatalogFixture(t)

	book, err := catalogSvc.CreateBook(ctx, "admin", model.CreateBookRequest{
		Title:    "Dune",
		Author:   "Frank Herbert",
		Category: "Sci-Fi",
		Stock:    2,
	})
	require.NoError(t, err)

	now := time.Now().UTC()
	for _, uid := range []string{"l1", "l2"} {
		_, err := store.CreateLoan(ctx, model.Loan{
			LoanUid:  uid,
			BookUid:  book.BookUid,
			Username: "reader",
			LoanDate: now,
			DueDate:  now.Add(service.LoanPeriod),
		})
		require.NoError(t, err)
	}

	one := 1
	_, err = catalogSvc.UpdateBook(ctx, "admin", book.BookUid, model.UpdateBookRequest{Stock: &one})
	require.ErrorIs(t, err, errs.ErrStockConflict)

	// equal to the active count is fine
	two := 2
	_, err = catalogSvc.UpdateBook(ctx, "admin", book.BookUid, model.UpdateBookRequest{Stock: &two, Description: strPtr("reprint")})
	require.NoError(t, err)
}

func strPtr(s string) *string { return &s }

func TestHistoryService_DeleteRestoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	catalogSvc, historySvc, _ := newCatalogFixture(t)

	book, err := catalogSvc.CreateBook(ctx, "admin", model.CreateBookRequest{
		Title:    "Dune",
		Author:   "Frank Herbert",
		Category: "Sci-Fi",
		Stock:    3,
	})
	require.NoError(t, err)

	rec, err := catalogSvc.DeleteBook(ctx, "admin", book.BookUid)
	require.NoError(t, err)
	require.Equal(t, book.BookUid, rec.BookUid)
	require.Equal(t, "admin", rec.DeletedBy)
	require.Equal(t, book.Title, rec.Book.Title)

	_, err = catalogSvc.GetBook(ctx, book.BookUid)
	require.ErrorIs(t, err, errs.ErrNotFound)

	restored, err := historySvc.RestoreBook(ctx, rec.RecordUid)
	require.NoError(t, err)
	require.Equal(t, book.BookUid, restored.BookUid)
	require.Equal(t, book.Title, restored.Title)
	require.Equal(t, book.Stock, restored.Stock)

	// the record is consumed by the restore
	deletes, err := historySvc.ListDeletes(ctx)
	require.NoError(t, err)
	require.Empty(t, deletes)
	_, err = historySvc.RestoreBook(ctx, rec.RecordUid)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCatalogService_BulkDeleteSkipsMissing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	catalogSvc, historySvc, _ := newCatalogFixture(t)

	b1, err := catalogSvc.CreateBook(ctx, "admin", model.CreateBookRequest{Title: "A", Author: "a", Category: "c"})
	require.NoError(t, err)
	b2, err := catalogSvc.CreateBook(ctx, "admin", model.CreateBookRequest{Title: "B", Author: "b", Category: "c"})
	require.NoError(t, err)

	records, err := catalogSvc.BulkDeleteBooks(ctx, "admin", []string{b1.BookUid, "missing", b2.BookUid})
	require.NoError(t, err)
	require.Len(t, records, 2)

	deletes, err := historySvc.ListDeletes(ctx)
	require.NoError(t, err)
	require.Len(t, deletes, 2)
}
