package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bookden/library-service/library/internal/model"
	"github.com/bookden/library-service/library/internal/repository/filestore"
	"github.com/bookden/library-service/library/internal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStatsService_Stats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Now().UTC()

	store, err := filestore.Open(filepath.Join(t.TempDir(), "state.json"), zap.NewNop())
	require.NoError(t, err)

	_, err = store.CreateBook(ctx, model.Book{BookUid: "b1", Title: "Dune", Stock: 3})
	require.NoError(t, err)
	_, err = store.CreateBook(ctx, model.Book{BookUid: "b2", Title: "Solaris", Stock: 1})
	require.NoError(t, err)

	returned := now.Add(-time.Hour)
	for _, l := range []model.Loan{
		{LoanUid: "l1", BookUid: "b1", Username: "alice", LoanDate: now, DueDate: now.Add(service.LoanPeriod)},
		{LoanUid: "l2", BookUid: "b1", Username: "bob", LoanDate: now.Add(-10 * 24 * time.Hour), DueDate: now.Add(-3 * 24 * time.Hour)},
		{LoanUid: "l3", BookUid: "b2", Username: "carol", LoanDate: now, DueDate: now.Add(service.LoanPeriod), ReturnDate: &returned},
	} {
		_, err := store.CreateLoan(ctx, l)
		require.NoError(t, err)
	}

	_, err = store.Upsert(ctx, model.Rating{BookUid: "b1", Username: "alice", Stars: 5})
	require.NoError(t, err)
	_, err = store.CreateReview(ctx, model.Review{ReviewUid: "r1", BookUid: "b1", Username: "alice", Comment: "great"})
	require.NoError(t, err)

	svc := service.NewStatsService(store, store, store, zap.NewNop())
	require.NoError(t, svc.RecordAudit(ctx, model.AuditEvent{Type: model.AuditBookEdited}))
	require.NoError(t, svc.RecordAudit(ctx, model.AuditEvent{Type: model.AuditBookEdited}))
	require.NoError(t, svc.RecordAudit(ctx, model.AuditEvent{Type: model.AuditBookDeleted}))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)

	require.Equal(t, 2, stats.Books)
	require.Equal(t, 4, stats.Copies)
	require.Equal(t, 2, stats.ActiveLoans)
	require.Equal(t, 1, stats.OverdueLoans)
	require.Equal(t, 1, stats.Ratings)
	require.Equal(t, 1, stats.Reviews)
	require.Equal(t, map[string]int{
		model.AuditBookEdited:  2,
		model.AuditBookDeleted: 1,
	}, stats.AuditEvents)

	require.Len(t, stats.Inventory, 2)
	byUid := map[string]model.InventoryRow{}
	for _, row := range stats.Inventory {
		byUid[row.BookUid] = row
	}
	require.Equal(t, model.InventoryRow{BookUid: "b1", Title: "Dune", Stock: 3, ActiveLoans: 2, AvailableStock: 1}, byUid["b1"])
	require.Equal(t, model.InventoryRow{BookUid: "b2", Title: "Solaris", Stock: 1, ActiveLoans: 0, AvailableStock: 1}, byUid["b2"])
}
