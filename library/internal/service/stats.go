package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bookden/library-service/library/internal/model"
	"github.com/bookden/library-service/library/internal/repository"
	"go.uber.org/zap"
)

// StatsService aggregates the admin inventory view. When Kafka is enabled it
// also tallies audit events consumed since startup.
type StatsService struct {
	log     *zap.Logger
	catalog repository.Catalog
	loans   repository.Loans
	ratings repository.Ratings

	mu          sync.Mutex
	auditCounts map[string]int
}

func NewStatsService(catalog repository.Catalog, loans repository.Loans, ratings repository.Ratings, log *zap.Logger) *StatsService {
	return &StatsService{
		log:         log,
		catalog:     catalog,
		loans:       loans,
		ratings:     ratings,
		auditCounts: make(map[string]int),
	}
}

// RecordAudit is invoked by the Kafka consumer.
func (s *StatsService) RecordAudit(_ context.Context, event model.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditCounts[event.Type]++
	return nil
}

func (s *StatsService) Stats(ctx context.Context) (model.Stats, error) {
	var (
		stats  model.Stats
		books  []model.Book
		active []model.Loan
	)

	gg, ctx := errgroup.WithContext(ctx)
	gg.Go(func() error {
		var err error
		stats.Books, stats.Copies, err = s.catalog.CountBooks(ctx)
		return err
	})
	gg.Go(func() error {
		var err error
		books, _, err = s.catalog.ListBooks(ctx, model.BookFilter{})
		return err
	})
	gg.Go(func() error {
		var err error
		active, err = s.loans.ListActive(ctx)
		return err
	})
	gg.Go(func() error {
		var err error
		stats.Ratings, stats.Reviews, err = s.ratings.Counts(ctx)
		return err
	})
	if err := gg.Wait(); err != nil {
		return model.Stats{}, err
	}

	now := time.Now().UTC()
	stats.ActiveLoans = len(active)
	for _, l := range active {
		if IsOverdue(l, now) {
			stats.OverdueLoans++
		}
	}

	stats.Inventory = make([]model.InventoryRow, 0, len(books))
	for _, b := range books {
		available := AvailableStock(b, active)
		stats.Inventory = append(stats.Inventory, model.InventoryRow{
			BookUid:        b.BookUid,
			Title:          b.Title,
			Stock:          b.Stock,
			ActiveLoans:    b.Stock - available,
			AvailableStock: available,
		})
	}

	s.mu.Lock()
	if len(s.auditCounts) > 0 {
		stats.AuditEvents = make(map[string]int, len(s.auditCounts))
		for k, v := range s.auditCounts {
			stats.AuditEvents[k] = v
		}
	}
	s.mu.Unlock()

	return stats, nil
}
