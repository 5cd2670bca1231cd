package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/bookden/library-service/library/internal/errs"
	"github.com/bookden/library-service/library/internal/model"
	"github.com/bookden/library-service/library/internal/repository"
	"go.uber.org/zap"
)

type CatalogService struct {
	log     *zap.Logger
	catalog repository.Catalog
	loans   repository.Loans
	ratings repository.Ratings
	history repository.History
	covers  *CoverService
	audit   *Auditor
}

func NewCatalogService(
	catalog repository.Catalog,
	loans repository.Loans,
	ratings repository.Ratings,
	history repository.History,
	covers *CoverService,
	audit *Auditor,
	log *zap.Logger,
) *CatalogService {
	return &CatalogService{
		log:     log,
		catalog: catalog,
		loans:   loans,
		ratings: ratings,
		history: history,
		covers:  covers,
		audit:   audit,
	}
}

func (s *CatalogService) ListBooks(ctx context.Context, f model.BookFilter) (model.ListBooks, error) {
	books, total, err := s.catalog.ListBooks(ctx, f)
	if err != nil {
		return model.ListBooks{}, err
	}
	active, err := s.loans.ListActive(ctx)
	if err != nil {
		return model.ListBooks{}, err
	}
	avgs, err := s.ratings.AverageByBook(ctx)
	if err != nil {
		return model.ListBooks{}, err
	}

	items := make([]model.BookView, 0, len(books))
	for _, b := range books {
		view := model.BookView{
			Book:           b,
			AvailableStock: AvailableStock(b, active),
			AverageRating:  avgs[b.BookUid],
		}
		if !f.ShowAll && view.AvailableStock <= 0 {
			continue
		}
		items = append(items, view)
	}

	return model.ListBooks{
		Paging: model.Paging{
			Page:          f.Page,
			PageSize:      f.Size,
			TotalElements: total,
		},
		Items: items,
	}, nil
}

func (s *CatalogService) GetBook(ctx context.Context, bookUid string) (model.BookView, error) {
	book, err := s.catalog.GetBook(ctx, bookUid)
	if err != nil {
		return model.BookView{}, err
	}
	loans, err := s.loans.ListByBook(ctx, bookUid)
	if err != nil {
		return model.BookView{}, err
	}
	ratings, err := s.ratings.ListRatings(ctx, bookUid)
	if err != nil {
		return model.BookView{}, err
	}

	view := model.BookView{
		Book:           book,
		AvailableStock: AvailableStock(book, loans),
	}
	if len(ratings) > 0 {
		sum := 0
		for _, r := range ratings {
			sum += r.Stars
		}
		view.AverageRating = float64(sum) / float64(len(ratings))
	}
	return view, nil
}

func (s *CatalogService) CreateBook(ctx context.Context, username string, req model.CreateBookRequest) (model.Book, error) {
	book := model.Book{
		BookUid:       uuid.NewString(),
		Title:         req.Title,
		Author:        req.Author,
		Category:      req.Category,
		Description:   req.Description,
		CoverImage:    req.CoverImage,
		ISBN:          req.ISBN,
		PublishedYear: req.PublishedYear,
		CreatedBy:     username,
		CreatedAt:     time.Now().UTC(),
		Stock:         req.Stock,
	}
	created, err := s.catalog.CreateBook(ctx, book)
	if err != nil {
		return model.Book{}, err
	}
	s.log.Info("book created", zap.String("bookUid", created.BookUid), zap.String("title", created.Title))
	return created, nil
}

// UpdateBook applies a partial update. A no-op edit neither writes nor
// journals anything; a real edit is journaled with full before/after
// snapshots plus the per-field diff.
func (s *CatalogService) UpdateBook(ctx context.Context, username, bookUid string, req model.UpdateBookRequest) (model.Book, error) {
	before, err := s.catalog.GetBook(ctx, bookUid)
	if err != nil {
		return model.Book{}, err
	}

	after := applyUpdate(before, req)
	changes := DiffBooks(before, after)
	if len(changes) == 0 {
		return before, nil
	}

	if after.Stock != before.Stock {
		loans, err := s.loans.ListByBook(ctx, bookUid)
		if err != nil {
			return model.Book{}, err
		}
		activeLoans := before.Stock - AvailableStock(before, loans)
		if after.Stock < activeLoans {
			return model.Book{}, errs.ErrStockConflict
		}
	}

	updated, err := s.catalog.UpdateBook(ctx, after)
	if err != nil {
		return model.Book{}, err
	}
	now := time.Now().UTC()
	if err := s.history.InsertEdit(ctx, newEditRecord(username, before, updated, changes, now)); err != nil {
		return model.Book{}, err
	}
	s.audit.Publish(model.AuditEvent{
		Type:    model.AuditBookEdited,
		BookUid: bookUid,
		Actor:   username,
		At:      now,
	})
	return updated, nil
}

// DeleteBook captures the snapshot first, journals it, then removes the row,
// so a captured record always exists for restore.
func (s *CatalogService) DeleteBook(ctx context.Context, username, bookUid string) (model.DeleteRecord, error) {
	book, err := s.catalog.GetBook(ctx, bookUid)
	if err != nil {
		return model.DeleteRecord{}, err
	}
	now := time.Now().UTC()
	rec := newDeleteRecord(username, book, now)
	if err := s.history.InsertDelete(ctx, rec); err != nil {
		return model.DeleteRecord{}, err
	}
	if err := s.catalog.DeleteBook(ctx, bookUid); err != nil {
		return model.DeleteRecord{}, err
	}
	s.audit.Publish(model.AuditEvent{
		Type:    model.AuditBookDeleted,
		BookUid: bookUid,
		Actor:   username,
		At:      now,
	})
	s.log.Info("book deleted", zap.String("bookUid", bookUid), zap.String("deletedBy", username))
	return rec, nil
}

// BulkDeleteBooks journals one record per book; the records share the moment
// of the bulk action only approximately, each is stamped individually.
func (s *CatalogService) BulkDeleteBooks(ctx context.Context, username string, bookUids []string) ([]model.DeleteRecord, error) {
	records := make([]model.DeleteRecord, 0, len(bookUids))
	for _, uid := range bookUids {
		rec, err := s.DeleteBook(ctx, username, uid)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				continue
			}
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// RegenerateCover asks the external cover provider for a fresh image and
// journals the resulting coverImage change like any other edit.
func (s *CatalogService) RegenerateCover(ctx context.Context, username, bookUid string) (model.Book, error) {
	if _, err := s.catalog.GetBook(ctx, bookUid); err != nil {
		return model.Book{}, err
	}
	coverURL, err := s.covers.Regenerate(ctx, bookUid)
	if err != nil {
		return model.Book{}, err
	}
	return s.UpdateBook(ctx, username, bookUid, model.UpdateBookRequest{CoverImage: &coverURL})
}

func applyUpdate(b model.Book, req model.UpdateBookRequest) model.Book {
	if req.Title != nil {
		b.Title = *req.Title
	}
	if req.Author != nil {
		b.Author = *req.Author
	}
	if req.Category != nil {
		b.Category = *req.Category
	}
	if req.Description != nil {
		b.Description = *req.Description
	}
	if req.CoverImage != nil {
		b.CoverImage = *req.CoverImage
	}
	if req.ISBN != nil {
		b.ISBN = *req.ISBN
	}
	if req.PublishedYear != nil {
		b.PublishedYear = *req.PublishedYear
	}
	if req.Stock != nil {
		b.Stock = *req.Stock
	}
	return b
}
