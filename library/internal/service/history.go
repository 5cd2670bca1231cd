package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/bookden/library-service/library/internal/model"
	"github.com/bookden/library-service/library/internal/repository"
	"go.uber.org/zap"
)

// DiffBooks compares the tracked fields of two Book snapshots and returns one
// change entry per differing field. An empty result means the edit was a no-op
// and must not be journaled.
func DiffBooks(before, after model.Book) []model.FieldChange {
	var changes []model.FieldChange
	add := func(field, oldValue, newValue string) {
		if oldValue != newValue {
			changes = append(changes, model.FieldChange{
				Field:    field,
				OldValue: oldValue,
				NewValue: newValue,
			})
		}
	}
	add("title", before.Title, after.Title)
	add("author", before.Author, after.Author)
	add("category", before.Category, after.Category)
	add("description", before.Description, after.Description)
	add("isbn", before.ISBN, after.ISBN)
	add("publishedYear", strconv.Itoa(before.PublishedYear), strconv.Itoa(after.PublishedYear))
	add("coverImage", before.CoverImage, after.CoverImage)
	add("stock", strconv.Itoa(before.Stock), strconv.Itoa(after.Stock))
	return changes
}

type HistoryService struct {
	log     *zap.Logger
	history repository.History
	catalog repository.Catalog
	audit   *Auditor
}

func NewHistoryService(history repository.History, catalog repository.Catalog, audit *Auditor, log *zap.Logger) *HistoryService {
	return &HistoryService{
		log:     log,
		history: history,
		catalog: catalog,
		audit:   audit,
	}
}

func (s *HistoryService) ListEdits(ctx context.Context) ([]model.EditRecord, error) {
	return s.history.ListEdits(ctx)
}

func (s *HistoryService) ListDeletes(ctx context.Context) ([]model.DeleteRecord, error) {
	return s.history.ListDeletes(ctx)
}

// RestoreBook re-inserts the snapshot captured at deletion time, exactly as it
// was, and drops the record from history. This is the only reverse operation.
func (s *HistoryService) RestoreBook(ctx context.Context, recordUid string) (model.Book, error) {
	rec, err := s.history.GetDelete(ctx, recordUid)
	if err != nil {
		return model.Book{}, err
	}
	book, err := s.catalog.CreateBook(ctx, rec.Book)
	if err != nil {
		return model.Book{}, err
	}
	if err := s.history.RemoveDelete(ctx, recordUid); err != nil {
		return model.Book{}, err
	}
	s.audit.Publish(model.AuditEvent{
		Type:    model.AuditBookRestored,
		BookUid: book.BookUid,
		At:      time.Now().UTC(),
	})
	s.log.Info("book restored", zap.String("bookUid", book.BookUid), zap.String("recordUid", recordUid))
	return book, nil
}

func newEditRecord(editor string, before, after model.Book, changes []model.FieldChange, at time.Time) model.EditRecord {
	return model.EditRecord{
		RecordUid: uuid.NewString(),
		BookUid:   before.BookUid,
		Editor:    editor,
		Before:    before,
		After:     after,
		Changes:   changes,
		CreatedAt: at,
	}
}

func newDeleteRecord(deletedBy string, book model.Book, at time.Time) model.DeleteRecord {
	return model.DeleteRecord{
		RecordUid: uuid.NewString(),
		BookUid:   book.BookUid,
		DeletedBy: deletedBy,
		Book:      book,
		CreatedAt: at,
	}
}
