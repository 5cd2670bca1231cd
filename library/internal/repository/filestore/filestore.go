// Package filestore is the demo/offline storage backend: the whole state lives
// in one JSON file with ISO-8601 dates, rewritten after every mutation. It
// implements the same repository interfaces as the postgres backend.
package filestore

import (
	"context"
	"os"
	"sort"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/bookden/library-service/library/internal/errs"
	"github.com/bookden/library-service/library/internal/model"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type state struct {
	Books   []model.Book         `json:"books"`
	Loans   []model.Loan         `json:"loans"`
	Ratings []model.Rating       `json:"ratings"`
	Reviews []model.Review       `json:"reviews"`
	Edits   []model.EditRecord   `json:"edits"`
	Deletes []model.DeleteRecord `json:"deletes"`
	NextID  int                  `json:"nextId"`
}

// The model types hide the internal id from API payloads (json:"-"), but the
// file must keep it or ordering tiebreakers break after a reopen. Rows carry
// the id next to the flattened model fields.
type bookRow struct {
	ID int `json:"id"`
	model.Book
}

type loanRow struct {
	ID int `json:"id"`
	model.Loan
}

type ratingRow struct {
	ID int `json:"id"`
	model.Rating
}

type reviewRow struct {
	ID int `json:"id"`
	model.Review
}

type editRow struct {
	ID int `json:"id"`
	model.EditRecord
}

type deleteRow struct {
	ID int `json:"id"`
	model.DeleteRecord
}

type fileState struct {
	Books   []bookRow   `json:"books"`
	Loans   []loanRow   `json:"loans"`
	Ratings []ratingRow `json:"ratings"`
	Reviews []reviewRow `json:"reviews"`
	Edits   []editRow   `json:"edits"`
	Deletes []deleteRow `json:"deletes"`
	NextID  int         `json:"nextId"`
}

func (s state) toFile() fileState {
	f := fileState{NextID: s.NextID}
	for _, b := range s.Books {
		f.Books = append(f.Books, bookRow{ID: b.ID, Book: b})
	}
	for _, l := range s.Loans {
		f.Loans = append(f.Loans, loanRow{ID: l.ID, Loan: l})
	}
	for _, rt := range s.Ratings {
		f.Ratings = append(f.Ratings, ratingRow{ID: rt.ID, Rating: rt})
	}
	for _, rv := range s.Reviews {
		f.Reviews = append(f.Reviews, reviewRow{ID: rv.ID, Review: rv})
	}
	for _, rec := range s.Edits {
		f.Edits = append(f.Edits, editRow{ID: rec.ID, EditRecord: rec})
	}
	for _, rec := range s.Deletes {
		f.Deletes = append(f.Deletes, deleteRow{ID: rec.ID, DeleteRecord: rec})
	}
	return f
}

func (f fileState) toState() state {
	s := state{NextID: f.NextID}
	for _, row := range f.Books {
		b := row.Book
		b.ID = row.ID
		s.Books = append(s.Books, b)
	}
	for _, row := range f.Loans {
		l := row.Loan
		l.ID = row.ID
		s.Loans = append(s.Loans, l)
	}
	for _, row := range f.Ratings {
		rt := row.Rating
		rt.ID = row.ID
		s.Ratings = append(s.Ratings, rt)
	}
	for _, row := range f.Reviews {
		rv := row.Review
		rv.ID = row.ID
		s.Reviews = append(s.Reviews, rv)
	}
	for _, row := range f.Edits {
		rec := row.EditRecord
		rec.ID = row.ID
		s.Edits = append(s.Edits, rec)
	}
	for _, row := range f.Deletes {
		rec := row.DeleteRecord
		rec.ID = row.ID
		s.Deletes = append(s.Deletes, rec)
	}
	return s
}

type Store struct {
	mu    sync.Mutex
	path  string
	log   *zap.Logger
	state state
}

func Open(path string, log *zap.Logger) (*Store, error) {
	s := &Store{
		path:  path,
		log:   log.Named("filestore"),
		state: state{NextID: 1},
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Wrap(err, "filestore read")
	}
	var f fileState
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "filestore decode")
	}
	s.state = f.toState()
	if s.state.NextID == 0 {
		s.state.NextID = 1
	}
	return s, nil
}

// save is called with the mutex held.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.state.toFile(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.log.Error("filestore write", zap.Error(err))
		return err
	}
	return nil
}

func (s *Store) nextID() int {
	id := s.state.NextID
	s.state.NextID++
	return id
}

func (s *Store) GetBook(_ context.Context, bookUid string) (model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.state.Books {
		if b.BookUid == bookUid {
			return b, nil
		}
	}
	return model.Book{}, errs.ErrNotFound
}

func (s *Store) ListBooks(_ context.Context, f model.BookFilter) ([]model.Book, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]model.Book, 0, len(s.state.Books))
	for _, b := range s.state.Books {
		if f.Category != "" && b.Category != f.Category {
			continue
		}
		if f.Author != "" && b.Author != f.Author {
			continue
		}
		matched = append(matched, b)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if f.Page != 0 && f.Size != 0 {
		from := (f.Page - 1) * f.Size
		if from >= len(matched) {
			return nil, total, nil
		}
		to := from + f.Size
		if to > len(matched) {
			to = len(matched)
		}
		matched = matched[from:to]
	}
	return matched, total, nil
}

func (s *Store) CreateBook(_ context.Context, b model.Book) (model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.state.Books {
		if existing.BookUid == b.BookUid {
			return model.Book{}, errs.ErrConflict
		}
	}
	b.ID = s.nextID()
	s.state.Books = append(s.state.Books, b)
	if err := s.save(); err != nil {
		return model.Book{}, err
	}
	return b, nil
}

func (s *Store) UpdateBook(_ context.Context, b model.Book) (model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.state.Books {
		if existing.BookUid == b.BookUid {
			b.ID = existing.ID
			b.CreatedBy = existing.CreatedBy
			b.CreatedAt = existing.CreatedAt
			s.state.Books[i] = b
			if err := s.save(); err != nil {
				return model.Book{}, err
			}
			return b, nil
		}
	}
	return model.Book{}, errs.ErrNotFound
}

func (s *Store) DeleteBook(_ context.Context, bookUid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.state.Books {
		if b.BookUid == bookUid {
			s.state.Books = append(s.state.Books[:i], s.state.Books[i+1:]...)
			return s.save()
		}
	}
	return errs.ErrNotFound
}

func (s *Store) CountBooks(_ context.Context) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copies := 0
	for _, b := range s.state.Books {
		copies += b.Stock
	}
	return len(s.state.Books), copies, nil
}

func (s *Store) GetLoan(_ context.Context, loanUid string) (model.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.state.Loans {
		if l.LoanUid == loanUid {
			return l, nil
		}
	}
	return model.Loan{}, errs.ErrNotFound
}

func (s *Store) ListByUser(_ context.Context, username string) ([]model.Loan, error) {
	return s.listLoans(func(l model.Loan) bool { return l.Username == username })
}

func (s *Store) ListByBook(_ context.Context, bookUid string) ([]model.Loan, error) {
	return s.listLoans(func(l model.Loan) bool { return l.BookUid == bookUid })
}

func (s *Store) ListActive(_ context.Context) ([]model.Loan, error) {
	return s.listLoans(func(l model.Loan) bool { return l.ReturnDate == nil })
}

func (s *Store) listLoans(keep func(model.Loan) bool) ([]model.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var loans []model.Loan
	for _, l := range s.state.Loans {
		if keep(l) {
			loans = append(loans, l)
		}
	}
	sort.SliceStable(loans, func(i, j int) bool {
		if loans[i].LoanDate.Equal(loans[j].LoanDate) {
			return loans[i].ID > loans[j].ID
		}
		return loans[i].LoanDate.After(loans[j].LoanDate)
	})
	return loans, nil
}

func (s *Store) CreateLoan(_ context.Context, l model.Loan) (model.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.nextID()
	s.state.Loans = append(s.state.Loans, l)
	if err := s.save(); err != nil {
		return model.Loan{}, err
	}
	return l, nil
}

func (s *Store) MarkReturned(_ context.Context, loanUid string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.state.Loans {
		if l.LoanUid != loanUid {
			continue
		}
		if l.ReturnDate != nil {
			return errs.ErrAlreadyReturned
		}
		returned := at
		s.state.Loans[i].ReturnDate = &returned
		return s.save()
	}
	return errs.ErrNotFound
}

func (s *Store) MarkExtended(_ context.Context, loanUid string, due time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.state.Loans {
		if l.LoanUid != loanUid {
			continue
		}
		if l.ReturnDate != nil || l.Extended {
			return errs.ErrAlreadyExtended
		}
		s.state.Loans[i].DueDate = due
		s.state.Loans[i].Extended = true
		return s.save()
	}
	return errs.ErrNotFound
}

func (s *Store) Upsert(_ context.Context, rt model.Rating) (model.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.state.Ratings {
		if existing.BookUid == rt.BookUid && existing.Username == rt.Username {
			rt.ID = existing.ID
			s.state.Ratings[i] = rt
			if err := s.save(); err != nil {
				return model.Rating{}, err
			}
			return rt, nil
		}
	}
	rt.ID = s.nextID()
	s.state.Ratings = append(s.state.Ratings, rt)
	if err := s.save(); err != nil {
		return model.Rating{}, err
	}
	return rt, nil
}

func (s *Store) ListRatings(_ context.Context, bookUid string) ([]model.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []model.Rating
	for _, rt := range s.state.Ratings {
		if rt.BookUid == bookUid {
			items = append(items, rt)
		}
	}
	return items, nil
}

func (s *Store) AverageByBook(_ context.Context) (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, rt := range s.state.Ratings {
		sums[rt.BookUid] += rt.Stars
		counts[rt.BookUid]++
	}
	avgs := make(map[string]float64, len(sums))
	for uid, sum := range sums {
		avgs[uid] = float64(sum) / float64(counts[uid])
	}
	return avgs, nil
}

func (s *Store) CreateReview(_ context.Context, rv model.Review) (model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rv.ID = s.nextID()
	s.state.Reviews = append(s.state.Reviews, rv)
	if err := s.save(); err != nil {
		return model.Review{}, err
	}
	return rv, nil
}

func (s *Store) ListReviews(_ context.Context, bookUid string) ([]model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []model.Review
	for _, rv := range s.state.Reviews {
		if rv.BookUid == bookUid {
			items = append(items, rv)
		}
	}
	return items, nil
}

func (s *Store) GetReview(_ context.Context, reviewUid string) (model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rv := range s.state.Reviews {
		if rv.ReviewUid == reviewUid {
			return rv, nil
		}
	}
	return model.Review{}, errs.ErrNotFound
}

func (s *Store) DeleteReview(_ context.Context, reviewUid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rv := range s.state.Reviews {
		if rv.ReviewUid == reviewUid {
			s.state.Reviews = append(s.state.Reviews[:i], s.state.Reviews[i+1:]...)
			return s.save()
		}
	}
	return errs.ErrNotFound
}

func (s *Store) Counts(_ context.Context) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Ratings), len(s.state.Reviews), nil
}

func (s *Store) InsertEdit(_ context.Context, rec model.EditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.nextID()
	// most-recent-first, matching the SQL ordering
	s.state.Edits = append([]model.EditRecord{rec}, s.state.Edits...)
	return s.save()
}

func (s *Store) InsertDelete(_ context.Context, rec model.DeleteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.nextID()
	s.state.Deletes = append([]model.DeleteRecord{rec}, s.state.Deletes...)
	return s.save()
}

func (s *Store) ListEdits(_ context.Context) ([]model.EditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.EditRecord, len(s.state.Edits))
	copy(out, s.state.Edits)
	return out, nil
}

func (s *Store) ListDeletes(_ context.Context) ([]model.DeleteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.DeleteRecord, len(s.state.Deletes))
	copy(out, s.state.Deletes)
	return out, nil
}

func (s *Store) GetDelete(_ context.Context, recordUid string) (model.DeleteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.state.Deletes {
		if rec.RecordUid == recordUid {
			return rec, nil
		}
	}
	return model.DeleteRecord{}, errs.ErrNotFound
}

func (s *Store) RemoveDelete(_ context.Context, recordUid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range s.state.Deletes {
		if rec.RecordUid == recordUid {
			s.state.Deletes = append(s.state.Deletes[:i], s.state.Deletes[i+1:]...)
			return s.save()
		}
	}
	return errs.ErrNotFound
}
