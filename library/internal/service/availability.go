package service

import (
	"time"

	"github.com/bookden/library-service/library/internal/model"
)

// LoanPeriod is the initial loan term and the length of the single
// permitted extension.
const LoanPeriod = 7 * 24 * time.Hour

// AvailableStock derives the number of borrowable copies: total stock minus
// active loans for the book. The raw value is preserved even when negative
// (corrupted stock elsewhere); callers deciding availability treat <= 0 as
// unavailable.
func AvailableStock(book model.Book, loans []model.Loan) int {
	active := 0
	for _, l := range loans {
		if l.BookUid == book.BookUid && l.ReturnDate == nil {
			active++
		}
	}
	return book.Stock - active
}

// IsOverdue reports whether an active loan has passed its due date.
func IsOverdue(loan model.Loan, now time.Time) bool {
	return loan.ReturnDate == nil && loan.DueDate.Before(now)
}

// UserHasOverdue reports whether any of the user's loans is overdue.
func UserHasOverdue(username string, loans []model.Loan, now time.Time) bool {
	for _, l := range loans {
		if l.Username == username && IsOverdue(l, now) {
			return true
		}
	}
	return false
}
