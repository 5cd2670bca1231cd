package model

import (
	"time"
)

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

// Book is the canonical catalog shape. The legacy author/genre variant of the
// old front-end is not modeled; clients are expected to migrate.
type Book struct {
	ID            int       `json:"-" db:"id"`
	BookUid       string    `json:"bookUid" db:"book_uid"`
	Title         string    `json:"title" db:"title"`
	Author        string    `json:"author" db:"author"`
	Category      string    `json:"category" db:"category"`
	Description   string    `json:"description" db:"description"`
	CoverImage    string    `json:"coverImage" db:"cover_image"`
	ISBN          string    `json:"isbn,omitempty" db:"isbn"`
	PublishedYear int       `json:"publishedYear" db:"published_year"`
	CreatedBy     string    `json:"createdBy" db:"created_by"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	Stock         int       `json:"stock" db:"stock"`
}

// BookView decorates a Book with facts derived from the loan ledger and ratings.
type BookView struct {
	Book           `json:",inline"`
	AvailableStock int     `json:"availableStock"`
	AverageRating  float64 `json:"averageRating"`
}

type ListBooks struct {
	Paging `json:",inline"`
	Items  []BookView `json:"items"`
}

type BookFilter struct {
	Category string
	Author   string
	ShowAll  bool
	Page     int
	Size     int
}

// Loan is a ledger entry. A nil ReturnDate means the loan is active.
// Extended is a one-shot flag: a loan may be prolonged exactly once.
type Loan struct {
	ID         int        `json:"-" db:"id"`
	LoanUid    string     `json:"loanUid" db:"loan_uid"`
	BookUid    string     `json:"bookUid" db:"book_uid"`
	Username   string     `json:"username" db:"username"`
	LoanDate   time.Time  `json:"loanDate" db:"loan_date"`
	DueDate    time.Time  `json:"dueDate" db:"due_date"`
	ReturnDate *time.Time `json:"returnDate,omitempty" db:"return_date"`
	Extended   bool       `json:"extended" db:"extended"`
}

type LoanView struct {
	Loan    `json:",inline"`
	Overdue bool  `json:"overdue"`
	Book    *Book `json:"book,omitempty"`
}

type Rating struct {
	ID        int       `json:"-" db:"id"`
	BookUid   string    `json:"bookUid" db:"book_uid"`
	Username  string    `json:"username" db:"username"`
	Stars     int       `json:"stars" db:"stars"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type Review struct {
	ID        int       `json:"-" db:"id"`
	ReviewUid string    `json:"reviewUid" db:"review_uid"`
	BookUid   string    `json:"bookUid" db:"book_uid"`
	Username  string    `json:"username" db:"username"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type FieldChange struct {
	Field    string `json:"field"`
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
}

// EditRecord is an immutable journal entry for a catalog edit. Before and
// After are point-in-time snapshots, never references to live rows.
type EditRecord struct {
	ID        int           `json:"-" db:"id"`
	RecordUid string        `json:"recordUid" db:"record_uid"`
	BookUid   string        `json:"bookUid" db:"book_uid"`
	Editor    string        `json:"editor" db:"editor"`
	Before    Book          `json:"before"`
	After     Book          `json:"after"`
	Changes   []FieldChange `json:"changes"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
}

// DeleteRecord captures the deleted Book; restoring re-inserts the snapshot
// exactly as captured and removes the record.
type DeleteRecord struct {
	ID        int       `json:"-" db:"id"`
	RecordUid string    `json:"recordUid" db:"record_uid"`
	BookUid   string    `json:"bookUid" db:"book_uid"`
	DeletedBy string    `json:"deletedBy" db:"deleted_by"`
	Book      Book      `json:"book"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type CreateBookRequest struct {
	Title         string `json:"title" validate:"required"`
	Author        string `json:"author" validate:"required"`
	Category      string `json:"category" validate:"required"`
	Description   string `json:"description"`
	CoverImage    string `json:"coverImage"`
	ISBN          string `json:"isbn"`
	PublishedYear int    `json:"publishedYear" validate:"omitempty,gte=0"`
	Stock         int    `json:"stock" validate:"gte=0"`
}

// UpdateBookRequest carries only the fields the client wants to change.
type UpdateBookRequest struct {
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	Category      *string `json:"category"`
	Description   *string `json:"description"`
	CoverImage    *string `json:"coverImage"`
	ISBN          *string `json:"isbn"`
	PublishedYear *int    `json:"publishedYear" validate:"omitempty,gte=0"`
	Stock         *int    `json:"stock" validate:"omitempty,gte=0"`
}

type BulkDeleteRequest struct {
	BookUids []string `json:"bookUids" validate:"required,min=1"`
}

type CreateLoanRequest struct {
	BookUid string `json:"bookUid" validate:"required"`
}

type RatingRequest struct {
	Stars int `json:"stars" validate:"required,gte=1,lte=5"`
}

type CreateReviewRequest struct {
	Comment string `json:"comment" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type InventoryRow struct {
	BookUid        string `json:"bookUid"`
	Title          string `json:"title"`
	Stock          int    `json:"stock"`
	ActiveLoans    int    `json:"activeLoans"`
	AvailableStock int    `json:"availableStock"`
}

type Stats struct {
	Books        int            `json:"books"`
	Copies       int            `json:"copies"`
	ActiveLoans  int            `json:"activeLoans"`
	OverdueLoans int            `json:"overdueLoans"`
	Ratings      int            `json:"ratings"`
	Reviews      int            `json:"reviews"`
	AuditEvents  map[string]int `json:"auditEvents,omitempty"`
	Inventory    []InventoryRow `json:"inventory"`
}

// AuditEvent is published to Kafka for every journaled catalog mutation.
type AuditEvent struct {
	Type    string    `json:"type"`
	BookUid string    `json:"bookUid"`
	Actor   string    `json:"actor"`
	At      time.Time `json:"at"`
}

const (
	AuditBookEdited   = "book.edited"
	AuditBookDeleted  = "book.deleted"
	AuditBookRestored = "book.restored"
)
