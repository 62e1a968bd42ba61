package model

import (
	"database/sql"
	"time"
)

// UnknownAuthor is shown when a book has no linked author.
const UnknownAuthor = "Unknown"

type LoanStatus string

const (
	StatusLoaned   LoanStatus = "loaned"
	StatusReturned LoanStatus = "returned"
	StatusOverdue  LoanStatus = "overdue"
)

// Book is assembled on every read from the book row, its first linked author
// and its single active loan row (if any). It is never persisted directly.
type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	ISBN        string    `json:"isbn"`
	Published   string    `json:"published"`
	Description string    `json:"description,omitempty"`
	Available   bool      `json:"available"`
	CurrentLoan *LoanInfo `json:"currentLoan,omitempty"`
}

// LoanInfo is a snapshot of the active loan, present only while the book is
// checked out.
type LoanInfo struct {
	Borrower   string `json:"borrower,omitempty"`
	BorrowerID int    `json:"borrowerId,omitempty"`
	Staff      string `json:"staff,omitempty"`
	LoanedAt   string `json:"loanedAt,omitempty"`
	DueAt      string `json:"dueAt,omitempty"`
	Status     string `json:"status,omitempty"`
}

// BookRow is the joined row produced by the catalog select: book columns,
// first linked author and the active loan with its borrower/staff names.
type BookRow struct {
	ID          int            `db:"id"`
	Title       string         `db:"title"`
	ISBN        sql.NullString `db:"isbn"`
	Published   sql.NullTime   `db:"published"`
	Description sql.NullString `db:"description"`
	Author      sql.NullString `db:"author"`
	LoanID      sql.NullInt64  `db:"loan_id"`
	BorrowerID  sql.NullInt64  `db:"borrower_id"`
	Borrower    sql.NullString `db:"borrower"`
	Staff       sql.NullString `db:"staff"`
	LoanedAt    sql.NullTime   `db:"loaned_at"`
	DueAt       sql.NullTime   `db:"due_at"`
	LoanStatus  sql.NullString `db:"loan_status"`
}

type Staff struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Role string `json:"role" db:"role"`
}

// CheckoutRequest is the checkout payload as received from the HTTP layer.
type CheckoutRequest struct {
	BorrowerID    int    `json:"borrowerId" validate:"omitempty,gt=0"`
	BorrowerName  string `json:"borrowerName"`
	BorrowerEmail string `json:"borrowerEmail" validate:"omitempty,email"`
	StaffID       int    `json:"staffId" validate:"omitempty,gt=0"`
	DueAt         string `json:"dueAt"`
}

// CreateLoan is the validated checkout, as handed to the repository.
// BorrowerID == 0 means "resolve by BorrowerName inside the transaction".
type CreateLoan struct {
	BookID        string
	BorrowerID    int
	BorrowerName  string
	BorrowerEmail string
	StaffID       int
	DueAt         *time.Time
}

type ListBooks struct {
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
	Total   int    `json:"total"`
	Items   []Book `json:"items"`
}
