package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/t-takamichi/book-manager-api/internal/datastore"
	"github.com/t-takamichi/book-manager-api/internal/errs"
	"github.com/t-takamichi/book-manager-api/internal/model"
)

var (
	lockBookQ    = regexp.QuoteMeta(`SELECT id FROM book WHERE id = $1 for update`)
	activeLoanQ  = regexp.QuoteMeta(`SELECT id FROM loan WHERE book_id = $1 AND returned_at is null`)
	borrowerQ    = regexp.QuoteMeta(`insert into borrower (name, email)`)
	staffQ       = regexp.QuoteMeta(`SELECT id FROM staff WHERE id = $1`)
	insertLoanQ  = regexp.QuoteMeta(`INSERT INTO loan (book_id,borrower_id,staff_id,loaned_at,due_at,status)`)
	closeLoanQ   = regexp.QuoteMeta(`UPDATE loan SET returned_at = $1, status = $2 WHERE id = $3`)
	selectBooksQ = regexp.QuoteMeta(`SELECT b.id, b.title, b.isbn, b.published, b.description`)
)

var bookReadCols = []string{
	"id", "title", "isbn", "published", "description", "author",
	"loan_id", "borrower_id", "borrower", "staff", "loaned_at", "due_at", "loan_status",
}

func newMockRepo(t *testing.T) (*repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sdb := sqlx.NewDb(db, "sqlmock")
	ds := datastore.New(sdb, sdb, zap.NewNop())
	return &repository{ds: ds, log: zap.NewNop()}, mock
}

func TestCreateLoanForBook_Success(t *testing.T) {
	r, mock := newMockRepo(t)
	loanedAt := time.Date(2026, 8, 30, 12, 30, 0, 0, time.UTC)
	due := time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(lockBookQ).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(activeLoanQ).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(borrowerQ).WithArgs("佐藤 太郎", "sato@example.local").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(staffQ).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(insertLoanQ).
		WithArgs(3, 7, 1, sqlmock.AnyArg(), sqlmock.AnyArg(), "loaned").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(selectBooksQ).WithArgs(3).
		WillReturnRows(sqlmock.NewRows(bookReadCols).
			AddRow(3, "こころ", "978-4-0000-1001-1", nil, nil, "夏目 漱石",
				11, 7, "佐藤 太郎", "受付 太郎", loanedAt, due, "loaned"))

	book, err := r.CreateLoanForBook(context.Background(), model.CreateLoan{
		BookID:        "3",
		BorrowerName:  "佐藤 太郎",
		BorrowerEmail: "sato@example.local",
		StaffID:       1,
		DueAt:         &due,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Equal(t, "3", book.ID)
	require.False(t, book.Available)
	require.NotNil(t, book.CurrentLoan)
	require.Equal(t, 7, book.CurrentLoan.BorrowerID)
	require.Equal(t, "佐藤 太郎", book.CurrentLoan.Borrower)
	require.Equal(t, "2026-09-13", book.CurrentLoan.DueAt)
	require.Equal(t, "loaned", book.CurrentLoan.Status)
}

func TestCreateLoanForBook_BookNotFound(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockBookQ).WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := r.CreateLoanForBook(context.Background(), model.CreateLoan{
		BookID:       "99",
		BorrowerName: "佐藤 太郎",
	})
	require.True(t, errs.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLoanForBook_AlreadyLoaned(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockBookQ).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(activeLoanQ).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectRollback()

	_, err := r.CreateLoanForBook(context.Background(), model.CreateLoan{
		BookID:       "3",
		BorrowerName: "佐藤 太郎",
	})
	require.True(t, errs.IsAlreadyLoaned(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

// An unknown staff id must roll the whole transaction back, including the
// borrower row created two steps earlier.
func TestCreateLoanForBook_InvalidStaffRollsBackBorrower(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockBookQ).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(activeLoanQ).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(borrowerQ).WithArgs("佐藤 太郎", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(staffQ).WithArgs(99999).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := r.CreateLoanForBook(context.Background(), model.CreateLoan{
		BookID:       "3",
		BorrowerName: "佐藤 太郎",
		StaffID:      99999,
	})
	require.True(t, errs.IsDomainValidation(err))
	require.False(t, errs.IsAlreadyLoaned(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

// The partial unique index is the backstop when two checkouts race past the
// active-loan check; its violation must read as AlreadyLoaned, not Internal.
func TestCreateLoanForBook_UniqueViolationOnInsert(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockBookQ).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(activeLoanQ).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(insertLoanQ).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
	mock.ExpectRollback()

	_, err := r.CreateLoanForBook(context.Background(), model.CreateLoan{
		BookID:     "3",
		BorrowerID: 7,
	})
	require.True(t, errs.IsAlreadyLoaned(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

// A caller-supplied borrower id that does not exist trips the borrower FK
// and must surface as a validation failure, not an internal error.
func TestCreateLoanForBook_UnknownBorrowerID(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockBookQ).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(activeLoanQ).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(insertLoanQ).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})
	mock.ExpectRollback()

	_, err := r.CreateLoanForBook(context.Background(), model.CreateLoan{
		BookID:     "3",
		BorrowerID: 12345,
	})
	require.True(t, errs.IsDomainValidation(err))
	require.False(t, errs.IsAlreadyLoaned(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReturnBookByBookID_Success(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(activeLoanQ).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectExec(closeLoanQ).
		WithArgs(sqlmock.AnyArg(), "returned", 11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(selectBooksQ).WithArgs(3).
		WillReturnRows(sqlmock.NewRows(bookReadCols).
			AddRow(3, "こころ", "978-4-0000-1001-1", nil, nil, "夏目 漱石",
				nil, nil, nil, nil, nil, nil, nil))

	book, err := r.ReturnBookByBookID(context.Background(), "3")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.True(t, book.Available)
	require.Nil(t, book.CurrentLoan)
}

func TestReturnBookByBookID_NoActiveLoan(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(activeLoanQ).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := r.ReturnBookByBookID(context.Background(), "3")
	require.True(t, errs.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
