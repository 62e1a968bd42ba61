package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/t-takamichi/book-manager-api/internal/datastore"
	"github.com/t-takamichi/book-manager-api/internal/errs"
	"github.com/t-takamichi/book-manager-api/internal/model"
)

// CreateLoanForBook runs the whole checkout as one primary transaction:
// book lock, active-loan check, borrower resolution, staff validation and
// the loan insert either all commit or all roll back. The transactional
// active-loan check plus the partial unique index on loan(book_id) keep the
// "at most one active loan per book" invariant race-free.
func (r *repository) CreateLoanForBook(ctx context.Context, req model.CreateLoan) (model.Book, error) {
	bookID, err := parseBookID(req.BookID)
	if err != nil {
		return model.Book{}, err
	}

	err = r.ds.TransactOnPrimary(ctx, func(tx *sqlx.Tx) error {
		if err := lockBook(ctx, tx, bookID); err != nil {
			return err
		}

		if err := ensureNoActiveLoan(ctx, tx, bookID); err != nil {
			return err
		}

		borrowerID := req.BorrowerID
		if borrowerID == 0 {
			id, err := upsertBorrower(ctx, tx, req.BorrowerName, req.BorrowerEmail)
			if err != nil {
				return err
			}
			borrowerID = id
		}

		if req.StaffID != 0 {
			if err := ensureStaffExists(ctx, tx, req.StaffID); err != nil {
				return err
			}
		}

		return insertLoan(ctx, tx, bookID, borrowerID, req.StaffID, req.DueAt)
	})
	if err != nil {
		return model.Book{}, err
	}

	r.log.Debug("loan created", zap.Int("bookID", bookID))

	// the caller must observe its own write even if reads are replica-routed
	return r.findByID(ctx, bookID, datastore.RequireFresh())
}

// ReturnBookByBookID closes the active loan for the book. Returning a book
// with no active loan fails with NotFound and mutates nothing.
func (r *repository) ReturnBookByBookID(ctx context.Context, rawBookID string) (model.Book, error) {
	bookID, err := parseBookID(rawBookID)
	if err != nil {
		return model.Book{}, err
	}

	err = r.ds.TransactOnPrimary(ctx, func(tx *sqlx.Tx) error {
		query, args, err := qb.Select("id").
			From(loanTableName).
			Where(sq.Eq{"book_id": bookID}).
			Where("returned_at is null").
			Suffix("for update").
			ToSql()
		if err != nil {
			return err
		}

		var loanID int
		if err := tx.GetContext(ctx, &loanID, query, args...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errs.NotFoundf("no active loan for book %d", bookID)
			}
			return errors.Wrap(err, "active loan lookup")
		}

		query, args, err = qb.Update(loanTableName).
			Set("returned_at", time.Now().UTC()).
			Set("status", model.StatusReturned).
			Where(sq.Eq{"id": loanID}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return errors.Wrap(err, "close loan")
		}
		return nil
	})
	if err != nil {
		return model.Book{}, err
	}

	r.log.Debug("loan returned", zap.Int("bookID", bookID))

	return r.findByID(ctx, bookID, datastore.RequireFresh())
}

// FindOrCreateBorrower resolves a borrower id by exact name, creating the
// borrower when absent. The upsert is keyed by the unique name, so two
// concurrent checkouts for the same name resolve to one row.
func (r *repository) FindOrCreateBorrower(ctx context.Context, name, email string) (int, error) {
	var id int
	err := r.ds.ExecuteOnPrimary(ctx, func(q datastore.Querier) error {
		return q.GetContext(ctx, &id, upsertBorrowerQuery(), name, nullString(email))
	})
	if err != nil {
		return 0, errors.Wrap(err, "find or create borrower")
	}
	return id, nil
}

func (r *repository) FindStaffByID(ctx context.Context, id int) (model.Staff, error) {
	query, args, err := qb.Select("id", "name", "role").
		From(staffTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Staff{}, err
	}

	var (
		staff model.Staff
		found bool
	)
	err = r.ds.QueryOnReplica(ctx, func(q datastore.Querier) error {
		err := q.GetContext(ctx, &staff, query, args...)
		if errors.Is(err, sql.ErrNoRows) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return model.Staff{}, errors.Wrap(err, "get staff")
	}
	if !found {
		return model.Staff{}, errs.NotFoundf("staff %d not found", id)
	}
	return staff, nil
}

// lockBook takes the book's row lock, serializing concurrent checkouts of
// the same book for the rest of the transaction.
func lockBook(ctx context.Context, tx *sqlx.Tx, bookID int) error {
	query, args, err := qb.Select("id").
		From(bookTableName).
		Where(sq.Eq{"id": bookID}).
		Suffix("for update").
		ToSql()
	if err != nil {
		return err
	}

	var id int
	if err := tx.GetContext(ctx, &id, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errs.NotFoundf("book %d not found", bookID)
		}
		return errors.Wrap(err, "lock book")
	}
	return nil
}

func ensureNoActiveLoan(ctx context.Context, tx *sqlx.Tx, bookID int) error {
	query, args, err := qb.Select("id").
		From(loanTableName).
		Where(sq.Eq{"book_id": bookID}).
		Where("returned_at is null").
		ToSql()
	if err != nil {
		return err
	}

	var loanID int
	err = tx.GetContext(ctx, &loanID, query, args...)
	if err == nil {
		return errs.AlreadyLoanedf("book %d is already loaned out", bookID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(err, "active loan lookup")
	}
	return nil
}

func upsertBorrowerQuery() string {
	return fmt.Sprintf(`insert into %s (name, email) values ($1, $2)
on conflict (name) do update set name = excluded.name
returning id`, borrowerTableName)
}

func upsertBorrower(ctx context.Context, tx *sqlx.Tx, name, email string) (int, error) {
	var id int
	if err := tx.GetContext(ctx, &id, upsertBorrowerQuery(), name, nullString(email)); err != nil {
		return 0, errors.Wrap(err, "resolve borrower")
	}
	return id, nil
}

func ensureStaffExists(ctx context.Context, tx *sqlx.Tx, staffID int) error {
	query, args, err := qb.Select("id").
		From(staffTableName).
		Where(sq.Eq{"id": staffID}).
		ToSql()
	if err != nil {
		return err
	}

	var id int
	if err := tx.GetContext(ctx, &id, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errs.ValidationFailedf("staff %d not found", staffID)
		}
		return errors.Wrap(err, "staff lookup")
	}
	return nil
}

func insertLoan(ctx context.Context, tx *sqlx.Tx, bookID, borrowerID, staffID int, dueAt *time.Time) error {
	query, args, err := qb.Insert(loanTableName).
		Columns("book_id", "borrower_id", "staff_id", "loaned_at", "due_at", "status").
		Values(bookID, borrowerID, nullInt(staffID), time.Now().UTC(), nullTime(dueAt), model.StatusLoaned).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		// the partial unique index is the storage-level backstop for the
		// one-active-loan invariant
		if isUniqueViolation(err) {
			return errs.AlreadyLoanedf("book %d is already loaned out", bookID)
		}
		// the borrower FK is the only one not checked earlier in the tx:
		// the book row is locked and the staff row verified
		if isForeignKeyViolation(err) {
			return errs.ValidationFailedf("borrower %d not found", borrowerID)
		}
		return errors.Wrap(err, "insert loan")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(i int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(i), Valid: i != 0}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
