package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/t-takamichi/book-manager-api/internal/datastore"
	"github.com/t-takamichi/book-manager-api/internal/errs"
	"github.com/t-takamichi/book-manager-api/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	FindAll(ctx context.Context) ([]model.Book, error)
	FindPaginated(ctx context.Context, page, perPage int) ([]model.Book, int, error)
	FindByQuery(ctx context.Context, query string) ([]model.Book, error)
	FindByQueryPaginated(ctx context.Context, query string, page, perPage int) ([]model.Book, int, error)
	FindByID(ctx context.Context, id string) (model.Book, error)

	CreateLoanForBook(ctx context.Context, req model.CreateLoan) (model.Book, error)
	ReturnBookByBookID(ctx context.Context, bookID string) (model.Book, error)
	FindOrCreateBorrower(ctx context.Context, name, email string) (int, error)
	FindStaffByID(ctx context.Context, id int) (model.Staff, error)
}

type repository struct {
	ds  *datastore.Router
	log *zap.Logger
}

var _ Repository = (*repository)(nil)

func NewRepository(ds *datastore.Router, log *zap.Logger) (*repository, error) {
	return &repository{
		ds:  ds,
		log: log.Named("repo"),
	}, nil
}

const (
	bookTableName       = `book`
	authorTableName     = `author`
	bookAuthorTableName = `book_author`
	borrowerTableName   = `borrower`
	staffTableName      = `staff`
	loanTableName       = `loan`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// selectBooks joins each book with its first linked author and its active
// loan row (returned_at is null; at most one by invariant) plus the loan's
// borrower and staff names.
func selectBooks() sq.SelectBuilder {
	return qb.Select(
		"b.id", "b.title", "b.isbn", "b.published", "b.description",
		"a.name as author",
		"l.id as loan_id", "l.borrower_id", "br.name as borrower",
		"st.name as staff", "l.loaned_at", "l.due_at", "l.status as loan_status",
	).
		From(bookTableName+" b").
		JoinClause(fmt.Sprintf(`left join lateral (
			select au.name from %s au
			join %s ba on ba.author_id = au.id
			where ba.book_id = b.id
			order by ba.author_id
			limit 1
		) a on true`, authorTableName, bookAuthorTableName)).
		LeftJoin(fmt.Sprintf("%s l on l.book_id = b.id and l.returned_at is null", loanTableName)).
		LeftJoin(fmt.Sprintf("%s br on br.id = l.borrower_id", borrowerTableName)).
		LeftJoin(fmt.Sprintf("%s st on st.id = l.staff_id", staffTableName)).
		OrderBy("b.id asc")
}

// searchFilter matches the query against title, isbn, description or any
// linked author's name, case-insensitively.
func searchFilter(query string) sq.Sqlizer {
	pat := "%" + query + "%"
	return sq.Or{
		sq.ILike{"b.title": pat},
		sq.ILike{"b.isbn": pat},
		sq.ILike{"b.description": pat},
		sq.Expr(fmt.Sprintf(`exists (
			select 1 from %s ba
			join %s au on au.id = ba.author_id
			where ba.book_id = b.id and au.name ilike ?
		)`, bookAuthorTableName, authorTableName), pat),
	}
}

func parseBookID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, errs.NotFoundf("book %q not found", raw)
	}
	return id, nil
}

func (r *repository) FindAll(ctx context.Context) ([]model.Book, error) {
	return r.selectMany(ctx, selectBooks())
}

func (r *repository) FindByQuery(ctx context.Context, query string) ([]model.Book, error) {
	if query == "" {
		return r.FindAll(ctx)
	}
	return r.selectMany(ctx, selectBooks().Where(searchFilter(query)))
}

func (r *repository) selectMany(ctx context.Context, b sq.SelectBuilder) ([]model.Book, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	var books []model.Book
	err = r.ds.QueryOnReplica(ctx, func(q datastore.Querier) error {
		var rows []model.BookRow
		if err := q.SelectContext(ctx, &rows, query, args...); err != nil {
			return err
		}
		books = mapRows(rows)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "select books")
	}
	return books, nil
}

func (r *repository) FindPaginated(ctx context.Context, page, perPage int) ([]model.Book, int, error) {
	return r.paginated(ctx, selectBooks(), qb.Select("count(*)").From(bookTableName+" b"), page, perPage)
}

func (r *repository) FindByQueryPaginated(ctx context.Context, query string, page, perPage int) ([]model.Book, int, error) {
	if query == "" {
		return r.FindPaginated(ctx, page, perPage)
	}
	filter := searchFilter(query)
	return r.paginated(ctx,
		selectBooks().Where(filter),
		qb.Select("count(*)").From(bookTableName+" b").Where(filter),
		page, perPage)
}

// paginated runs the count and the page select concurrently within a single
// replica callback, so a fallback retries both against the primary.
func (r *repository) paginated(ctx context.Context, sel, cnt sq.SelectBuilder, page, perPage int) ([]model.Book, int, error) {
	sel = sel.Limit(uint64(perPage)).Offset(uint64((page - 1) * perPage))

	pageQ, pageArgs, err := sel.ToSql()
	if err != nil {
		return nil, 0, err
	}
	countQ, countArgs, err := cnt.ToSql()
	if err != nil {
		return nil, 0, err
	}

	var (
		items []model.Book
		total int
	)
	err = r.ds.QueryOnReplica(ctx, func(q datastore.Querier) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return q.GetContext(gctx, &total, countQ, countArgs...)
		})
		g.Go(func() error {
			var rows []model.BookRow
			if err := q.SelectContext(gctx, &rows, pageQ, pageArgs...); err != nil {
				return err
			}
			items = mapRows(rows)
			return nil
		})
		return g.Wait()
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, "select books page")
	}
	return items, total, nil
}

func (r *repository) FindByID(ctx context.Context, id string) (model.Book, error) {
	bookID, err := parseBookID(id)
	if err != nil {
		return model.Book{}, err
	}
	return r.findByID(ctx, bookID)
}

// findByID reports absence via errs.NotFound outside the replica callback,
// so a missing row is never mistaken for a replica failure.
func (r *repository) findByID(ctx context.Context, id int, opts ...datastore.ReadOption) (model.Book, error) {
	query, args, err := selectBooks().Where(sq.Eq{"b.id": id}).ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var (
		row   model.BookRow
		found bool
	)
	err = r.ds.QueryOnReplica(ctx, func(q datastore.Querier) error {
		err := q.GetContext(ctx, &row, query, args...)
		if errors.Is(err, sql.ErrNoRows) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	}, opts...)
	if err != nil {
		return model.Book{}, errors.Wrap(err, "get book")
	}
	if !found {
		return model.Book{}, errs.NotFoundf("book %d not found", id)
	}
	return mapRow(row), nil
}

func mapRows(rows []model.BookRow) []model.Book {
	books := make([]model.Book, 0, len(rows))
	for _, row := range rows {
		books = append(books, mapRow(row))
	}
	return books
}

func mapRow(row model.BookRow) model.Book {
	b := model.Book{
		ID:          strconv.Itoa(row.ID),
		Title:       row.Title,
		Author:      model.UnknownAuthor,
		ISBN:        row.ISBN.String,
		Description: row.Description.String,
		Available:   true,
	}
	if row.Author.Valid {
		b.Author = row.Author.String
	}
	if row.Published.Valid {
		b.Published = row.Published.Time.Format(time.DateOnly)
	}
	if row.LoanID.Valid {
		info := &model.LoanInfo{
			Borrower:   row.Borrower.String,
			BorrowerID: int(row.BorrowerID.Int64),
			Staff:      row.Staff.String,
			Status:     row.LoanStatus.String,
		}
		if row.LoanedAt.Valid {
			info.LoanedAt = row.LoanedAt.Time.UTC().Format(time.RFC3339)
		}
		if row.DueAt.Valid {
			info.DueAt = row.DueAt.Time.Format(time.DateOnly)
		}
		b.Available = false
		b.CurrentLoan = info
	}
	return b
}
