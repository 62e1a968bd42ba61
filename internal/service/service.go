package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/t-takamichi/book-manager-api/internal/errs"
	"github.com/t-takamichi/book-manager-api/internal/events"
	"github.com/t-takamichi/book-manager-api/internal/model"
	"github.com/t-takamichi/book-manager-api/internal/repository"
	"github.com/t-takamichi/book-manager-api/pkg/kafka"
)

const (
	defaultPerPage = 15
	maxPerPage     = 100
)

type Service struct {
	log    *zap.Logger
	repo   repository.Repository
	events events.Enqueuer
}

// NewService wires the book service. enqueuer may be nil; loan events are
// then skipped.
func NewService(repo repository.Repository, enqueuer events.Enqueuer, log *zap.Logger) *Service {
	return &Service{
		log:    log.Named("service"),
		repo:   repo,
		events: enqueuer,
	}
}

// ListBooks returns one catalog page, filtered when query is non-empty.
func (s *Service) ListBooks(ctx context.Context, query string, page, perPage int) (model.ListBooks, error) {
	page, perPage = normalizePaging(page, perPage)

	var (
		items []model.Book
		total int
		err   error
	)
	if query == "" {
		items, total, err = s.repo.FindPaginated(ctx, page, perPage)
	} else {
		items, total, err = s.repo.FindByQueryPaginated(ctx, query, page, perPage)
	}
	if err != nil {
		return model.ListBooks{}, err
	}

	return model.ListBooks{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Items:   items,
	}, nil
}

// SearchBooks returns every match; an empty result is a NotFound, matching
// the lookup semantics of the search endpoint.
func (s *Service) SearchBooks(ctx context.Context, query string) ([]model.Book, error) {
	books, err := s.repo.FindByQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		s.log.Warn("no books found", zap.String("query", query))
		return nil, errs.NotFoundf("no books found for the given query")
	}
	return books, nil
}

func (s *Service) GetBookByID(ctx context.Context, id string) (model.Book, error) {
	if id == "" {
		return model.Book{}, errs.NotFoundf("book id is required")
	}
	return s.repo.FindByID(ctx, id)
}

// CheckoutBook validates the request and runs the checkout transaction.
func (s *Service) CheckoutBook(ctx context.Context, bookID string, req model.CheckoutRequest) (model.Book, error) {
	createLoan, err := buildCreateLoan(bookID, req, time.Now())
	if err != nil {
		return model.Book{}, err
	}

	book, err := s.repo.CreateLoanForBook(ctx, createLoan)
	if err != nil {
		return model.Book{}, err
	}

	borrowerID := 0
	if book.CurrentLoan != nil {
		borrowerID = book.CurrentLoan.BorrowerID
	}
	s.publish(events.TypeCheckout, bookID, borrowerID)

	return book, nil
}

func (s *Service) ReturnBook(ctx context.Context, bookID string) (model.Book, error) {
	book, err := s.repo.ReturnBookByBookID(ctx, bookID)
	if err != nil {
		return model.Book{}, err
	}

	s.publish(events.TypeReturn, bookID, 0)

	return book, nil
}

// publish is fire-and-forget: a broker failure never fails the request.
func (s *Service) publish(eventType, bookID string, borrowerID int) {
	if s.events == nil {
		return
	}
	ev := events.NewLoanEvent(eventType, bookID, borrowerID)
	if err := s.events.Enqueue(kafka.LoanEventsTopic, ev); err != nil {
		s.log.Warn("enqueue loan event",
			zap.String("type", eventType),
			zap.String("bookId", bookID),
			zap.Error(err))
	}
}

func normalizePaging(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

// buildCreateLoan re-verifies the checkout preconditions before any store
// access: a borrower identifier is required, staffId must be positive when
// present and dueAt may not lie in the past.
func buildCreateLoan(bookID string, req model.CheckoutRequest, now time.Time) (model.CreateLoan, error) {
	if req.BorrowerID == 0 && req.BorrowerName == "" {
		return model.CreateLoan{}, errs.ValidationFailedf("borrowerId or borrowerName is required")
	}
	if req.BorrowerID < 0 {
		return model.CreateLoan{}, errs.ValidationFailedf("borrowerId must be positive")
	}
	if req.StaffID < 0 {
		return model.CreateLoan{}, errs.ValidationFailedf("staffId must be positive")
	}

	createLoan := model.CreateLoan{
		BookID:        bookID,
		BorrowerID:    req.BorrowerID,
		BorrowerName:  req.BorrowerName,
		BorrowerEmail: req.BorrowerEmail,
		StaffID:       req.StaffID,
	}

	if req.DueAt != "" {
		due, err := time.Parse(time.DateOnly, req.DueAt)
		if err != nil {
			return model.CreateLoan{}, errs.ValidationFailedf("dueAt must be a valid date")
		}
		today, err := time.Parse(time.DateOnly, now.UTC().Format(time.DateOnly))
		if err != nil {
			return model.CreateLoan{}, errs.Internalf("format today: %v", err)
		}
		if due.Before(today) {
			return model.CreateLoan{}, errs.ValidationFailedf("dueAt cannot be in the past")
		}
		createLoan.DueAt = &due
	}

	return createLoan, nil
}
