package handler

import (
	"context"

	"github.com/t-takamichi/book-manager-api/internal/model"
	"github.com/t-takamichi/book-manager-api/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookService interface {
	ListBooks(ctx context.Context, query string, page, perPage int) (model.ListBooks, error)
	SearchBooks(ctx context.Context, query string) ([]model.Book, error)
	GetBookByID(ctx context.Context, id string) (model.Book, error)
	CheckoutBook(ctx context.Context, bookID string, req model.CheckoutRequest) (model.Book, error)
	ReturnBook(ctx context.Context, bookID string) (model.Book, error)
}

var _ BookService = (*service.Service)(nil)
