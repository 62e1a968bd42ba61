package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/t-takamichi/book-manager-api/internal/errs"
	"github.com/t-takamichi/book-manager-api/internal/handler"
	service_mocks "github.com/t-takamichi/book-manager-api/internal/handler/mocks"
	"github.com/t-takamichi/book-manager-api/internal/model"
	"github.com/t-takamichi/book-manager-api/pkg/validate"
)

func newTestRouter(t *testing.T) (*echo.Echo, *service_mocks.MockBookService) {
	t.Helper()
	c := gomock.NewController(t)
	t.Cleanup(c.Finish)
	svc := service_mocks.NewMockBookService(c)
	h := handler.New(svc, zap.NewExample().Named("test"))

	e := echo.New()
	e.Validator = validate.NewCustomValidator()
	e.GET("/api/v1/books", h.ListBooks)
	e.GET("/api/v1/books/search", h.SearchBooks)
	e.GET("/api/v1/books/:id", h.GetBookByID)
	e.POST("/api/v1/books/:id/checkout", h.CheckoutBook)
	e.POST("/api/v1/books/:id/return", h.ReturnBook)
	return e, svc
}

func TestHandler_GetBookByID(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(s *service_mocks.MockBookService)

	var tests = []struct {
		name         string
		id           string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			id:   "3",
			mockBehavior: func(s *service_mocks.MockBookService) {
				s.EXPECT().
					GetBookByID(context.Background(), "3").
					Return(model.Book{
						ID:        "3",
						Title:     "海辺のカフカ",
						Author:    "村上 春樹",
						ISBN:      "978-4-0000-1029-9",
						Published: "2004-09-01",
						Available: true,
					}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"id":"3","title":"海辺のカフカ","author":"村上 春樹","isbn":"978-4-0000-1029-9","published":"2004-09-01","available":true}`,
			},
		},
		{
			name: "err. not found",
			id:   "999",
			mockBehavior: func(s *service_mocks.MockBookService) {
				s.EXPECT().
					GetBookByID(context.Background(), "999").
					Return(model.Book{}, errs.NotFoundf("book %d not found", 999))
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"book 999 not found"}`,
			},
		},
		{
			name: "err. internal",
			id:   "3",
			mockBehavior: func(s *service_mocks.MockBookService) {
				s.EXPECT().
					GetBookByID(context.Background(), "3").
					Return(model.Book{}, errors.New("db internal"))
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"db internal"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newTestRouter(t)
			tt.mockBehavior(svc)

			r := httptest.NewRequest(http.MethodGet, "/api/v1/books/"+tt.id, http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_ListBooks(t *testing.T) {
	t.Parallel()

	e, svc := newTestRouter(t)
	svc.EXPECT().
		ListBooks(context.Background(), "", 2, 10).
		Return(model.ListBooks{
			Page:    2,
			PerPage: 10,
			Total:   21,
			Items: []model.Book{
				{ID: "11", Title: "雪国", Author: "川端 康成", Available: true},
			},
		}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/books?page=2&perPage=10", http.NoBody)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t,
		`{"page":2,"perPage":10,"total":21,"items":[{"id":"11","title":"雪国","author":"川端 康成","isbn":"","published":"","available":true}]}`,
		strings.Trim(w.Body.String(), "\n"))
}

func TestHandler_SearchBooks(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(s *service_mocks.MockBookService)

	var tests = []struct {
		name         string
		query        string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name:  "ok",
			query: "カフカ",
			mockBehavior: func(s *service_mocks.MockBookService) {
				s.EXPECT().
					SearchBooks(context.Background(), "カフカ").
					Return([]model.Book{
						{ID: "3", Title: "海辺のカフカ", Author: "村上 春樹", Available: true},
					}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `[{"id":"3","title":"海辺のカフカ","author":"村上 春樹","isbn":"","published":"","available":true}]`,
			},
		},
		{
			name:  "err. nothing matched",
			query: "zzz",
			mockBehavior: func(s *service_mocks.MockBookService) {
				s.EXPECT().
					SearchBooks(context.Background(), "zzz").
					Return(nil, errs.NotFoundf("no books found for the given query"))
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"no books found for the given query"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newTestRouter(t)
			tt.mockBehavior(svc)

			r := httptest.NewRequest(http.MethodGet, "/api/v1/books/search?q="+tt.query, http.NoBody)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_CheckoutBook(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(s *service_mocks.MockBookService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: `{"borrowerName":"Alice","staffId":1}`,
			mockBehavior: func(s *service_mocks.MockBookService) {
				s.EXPECT().
					CheckoutBook(context.Background(), "3", model.CheckoutRequest{BorrowerName: "Alice", StaffID: 1}).
					Return(model.Book{
						ID:        "3",
						Title:     "こころ",
						Author:    "夏目 漱石",
						Available: false,
						CurrentLoan: &model.LoanInfo{
							Borrower:   "Alice",
							BorrowerID: 5,
							Staff:      "受付 太郎",
							Status:     "loaned",
						},
					}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"id":"3","title":"こころ","author":"夏目 漱石","isbn":"","published":"","available":false,"currentLoan":{"borrower":"Alice","borrowerId":5,"staff":"受付 太郎","status":"loaned"}}`,
			},
		},
		{
			name: "err. already loaned",
			body: `{"borrowerName":"Bob"}`,
			mockBehavior: func(s *service_mocks.MockBookService) {
				s.EXPECT().
					CheckoutBook(context.Background(), "3", model.CheckoutRequest{BorrowerName: "Bob"}).
					Return(model.Book{}, errs.AlreadyLoanedf("book 3 is already loaned out"))
			},
			response: response{
				expectedCode: http.StatusUnprocessableEntity,
				expectedBody: `{"message":"book 3 is already loaned out"}`,
			},
		},
		{
			name: "err. invalid staff",
			body: `{"borrowerName":"Alice","staffId":99999}`,
			mockBehavior: func(s *service_mocks.MockBookService) {
				s.EXPECT().
					CheckoutBook(context.Background(), "3", model.CheckoutRequest{BorrowerName: "Alice", StaffID: 99999}).
					Return(model.Book{}, errs.ValidationFailedf("staff %d not found", 99999))
			},
			response: response{
				expectedCode: http.StatusUnprocessableEntity,
				expectedBody: `{"message":"staff 99999 not found"}`,
			},
		},
		{
			name:         "err. negative staff id fails echo validation",
			body:         `{"borrowerName":"Alice","staffId":-1}`,
			mockBehavior: func(s *service_mocks.MockBookService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
			},
		},
		{
			name:         "err. malformed body",
			body:         `{"borrowerName":`,
			mockBehavior: func(s *service_mocks.MockBookService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newTestRouter(t)
			tt.mockBehavior(svc)

			r := httptest.NewRequest(http.MethodPost, "/api/v1/books/3/checkout", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
			// the validator's message must come through unwrapped
			require.NotContains(t, w.Body.String(), "code=400")
		})
	}
}

func TestHandler_ReturnBook(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(s *service_mocks.MockBookService)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			mockBehavior: func(s *service_mocks.MockBookService) {
				s.EXPECT().
					ReturnBook(context.Background(), "3").
					Return(model.Book{ID: "3", Title: "こころ", Author: "夏目 漱石", Available: true}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"id":"3","title":"こころ","author":"夏目 漱石","isbn":"","published":"","available":true}`,
			},
		},
		{
			name: "err. no active loan",
			mockBehavior: func(s *service_mocks.MockBookService) {
				s.EXPECT().
					ReturnBook(context.Background(), "3").
					Return(model.Book{}, errs.NotFoundf("no active loan for book %d", 3))
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"no active loan for book 3"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newTestRouter(t)
			tt.mockBehavior(svc)

			r := httptest.NewRequest(http.MethodPost, "/api/v1/books/3/return", http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}
