package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bookstore/api/internal/middleware"
	"bookstore/api/internal/models"
	"bookstore/api/internal/repository"
)

type fakeCatalog struct {
	BookCatalog
	books map[string]models.Book
}

func (f *fakeCatalog) GetBook(_ context.Context, id string) (models.Book, error) {
	book, ok := f.books[id]
	if !ok {
		return models.Book{}, repository.ErrBookNotFound
	}
	return book, nil
}

type fakeReviewStore struct {
	mu   sync.Mutex
	rows map[string]models.Review
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{rows: make(map[string]models.Review)}
}

func (s *fakeReviewStore) Create(_ context.Context, review models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.BookID == review.BookID && row.UserID == review.UserID {
			return repository.ErrDuplicateReview
		}
	}
	s.rows[review.ID] = review
	return nil
}

func (s *fakeReviewStore) Get(_ context.Context, id string) (models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	review, ok := s.rows[id]
	if !ok {
		return models.Review{}, repository.ErrReviewNotFound
	}
	return review, nil
}

func (s *fakeReviewStore) ListByBook(_ context.Context, bookID string, _, _ int) ([]models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var reviews []models.Review
	for _, row := range s.rows {
		if row.BookID == bookID {
			reviews = append(reviews, row)
		}
	}
	return reviews, nil
}

func (s *fakeReviewStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return repository.ErrReviewNotFound
	}
	delete(s.rows, id)
	return nil
}

func newReviewTestRouter(reviews ReviewStore, catalog BookCatalog, user models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := HandlerSet{
		log:     zerolog.Nop(),
		reviews: reviews,
		catalog: catalog,
	}

	r := gin.New()
	attachUser := func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, user)
	}
	r.POST("/books/:id/reviews", attachUser, h.CreateReview)
	r.DELETE("/reviews/:id", attachUser, h.DeleteReview)
	return r
}

func postReview(r *gin.Engine, bookID, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/books/"+bookID+"/reviews", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCreateReviewRejectsSecondReviewForSameBook(t *testing.T) {
	user := models.User{ID: "u1", Role: models.UserRoleUser, Status: models.UserStatusActive}
	catalog := &fakeCatalog{books: map[string]models.Book{"b1": {ID: "b1", Title: "Dune"}}}
	r := newReviewTestRouter(newFakeReviewStore(), catalog, user)

	if w := postReview(r, "b1", `{"rating": 5, "comment": "great"}`); w.Code != http.StatusCreated {
		t.Fatalf("first review: expected 201, got %d (%s)", w.Code, w.Body.String())
	}

	w := postReview(r, "b1", `{"rating": 2, "comment": "changed my mind"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("second review: expected 409, got %d (%s)", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "review_exists") {
		t.Fatalf("expected review_exists error code, got %s", w.Body.String())
	}
}

func TestCreateReviewUnknownBook(t *testing.T) {
	user := models.User{ID: "u1", Role: models.UserRoleUser, Status: models.UserStatusActive}
	catalog := &fakeCatalog{books: map[string]models.Book{}}
	r := newReviewTestRouter(newFakeReviewStore(), catalog, user)

	w := postReview(r, "ghost", `{"rating": 3, "comment": ""}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (%s)", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "book_not_found") {
		t.Fatalf("expected book_not_found error code, got %s", w.Body.String())
	}
}

func TestDeleteReviewForbiddenForOtherUser(t *testing.T) {
	store := newFakeReviewStore()
	store.rows["r1"] = models.Review{ID: "r1", BookID: "b1", UserID: "owner"}

	user := models.User{ID: "intruder", Role: models.UserRoleUser, Status: models.UserStatusActive}
	r := newReviewTestRouter(store, &fakeCatalog{books: map[string]models.Book{}}, user)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/reviews/r1", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestDeleteReviewAllowsAdmin(t *testing.T) {
	store := newFakeReviewStore()
	store.rows["r1"] = models.Review{ID: "r1", BookID: "b1", UserID: "owner"}

	admin := models.User{ID: "a1", Role: models.UserRoleAdmin, Status: models.UserStatusActive}
	r := newReviewTestRouter(store, &fakeCatalog{books: map[string]models.Book{}}, admin)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/reviews/r1", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d (%s)", w.Code, w.Body.String())
	}
}
