package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"bookstore/api/internal/models"
	"bookstore/api/internal/repository"
)

// CatalogService fronts the book repository with a short-TTL redis cache on
// single-book reads. List queries go straight to Postgres.
type CatalogService struct {
	books   *repository.BookRepository
	cache   *redis.Client
	bookTTL time.Duration
	log     zerolog.Logger
}

func NewCatalogService(books *repository.BookRepository, cache *redis.Client, bookTTL time.Duration, log zerolog.Logger) *CatalogService {
	if bookTTL <= 0 {
		bookTTL = 5 * time.Minute
	}
	return &CatalogService{
		books:   books,
		cache:   cache,
		bookTTL: bookTTL,
		log:     log,
	}
}

func bookCacheKey(id string) string {
	return fmt.Sprintf("book:%s", id)
}

func (s *CatalogService) GetBook(ctx context.Context, id string) (models.Book, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, bookCacheKey(id)).Bytes(); err == nil {
			var book models.Book
			if err := json.Unmarshal(raw, &book); err == nil {
				return book, nil
			}
		}
	}

	book, err := s.books.Get(ctx, id)
	if err != nil {
		return models.Book{}, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(book); err == nil {
			if err := s.cache.Set(ctx, bookCacheKey(id), raw, s.bookTTL).Err(); err != nil {
				s.log.Debug().Err(err).Str("book_id", id).Msg("cache set failed")
			}
		}
	}
	return book, nil
}

func (s *CatalogService) ListBooks(ctx context.Context, filter repository.BookFilter, limit, offset int) ([]models.Book, int, error) {
	return s.books.List(ctx, filter, limit, offset)
}

func (s *CatalogService) CreateBook(ctx context.Context, book models.Book) error {
	return s.books.Create(ctx, book)
}

func (s *CatalogService) UpdateBook(ctx context.Context, book models.Book) error {
	if err := s.books.Update(ctx, book); err != nil {
		return err
	}
	s.invalidate(ctx, book.ID)
	return nil
}

func (s *CatalogService) DeleteBook(ctx context.Context, id string) error {
	if err := s.books.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *CatalogService) SetCoverURL(ctx context.Context, id string, coverURL string) error {
	if err := s.books.SetCoverURL(ctx, id, coverURL); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.books.ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, category models.Category) error {
	return s.books.CreateCategory(ctx, category)
}

func (s *CatalogService) ListAuthors(ctx context.Context) ([]models.Author, error) {
	return s.books.ListAuthors(ctx)
}

func (s *CatalogService) CreateAuthor(ctx context.Context, author models.Author) error {
	return s.books.CreateAuthor(ctx, author)
}

func (s *CatalogService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, bookCacheKey(id)).Err(); err != nil {
		s.log.Debug().Err(err).Str("book_id", id).Msg("cache invalidate failed")
	}
}
