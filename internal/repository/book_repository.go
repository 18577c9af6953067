package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookstore/api/internal/models"
)

var (
	ErrBookNotFound     = errors.New("book not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrAuthorNotFound   = errors.New("author not found")
	ErrDuplicateISBN    = errors.New("isbn already registered")
)

type BookRepository struct {
	pool *pgxpool.Pool
}

func NewBookRepository(pool *pgxpool.Pool) *BookRepository {
	return &BookRepository{pool: pool}
}

type BookFilter struct {
	CategoryID string
	AuthorID   string
	Search     string
}

func (r *BookRepository) List(ctx context.Context, filter BookFilter, limit, offset int) ([]models.Book, int, error) {
	where := " WHERE 1=1"
	args := []any{}

	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		where += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if filter.AuthorID != "" {
		args = append(args, filter.AuthorID)
		where += fmt.Sprintf(" AND author_id = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND title ILIKE $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM books"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `
		SELECT id, title, description, isbn, price_cents, stock, category_id, author_id, cover_url, created_at, updated_at
		FROM books` + where + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		var book models.Book
		if err := scanBook(rows, &book); err != nil {
			return nil, 0, err
		}
		books = append(books, book)
	}
	return books, total, rows.Err()
}

func (r *BookRepository) Get(ctx context.Context, id string) (models.Book, error) {
	const query = `
		SELECT id, title, description, isbn, price_cents, stock, category_id, author_id, cover_url, created_at, updated_at
		FROM books WHERE id = $1
	`

	var book models.Book
	if err := scanBook(r.pool.QueryRow(ctx, query, id), &book); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Book{}, ErrBookNotFound
		}
		return models.Book{}, err
	}
	return book, nil
}

func (r *BookRepository) Create(ctx context.Context, book models.Book) error {
	const query = `
		INSERT INTO books (
			id, title, description, isbn, price_cents, stock, category_id, author_id, cover_url, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		book.ID,
		book.Title,
		book.Description,
		book.ISBN,
		book.PriceCents,
		book.Stock,
		book.CategoryID,
		book.AuthorID,
		book.CoverURL,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateISBN
	}
	return err
}

func (r *BookRepository) Update(ctx context.Context, book models.Book) error {
	const query = `
		UPDATE books
		SET title = $2, description = $3, isbn = $4, price_cents = $5, stock = $6,
		    category_id = $7, author_id = $8, updated_at = NOW()
		WHERE id = $1
	`

	cmd, err := r.pool.Exec(ctx, query,
		book.ID,
		book.Title,
		book.Description,
		book.ISBN,
		book.PriceCents,
		book.Stock,
		book.CategoryID,
		book.AuthorID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrBookNotFound
	}
	return nil
}

func (r *BookRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM books WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrBookNotFound
	}
	return nil
}

func (r *BookRepository) SetCoverURL(ctx context.Context, id string, coverURL string) error {
	const query = `UPDATE books SET cover_url = $2, updated_at = NOW() WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id, coverURL)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrBookNotFound
	}
	return nil
}

func (r *BookRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	const query = `SELECT id, name, slug, created_at FROM categories ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Slug, &category.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (r *BookRepository) CreateCategory(ctx context.Context, category models.Category) error {
	const query = `INSERT INTO categories (id, name, slug, created_at) VALUES ($1, $2, $3, NOW())`
	_, err := r.pool.Exec(ctx, query, category.ID, category.Name, category.Slug)
	return err
}

func (r *BookRepository) ListAuthors(ctx context.Context) ([]models.Author, error) {
	const query = `SELECT id, name, bio, created_at FROM authors ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var authors []models.Author
	for rows.Next() {
		var author models.Author
		if err := rows.Scan(&author.ID, &author.Name, &author.Bio, &author.CreatedAt); err != nil {
			return nil, err
		}
		authors = append(authors, author)
	}
	return authors, rows.Err()
}

func (r *BookRepository) CreateAuthor(ctx context.Context, author models.Author) error {
	const query = `INSERT INTO authors (id, name, bio, created_at) VALUES ($1, $2, $3, NOW())`
	_, err := r.pool.Exec(ctx, query, author.ID, author.Name, author.Bio)
	return err
}

func scanBook(row pgx.Row, book *models.Book) error {
	return row.Scan(
		&book.ID,
		&book.Title,
		&book.Description,
		&book.ISBN,
		&book.PriceCents,
		&book.Stock,
		&book.CategoryID,
		&book.AuthorID,
		&book.CoverURL,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
}
