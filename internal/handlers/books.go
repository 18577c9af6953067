package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"

	"bookstore/api/internal/ids"
	"bookstore/api/internal/media/sniffer"
	"bookstore/api/internal/models"
	"bookstore/api/internal/repository"
)

const maxCoverBytes = 5 << 20

type bookResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ISBN        string    `json:"isbn"`
	PriceCents  int64     `json:"priceCents"`
	Stock       int       `json:"stock"`
	CategoryID  string    `json:"categoryId"`
	AuthorID    string    `json:"authorId"`
	CoverURL    *string   `json:"coverUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toBookResponse(book models.Book) bookResponse {
	return bookResponse{
		ID:          book.ID,
		Title:       book.Title,
		Description: book.Description,
		ISBN:        book.ISBN,
		PriceCents:  book.PriceCents,
		Stock:       book.Stock,
		CategoryID:  book.CategoryID,
		AuthorID:    book.AuthorID,
		CoverURL:    book.CoverURL,
		CreatedAt:   book.CreatedAt,
	}
}

func (h HandlerSet) ListBooks(c *gin.Context) {
	limit, offset := pageParams(c)
	filter := repository.BookFilter{
		CategoryID: c.Query("category"),
		AuthorID:   c.Query("author"),
		Search:     c.Query("q"),
	}

	books, total, err := h.catalog.ListBooks(c.Request.Context(), filter, limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("list books failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	items := make([]bookResponse, 0, len(books))
	for _, book := range books {
		items = append(items, toBookResponse(book))
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
	})
}

func (h HandlerSet) GetBook(c *gin.Context) {
	book, err := h.catalog.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book_not_found"})
			return
		}
		h.log.Error().Err(err).Msg("get book failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"book": toBookResponse(book)})
}

type bookRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	ISBN        string `json:"isbn" binding:"required"`
	PriceCents  int64  `json:"priceCents" binding:"required,gt=0"`
	Stock       int    `json:"stock" binding:"gte=0"`
	CategoryID  string `json:"categoryId" binding:"required"`
	AuthorID    string `json:"authorId" binding:"required"`
}

func (h HandlerSet) CreateBook(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed"})
		return
	}

	book := models.Book{
		ID:          ids.New(),
		Title:       req.Title,
		Description: req.Description,
		ISBN:        req.ISBN,
		PriceCents:  req.PriceCents,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		AuthorID:    req.AuthorID,
	}

	if err := h.catalog.CreateBook(c.Request.Context(), book); err != nil {
		if errors.Is(err, repository.ErrDuplicateISBN) {
			c.JSON(http.StatusConflict, gin.H{"error": "isbn_taken"})
			return
		}
		h.log.Error().Err(err).Msg("create book failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"book": toBookResponse(book)})
}

func (h HandlerSet) UpdateBook(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed"})
		return
	}

	book := models.Book{
		ID:          c.Param("id"),
		Title:       req.Title,
		Description: req.Description,
		ISBN:        req.ISBN,
		PriceCents:  req.PriceCents,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		AuthorID:    req.AuthorID,
	}

	if err := h.catalog.UpdateBook(c.Request.Context(), book); err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book_not_found"})
			return
		}
		h.log.Error().Err(err).Msg("update book failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"book": toBookResponse(book)})
}

func (h HandlerSet) DeleteBook(c *gin.Context) {
	if err := h.catalog.DeleteBook(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book_not_found"})
			return
		}
		h.log.Error().Err(err).Msg("delete book failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) UploadCover(c *gin.Context) {
	bookID := c.Param("id")

	if _, err := h.catalog.GetBook(c.Request.Context(), bookID); err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book_not_found"})
			return
		}
		h.log.Error().Err(err).Msg("get book failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_required"})
		return
	}
	defer file.Close()

	if header.Size > maxCoverBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_too_large"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxCoverBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}
	if len(data) > maxCoverBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_too_large"})
		return
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	result, err := sniffer.DetectHead(head)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_format"})
		return
	}

	declared := sniffer.MimeTypeFromHTTP(http.Header(header.Header))
	if declared != "" && declared != result.MIME {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content_type_mismatch"})
		return
	}

	objectKey := fmt.Sprintf("covers/%s.%s", bookID, result.Type)
	_, err = h.store.Client().PutObject(
		c.Request.Context(),
		h.store.Bucket(),
		objectKey,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: result.MIME},
	)
	if err != nil {
		h.log.Error().Err(err).Str("book_id", bookID).Msg("cover upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	coverURL := h.store.PublicURL(objectKey)
	if err := h.catalog.SetCoverURL(c.Request.Context(), bookID, coverURL); err != nil {
		h.log.Error().Err(err).Str("book_id", bookID).Msg("set cover url failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"coverUrl": coverURL})
}

func (h HandlerSet) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list categories failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": categories})
}

type categoryRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

func (h HandlerSet) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed"})
		return
	}

	category := models.Category{
		ID:   ids.New(),
		Name: req.Name,
		Slug: req.Slug,
	}

	if err := h.catalog.CreateCategory(c.Request.Context(), category); err != nil {
		h.log.Error().Err(err).Msg("create category failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

func (h HandlerSet) ListAuthors(c *gin.Context) {
	authors, err := h.catalog.ListAuthors(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list authors failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": authors})
}

type authorRequest struct {
	Name string `json:"name" binding:"required"`
	Bio  string `json:"bio"`
}

func (h HandlerSet) CreateAuthor(c *gin.Context) {
	var req authorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed"})
		return
	}

	author := models.Author{
		ID:   ids.New(),
		Name: req.Name,
		Bio:  req.Bio,
	}

	if err := h.catalog.CreateAuthor(c.Request.Context(), author); err != nil {
		h.log.Error().Err(err).Msg("create author failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"author": author})
}
