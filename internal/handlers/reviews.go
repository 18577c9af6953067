package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookstore/api/internal/ids"
	"bookstore/api/internal/middleware"
	"bookstore/api/internal/models"
	"bookstore/api/internal/repository"
)

type reviewResponse struct {
	ID        string    `json:"id"`
	BookID    string    `json:"bookId"`
	UserID    string    `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

func toReviewResponse(review models.Review) reviewResponse {
	return reviewResponse{
		ID:        review.ID,
		BookID:    review.BookID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
	}
}

type createReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

func (h HandlerSet) CreateReview(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed"})
		return
	}

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

	review := models.Review{
		ID:      ids.New(),
		BookID:  bookID,
		UserID:  user.ID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}

	if err := h.reviews.Create(c.Request.Context(), review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			c.JSON(http.StatusConflict, gin.H{"error": "review_exists"})
			return
		}
		h.log.Error().Err(err).Msg("create review failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"review": toReviewResponse(review)})
}

func (h HandlerSet) ListBookReviews(c *gin.Context) {
	limit, offset := pageParams(c)

	reviews, err := h.reviews.ListByBook(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("list reviews failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	items := make([]reviewResponse, 0, len(reviews))
	for _, review := range reviews {
		items = append(items, toReviewResponse(review))
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// DeleteReview allows the review's author or an admin to remove it.
func (h HandlerSet) DeleteReview(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	review, err := h.reviews.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "review_not_found"})
			return
		}
		h.log.Error().Err(err).Msg("get review failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	if review.UserID != user.ID && user.Role != models.UserRoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	if err := h.reviews.Delete(c.Request.Context(), review.ID); err != nil && !errors.Is(err, repository.ErrReviewNotFound) {
		h.log.Error().Err(err).Msg("delete review failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.Status(http.StatusNoContent)
}
