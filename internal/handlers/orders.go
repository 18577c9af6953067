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

type orderItemRequest struct {
	BookID   string `json:"bookId" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

type createOrderRequest struct {
	Items []orderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type orderItemResponse struct {
	BookID         string `json:"bookId"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

type orderResponse struct {
	ID         string              `json:"id"`
	UserID     string              `json:"userId"`
	Status     string              `json:"status"`
	TotalCents int64               `json:"totalCents"`
	Items      []orderItemResponse `json:"items,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
}

func toOrderResponse(order models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			BookID:         item.BookID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	return orderResponse{
		ID:         order.ID,
		UserID:     order.UserID,
		Status:     string(order.Status),
		TotalCents: order.TotalCents,
		Items:      items,
		CreatedAt:  order.CreatedAt,
	}
}

func (h HandlerSet) CreateOrder(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed"})
		return
	}

	order := models.Order{
		ID:     ids.New(),
		UserID: user.ID,
		Status: models.OrderStatusPending,
	}

	for _, item := range req.Items {
		book, err := h.catalog.GetBook(c.Request.Context(), item.BookID)
		if err != nil {
			if errors.Is(err, repository.ErrBookNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_book"})
				return
			}
			h.log.Error().Err(err).Msg("get book failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
			return
		}

		order.Items = append(order.Items, models.OrderItem{
			OrderID:        order.ID,
			BookID:         book.ID,
			Quantity:       item.Quantity,
			UnitPriceCents: book.PriceCents,
		})
		order.TotalCents += book.PriceCents * int64(item.Quantity)
	}

	if err := h.orders.Create(c.Request.Context(), order); err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("create order failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order": toOrderResponse(order)})
}

func (h HandlerSet) ListOrders(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, offset := pageParams(c)
	orders, err := h.orders.ListByUser(c.Request.Context(), user.ID, limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("list orders failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	items := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		items = append(items, toOrderResponse(order))
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h HandlerSet) GetOrder(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	order, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}
		h.log.Error().Err(err).Msg("get order failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	if order.UserID != user.ID && user.Role != models.UserRoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": toOrderResponse(order)})
}

func (h HandlerSet) AdminListOrders(c *gin.Context) {
	limit, offset := pageParams(c)

	orders, err := h.orders.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("admin list orders failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	items := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		items = append(items, toOrderResponse(order))
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

type updateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required,oneof=PENDING PAID SHIPPED CANCELLED"`
}

func (h HandlerSet) AdminUpdateOrderStatus(c *gin.Context) {
	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed"})
		return
	}

	order, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}
		h.log.Error().Err(err).Msg("get order failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	if !order.Status.CanTransition(req.Status) {
		c.JSON(http.StatusConflict, gin.H{"error": "invalid_transition"})
		return
	}

	if err := h.orders.UpdateStatus(c.Request.Context(), order.ID, req.Status); err != nil {
		h.log.Error().Err(err).Msg("update order status failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	order.Status = req.Status
	c.JSON(http.StatusOK, gin.H{"order": toOrderResponse(order)})
}
