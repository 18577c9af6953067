package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookstore/api/internal/middleware"
	"bookstore/api/internal/models"
	"bookstore/api/internal/repository"
)

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	limit, offset := pageParams(c)

	users, err := h.users.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("list users failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	items := make([]userResponse, 0, len(users))
	for _, user := range users {
		items = append(items, toUserResponse(user))
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

type updateRoleRequest struct {
	Role models.UserRole `json:"role" binding:"required,oneof=USER ADMIN"`
}

func (h HandlerSet) AdminUpdateUserRole(c *gin.Context) {
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed"})
		return
	}

	userID := c.Param("id")
	if err := h.users.UpdateRole(c.Request.Context(), userID, req.Role); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
			return
		}
		h.log.Error().Err(err).Msg("update role failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type updateStatusRequest struct {
	Status models.UserStatus `json:"status" binding:"required,oneof=ACTIVE INACTIVE"`
}

// AdminUpdateUserStatus flips an account's status. Deactivation also revokes
// the user's refresh-token ledger rows so no new pairs can be minted; their
// outstanding access tokens die at the next auth-gate check anyway.
func (h HandlerSet) AdminUpdateUserStatus(c *gin.Context) {
	admin, _ := middleware.CurrentUser(c)

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed"})
		return
	}

	userID := c.Param("id")
	if userID == admin.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot_change_own_status"})
		return
	}

	if err := h.users.UpdateStatus(c.Request.Context(), userID, req.Status); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
			return
		}
		h.log.Error().Err(err).Msg("update status failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	if req.Status == models.UserStatusInactive {
		if err := h.authService.RevokeAll(c.Request.Context(), userID); err != nil {
			h.log.Error().Err(err).Str("user_id", userID).Msg("revoke tokens failed")
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
