package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobportal/internal/domain"
	"jobportal/internal/service"
)

// AdminHandler expone la moderacion de usuarios.
type AdminHandler struct {
	logger *zap.Logger
	admin  *service.AdminService
}

func NewAdminHandler(logger *zap.Logger, admin *service.AdminService) *AdminHandler {
	return &AdminHandler{logger: logger, admin: admin}
}

// ListUsers maneja GET /admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	opts, err := parseUserListQuery(c)
	if err != nil {
		respondInvalidRequest(c, h.logger, "list users", err)
		return
	}
	page, err := h.admin.ListUsers(c.Request.Context(), opts)
	if err != nil {
		respondError(c, h.logger, "list users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": page})
}

// GetUser maneja GET /admin/users/:userId.
func (h *AdminHandler) GetUser(c *gin.Context) {
	user, err := h.admin.GetUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, h.logger, "get user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// SetBlocked maneja PATCH /admin/users/block.
func (h *AdminHandler) SetBlocked(c *gin.Context) {
	var req struct {
		UserID    string `json:"user_id" binding:"required"`
		IsBlocked *bool  `json:"is_blocked" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, h.logger, "block user", err)
		return
	}
	user, err := h.admin.SetBlocked(c.Request.Context(), req.UserID, *req.IsBlocked)
	if err != nil {
		respondError(c, h.logger, "block user", err)
		return
	}
	message := "User unblocked"
	if user.IsBlocked {
		message = "User blocked"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "user": user})
}

type userListQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=0"`
	Limit     int    `form:"limit" binding:"omitempty,min=0"`
	Search    string `form:"search"`
	Role      string `form:"role"`
	IsBlocked *bool  `form:"is_blocked"`
}

func parseUserListQuery(c *gin.Context) (domain.UserListOptions, error) {
	var q userListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return domain.UserListOptions{}, err
	}
	opts := domain.UserListOptions{
		Page:      q.Page,
		Limit:     q.Limit,
		Search:    strings.TrimSpace(q.Search),
		IsBlocked: q.IsBlocked,
	}
	if q.Role != "" {
		role, err := domain.ParseRole(q.Role)
		if err != nil {
			return opts, err
		}
		opts.Role = &role
	}
	return opts.Normalize(), nil
}
