package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vetlinks/backend/internal/dto"
	"vetlinks/backend/internal/service"
	"vetlinks/backend/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
	logger  *zap.Logger
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userSvc: userSvc, logger: logger}
}

// ListUsers 用户列表
// GET /api/v1/users?page=1&page_size=20
func (h *UserHandler) ListUsers(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondBindError(c, err)
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), &page)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OKPage(c, users, total, page.GetPage(), page.GetPageSize())
}

// GetUser 用户详情（含其病例）
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.userSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OK(c, user)
}

// UpdateUser 更新本人资料
// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.userSvc.Update(c.Request.Context(), id, callerID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OK(c, user)
}

// DeleteUser 注销本人账号
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.NoContent(c)
}
