package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vetlinks/backend/internal/dto"
	"vetlinks/backend/internal/service"
	"vetlinks/backend/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
	logger  *zap.Logger
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, logger: logger}
}

// SignUp 注册
// POST /api/v1/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req dto.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.Created(c, result)
}

// SignIn 登录
// POST /api/v1/signin
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req dto.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OK(c, result)
}

// Logout 登出，删除当前用户的 Token
// POST /api/v1/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), userID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OK(c, nil)
}
