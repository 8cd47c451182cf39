package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"vetlinks/backend/internal/api/middleware"
	"vetlinks/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果认证中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(middleware.ContextKeyUserID)
	if !exists {
		response.Unauthorized(c, CodeUnauthenticated, "未认证")
		return 0, false
	}
	id, ok := v.(uint)
	if !ok || id == 0 {
		response.Unauthorized(c, CodeUnauthenticated, "未认证")
		return 0, false
	}
	return id, true
}

// MustGetIDParam 解析路径中的正整数 ID，非法时写入 400 响应
func MustGetIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, CodeValidation, "无效的 "+name)
		return 0, false
	}
	return uint(id), true
}
