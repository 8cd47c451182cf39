package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	pkgerrors "vetlinks/backend/pkg/errors"
	"vetlinks/backend/pkg/jwt"
	"vetlinks/backend/pkg/response"
)

// 认证成功后写入 gin.Context 的键
const (
	ContextKeyUserID      = "user_id"
	ContextKeyAccountType = "account_type"
	ContextKeyTokenID     = "token_jti"
)

// TokenValidator 校验 Bearer Token 并返回其声明
type TokenValidator interface {
	ValidateToken(ctx context.Context, raw string) (*jwt.Claims, error)
}

// TokenAuth Bearer Token 认证中间件
// 从 Authorization: Bearer <token> 中提取 Token，校验签名并确认仍是该用户的当前 Token
func TokenAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, response.CodeUnauthenticated, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Unauthorized(c, response.CodeUnauthenticated, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			if errors.Is(err, pkgerrors.ErrUnauthenticated) {
				response.Unauthorized(c, response.CodeUnauthenticated, err.Error())
			} else {
				_ = c.Error(err)
				response.InternalError(c)
			}
			c.Abort()
			return
		}

		// 将用户信息注入上下文
		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyAccountType, claims.AccountType)
		c.Set(ContextKeyTokenID, claims.ID)

		c.Next()
	}
}
