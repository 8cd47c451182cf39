package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vetlinks/backend/pkg/response"
)

// BodyLimit 全局请求体大小限制中间件
// Content-Length 已超限时直接返回 413；未声明长度的请求在读取超限时得到 *http.MaxBytesError，由 Handler 映射为 413
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBytes {
			response.PayloadTooLarge(c, "请求体过大")
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
