package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeaders 安全 HTTP 头中间件
// mediaPrefix 下的静态图片允许缓存，其余 API 响应携带 Token 或个人资料，禁止缓存
func SecurityHeaders(mediaPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; frame-ancestors 'none'")

		if mediaPrefix == "" || !strings.HasPrefix(c.Request.URL.Path, mediaPrefix+"/") {
			h.Set("Cache-Control", "no-store")
		}

		c.Next()
	}
}
