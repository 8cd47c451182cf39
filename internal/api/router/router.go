package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"vetlinks/backend/config"
	"vetlinks/backend/internal/api/handler"
	"vetlinks/backend/internal/api/middleware"
)

// Deps 路由依赖
type Deps struct {
	Handler   *handler.Handler
	Validator middleware.TokenValidator
	// Limiter 为 nil 时登录不限流
	Limiter middleware.RateLimiter
	// MediaRoot 上传图片根目录，为空时不挂载静态路由
	MediaRoot string
	DB        *gorm.DB
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, deps *Deps, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	h := deps.Handler
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders(cfg.Storage.PublicPrefix))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		if deps.DB != nil {
			sqlDB, err := deps.DB.DB()
			if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── 病例图片（只读） ──
	if deps.MediaRoot != "" && cfg.Storage.PublicPrefix != "" {
		r.Static(cfg.Storage.PublicPrefix, deps.MediaRoot)
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		v1.POST("/signup", h.Auth.SignUp)
		v1.POST("/signin",
			middleware.RateLimit(deps.Limiter, cfg.Auth.SignInRateLimit, cfg.Auth.SignInRateWindow, logger),
			h.Auth.SignIn,
		)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.TokenAuth(deps.Validator))
		{
			authorized.POST("/logout", h.Auth.Logout)

			// 用户模块（修改、删除仅限本人，Service 层鉴权）
			users := authorized.Group("/users")
			{
				users.GET("", h.User.ListUsers)
				users.GET("/:id", h.User.GetUser)
				users.PUT("/:id", h.User.UpdateUser)
				users.DELETE("/:id", h.User.DeleteUser)
			}

			// 病例模块（修改类操作仅限所有者，Service 层鉴权）
			cases := authorized.Group("/cases")
			{
				cases.GET("", h.Case.ListCases)
				cases.POST("", h.Case.CreateCase)
				cases.GET("/mine", h.Case.ListMyCases)
				cases.GET("/mine/export", h.Export.ExportMyCases)
				cases.GET("/:id", h.Case.GetCase)
				cases.PUT("/:id", h.Case.UpdateCase)
				cases.DELETE("/:id", h.Case.DeleteCase)
				cases.POST("/:id/image", h.Case.UploadImage)
				cases.POST("/:id/laboratory-report", h.Case.AddLaboratoryReport)

				// 评论模块
				cases.GET("/:id/comments", h.Comment.ListCaseComments)
				cases.POST("/:id/comments", h.Comment.AddComment)
				cases.POST("/:id/comments/:parentId/reply", h.Comment.ReplyComment)
			}

			authorized.GET("/comments/:id/replies", h.Comment.ListReplies)
		}
	}

	return r, nil
}
