package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"vetlinks/backend/config"
	"vetlinks/backend/internal/api/handler"
	"vetlinks/backend/internal/api/middleware"
	"vetlinks/backend/internal/api/router"
	"vetlinks/backend/internal/repository"
	"vetlinks/backend/internal/service"
	"vetlinks/backend/pkg/database"
	"vetlinks/backend/pkg/jwt"
	applogger "vetlinks/backend/pkg/logger"
	"vetlinks/backend/pkg/redis"
	"vetlinks/backend/pkg/storage"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "vetlinks",
		Short:        "VetLinks 临床病例后端",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认 ./config/config.yaml）")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(migrateCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(*configPath)
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "数据库迁移",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "执行全部未应用的迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(*configPath, func(db *gorm.DB, logger *zap.Logger) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return database.RunMigrations(sqlDB, logger)
			})
		},
	})

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "回滚迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(*configPath, func(db *gorm.DB, logger *zap.Logger) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return database.RollbackMigrations(sqlDB, steps, logger)
			})
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "回滚步数")
	cmd.AddCommand(downCmd)

	return cmd
}

// bootstrap 加载配置并初始化日志
func bootstrap(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return cfg, logger, nil
}

func withDB(configPath string, fn func(db *gorm.DB, logger *zap.Logger) error) error {
	cfg, logger, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}
	defer closeDB(db)

	return fn(db, logger)
}

func runServer(configPath string) error {
	// 1. 加载配置与日志
	cfg, logger, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 2. 连接数据库并执行迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}
	defer closeDB(db)
	logger.Info("数据库连接成功")

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	// 3. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var (
		tokenCache service.TokenCache
		limiter    middleware.RateLimiter
	)
	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，Token 缓存与登录限流将不可用", zap.Error(err))
		} else {
			defer rdb.Close()
			tokenCache = rdb
			limiter = rdb
		}
	}

	// 4. 图片存储
	images, err := storage.NewLocalStore(&cfg.Storage, logger)
	if err != nil {
		return err
	}

	// 5. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, tokenCache, images, logger)
	h := handler.NewHandler(svc, logger)

	// 6. 初始化路由
	engine, err := router.Setup(cfg, &router.Deps{
		Handler:   h,
		Validator: svc.Auth,
		Limiter:   limiter,
		MediaRoot: images.Root(),
		DB:        db,
	}, logger)
	if err != nil {
		return fmt.Errorf("初始化路由失败: %w", err)
	}

	// 7. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 8. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("HTTP 服务器异常: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	logger.Info("服务器已关闭")
	return nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, _ := db.DB(); sqlDB != nil {
		sqlDB.Close()
	}
}
