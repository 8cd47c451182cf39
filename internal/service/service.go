package service

import (
	"go.uber.org/zap"

	"vetlinks/backend/config"
	"vetlinks/backend/internal/repository"
	"vetlinks/backend/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth    AuthService
	User    UserService
	Case    CaseService
	Comment CommentService
	Export  ExportService
}

// NewService 创建 Service 聚合
// cache 为 nil 时 Token 校验直接查询数据库
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	cache TokenCache,
	images ImageStore,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:    NewAuthService(cfg, repo, jwtMgr, cache, logger),
		User:    NewUserService(repo, cache, images, logger),
		Case:    NewCaseService(cfg, repo, images, logger),
		Comment: NewCommentService(cfg, repo, logger),
		Export:  NewExportService(repo, logger),
	}
}
