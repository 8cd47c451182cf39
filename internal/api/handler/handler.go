package handler

import (
	"go.uber.org/zap"

	"vetlinks/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth    *AuthHandler
	User    *UserHandler
	Case    *CaseHandler
	Comment *CommentHandler
	Export  *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(svc.Auth, logger),
		User:    NewUserHandler(svc.User, logger),
		Case:    NewCaseHandler(svc.Case, logger),
		Comment: NewCommentHandler(svc.Comment, logger),
		Export:  NewExportHandler(svc.Export, logger),
	}
}
