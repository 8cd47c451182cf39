package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vetlinks/backend/internal/dto"
	"vetlinks/backend/internal/service"
	"vetlinks/backend/pkg/response"
)

// CommentHandler 评论模块 HTTP 处理器
type CommentHandler struct {
	commentSvc service.CommentService
	logger     *zap.Logger
}

// NewCommentHandler 创建 CommentHandler
func NewCommentHandler(commentSvc service.CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{commentSvc: commentSvc, logger: logger}
}

// AddComment 发表评论，请求体可带 parent 作为回复
// POST /api/v1/cases/:id/comments
func (h *CommentHandler) AddComment(c *gin.Context) {
	h.create(c, false)
}

// ReplyComment 回复评论，父评论以路径参数为准
// POST /api/v1/cases/:id/comments/:parentId/reply
func (h *CommentHandler) ReplyComment(c *gin.Context) {
	h.create(c, true)
}

func (h *CommentHandler) create(c *gin.Context, fromPath bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	caseID, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	parentID := (*uint)(nil)
	if fromPath {
		pid, ok := MustGetIDParam(c, "parentId")
		if !ok {
			return
		}
		parentID = &pid
	}

	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if !fromPath {
		parentID = req.Parent
	}

	result, err := h.commentSvc.AddComment(c.Request.Context(), caseID, userID, req.CommentText, parentID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	response.Created(c, result)
}

// ListCaseComments 病例评论树
// GET /api/v1/cases/:id/comments
func (h *CommentHandler) ListCaseComments(c *gin.Context) {
	caseID, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	tree, err := h.commentSvc.ListCaseComments(c.Request.Context(), caseID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	response.OK(c, tree)
}

// ListReplies 评论的回复（每条携带各自的子回复）
// GET /api/v1/comments/:id/replies
func (h *CommentHandler) ListReplies(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	replies, err := h.commentSvc.ListReplies(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	response.OK(c, replies)
}
