package dto

import "time"

// ── 评论模块 DTO ──

// CreateCommentRequest 发表评论/回复请求
// Parent 仅在 POST /cases/:id/comments 时生效；回复路由以路径参数为准
type CreateCommentRequest struct {
	CommentText string `json:"comment_text" binding:"required,max=10000"`
	Parent      *uint  `json:"parent"       binding:"omitempty,min=1"`
}

// CommentResponse 评论响应，Replies 递归包含全部子孙回复
type CommentResponse struct {
	ID          uint               `json:"id"`
	CaseID      uint               `json:"case"`
	AuthorID    uint               `json:"app_user"`
	Author      string             `json:"author,omitempty"`
	CommentText string             `json:"comment_text"`
	ParentID    *uint              `json:"parent"`
	CreatedAt   time.Time          `json:"created_at"`
	Replies     []*CommentResponse `json:"replies"`
}
