package model

import "time"

// Comment 病例评论表，对应 comments
// ParentID 为 NULL 表示顶级评论；回复的 Depth = 父评论 Depth + 1
type Comment struct {
	ID          uint      `gorm:"primaryKey"                                 json:"id"`
	CaseID      uint      `gorm:"not null;index:idx_comments_case_parent,priority:1" json:"case_id"`
	UserID      uint      `gorm:"not null;index"                             json:"author_id"`
	ParentID    *uint     `gorm:"index:idx_comments_case_parent,priority:2"  json:"parent_id"`
	CommentText string    `gorm:"type:text;not null"                         json:"comment_text"`
	Depth       int       `gorm:"not null;default:0"                         json:"depth"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"         json:"created_at"`

	// 关联
	Author *User `gorm:"foreignKey:UserID" json:"author,omitempty"`
}

// TableName 指定表名
func (Comment) TableName() string { return "comments" }

// IsReply 是否为回复
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}
