package model

import "time"

// AuthToken 用户当前有效的 Bearer Token，对应 auth_tokens
// 每个用户至多一条，登录时复用而非轮换
type AuthToken struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false"     json:"user_id"`
	Token     string    `gorm:"type:text;not null"                 json:"-"`
	TokenID   string    `gorm:"type:varchar(64);not null"          json:"-"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (AuthToken) TableName() string { return "auth_tokens" }
