package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vetlinks/backend/internal/model"
)

// TokenRepository 用户 Token 数据访问接口
type TokenRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*model.AuthToken, error)
	// CreateIfAbsent 用户尚无 Token 时写入，返回最终存储的记录（并发时以先写入者为准）
	CreateIfAbsent(ctx context.Context, token *model.AuthToken) (*model.AuthToken, error)
	Upsert(ctx context.Context, token *model.AuthToken) error
	DeleteByUserID(ctx context.Context, userID uint) error
}

type tokenRepo struct {
	db *gorm.DB
}

// NewTokenRepo 创建 TokenRepository 实例
func NewTokenRepo(db *gorm.DB) TokenRepository {
	return &tokenRepo{db: db}
}

func (r *tokenRepo) GetByUserID(ctx context.Context, userID uint) (*model.AuthToken, error) {
	var token model.AuthToken
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepo) CreateIfAbsent(ctx context.Context, token *model.AuthToken) (*model.AuthToken, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(token).Error
	if err != nil {
		return nil, err
	}
	return r.GetByUserID(ctx, token.UserID)
}

// Upsert 写入或替换用户的 Token
func (r *tokenRepo) Upsert(ctx context.Context, token *model.AuthToken) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"token", "token_id", "created_at"}),
		}).
		Create(token).Error
}

func (r *tokenRepo) DeleteByUserID(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.AuthToken{}).Error
}
