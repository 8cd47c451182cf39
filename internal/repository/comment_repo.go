package repository

import (
	"context"

	"gorm.io/gorm"

	"vetlinks/backend/internal/model"
)

// CommentRepository 评论数据访问接口
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id uint) (*model.Comment, error)
	// ListByCase 返回病例下全部评论（扁平列表，按创建时间升序）
	ListByCase(ctx context.Context, caseID uint) ([]model.Comment, error)
	// ListChildIDs 返回 parentIDs 的直接子评论 ID
	ListChildIDs(ctx context.Context, parentIDs []uint) ([]uint, error)
	ListIDsByAuthor(ctx context.Context, userID uint) ([]uint, error)
	DeleteByIDs(ctx context.Context, ids []uint) error
	DeleteByCaseIDs(ctx context.Context, caseIDs []uint) error
}

// commentRepo CommentRepository 的 GORM 实现
type commentRepo struct {
	db *gorm.DB
}

// NewCommentRepo 创建 CommentRepository 实例
func NewCommentRepo(db *gorm.DB) CommentRepository {
	return &commentRepo{db: db}
}

func (r *commentRepo) Create(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Omit("Author").Create(comment).Error
}

func (r *commentRepo) GetByID(ctx context.Context, id uint) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("id = ?", id).
		First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepo) ListByCase(ctx context.Context, caseID uint) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("case_id = ?", caseID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepo) ListChildIDs(ctx context.Context, parentIDs []uint) ([]uint, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("parent_id IN ?", parentIDs).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *commentRepo) ListIDsByAuthor(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("user_id = ?", userID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *commentRepo) DeleteByIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&model.Comment{}).Error
}

func (r *commentRepo) DeleteByCaseIDs(ctx context.Context, caseIDs []uint) error {
	if len(caseIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("case_id IN ?", caseIDs).
		Delete(&model.Comment{}).Error
}
