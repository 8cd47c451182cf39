package repository

import (
	"context"

	"gorm.io/gorm"

	"vetlinks/backend/internal/model"
)

// CaseRepository 病例数据访问接口
type CaseRepository interface {
	Create(ctx context.Context, c *model.Case) error
	// GetByID 不限所有者，供只读查询使用
	GetByID(ctx context.Context, id uint) (*model.Case, error)
	// GetOwned 仅当病例属于 ownerID 时返回，否则 gorm.ErrRecordNotFound
	GetOwned(ctx context.Context, id, ownerID uint) (*model.Case, error)
	ListAll(ctx context.Context) ([]model.Case, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]model.Case, error)
	Update(ctx context.Context, c *model.Case) error
	Delete(ctx context.Context, id uint) error
	DeleteByOwner(ctx context.Context, ownerID uint) error
}

// caseRepo CaseRepository 的 GORM 实现
type caseRepo struct {
	db *gorm.DB
}

// NewCaseRepo 创建 CaseRepository 实例
func NewCaseRepo(db *gorm.DB) CaseRepository {
	return &caseRepo{db: db}
}

// withDetails 预加载所有者与化验报告
func (r *caseRepo) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Owner").
		Preload("LaboratoryReports", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		})
}

func (r *caseRepo) Create(ctx context.Context, c *model.Case) error {
	return r.db.WithContext(ctx).Omit("Owner", "LaboratoryReports").Create(c).Error
}

func (r *caseRepo) GetByID(ctx context.Context, id uint) (*model.Case, error) {
	var c model.Case
	err := r.withDetails(ctx).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *caseRepo) GetOwned(ctx context.Context, id, ownerID uint) (*model.Case, error) {
	var c model.Case
	err := r.withDetails(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *caseRepo) ListAll(ctx context.Context) ([]model.Case, error) {
	var cases []model.Case
	err := r.withDetails(ctx).
		Order("created_at DESC, id DESC").
		Find(&cases).Error
	return cases, err
}

func (r *caseRepo) ListByOwner(ctx context.Context, ownerID uint) ([]model.Case, error) {
	var cases []model.Case
	err := r.withDetails(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&cases).Error
	return cases, err
}

func (r *caseRepo) Update(ctx context.Context, c *model.Case) error {
	return r.db.WithContext(ctx).Omit("Owner", "LaboratoryReports").Save(c).Error
}

func (r *caseRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Case{}).Error
}

func (r *caseRepo) DeleteByOwner(ctx context.Context, ownerID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Delete(&model.Case{}).Error
}
