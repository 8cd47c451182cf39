package repository

import (
	"context"

	"gorm.io/gorm"

	"vetlinks/backend/internal/model"
)

// LaboratoryReportRepository 化验报告数据访问接口
type LaboratoryReportRepository interface {
	Create(ctx context.Context, report *model.LaboratoryReport) error
	ListByCase(ctx context.Context, caseID uint) ([]model.LaboratoryReport, error)
	DeleteByCaseIDs(ctx context.Context, caseIDs []uint) error
}

type laboratoryReportRepo struct {
	db *gorm.DB
}

// NewLaboratoryReportRepo 创建 LaboratoryReportRepository 实例
func NewLaboratoryReportRepo(db *gorm.DB) LaboratoryReportRepository {
	return &laboratoryReportRepo{db: db}
}

func (r *laboratoryReportRepo) Create(ctx context.Context, report *model.LaboratoryReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *laboratoryReportRepo) ListByCase(ctx context.Context, caseID uint) ([]model.LaboratoryReport, error) {
	var reports []model.LaboratoryReport
	err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at ASC, id ASC").
		Find(&reports).Error
	return reports, err
}

func (r *laboratoryReportRepo) DeleteByCaseIDs(ctx context.Context, caseIDs []uint) error {
	if len(caseIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("case_id IN ?", caseIDs).
		Delete(&model.LaboratoryReport{}).Error
}
