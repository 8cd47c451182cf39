package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User             UserRepository
	Token            TokenRepository
	Case             CaseRepository
	LaboratoryReport LaboratoryReportRepository
	Comment          CommentRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:               db,
		User:             NewUserRepo(db),
		Token:            NewTokenRepo(db),
		Case:             NewCaseRepo(db),
		LaboratoryReport: NewLaboratoryReportRepo(db),
		Comment:          NewCommentRepo(db),
	}
}

// Transaction 在单个数据库事务中执行 fn
// fn 返回错误或 panic 时回滚，否则提交。txRepo 的所有 Repository 共享同一事务。
// 未绑定数据库（单元测试中手工组装的聚合）时直接以自身执行 fn。
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
