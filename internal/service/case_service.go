package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"vetlinks/backend/config"
	"vetlinks/backend/internal/dto"
	"vetlinks/backend/internal/model"
	"vetlinks/backend/internal/repository"
	pkgerrors "vetlinks/backend/pkg/errors"
	"vetlinks/backend/pkg/storage"
)

// ── 病例模块业务错误 ──

var (
	ErrCaseNotFound    = pkgerrors.New(pkgerrors.ErrNotFound, "病例不存在")
	ErrInvalidCategory = pkgerrors.New(pkgerrors.ErrValidation, "病例分类不合法")
	ErrInvalidImage    = pkgerrors.New(pkgerrors.ErrValidation, "不支持的图片格式")
	ErrImageTooLarge   = pkgerrors.New(pkgerrors.ErrValidation, "图片超过大小限制")
)

// allowedImageExts 允许上传的图片扩展名
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ImageStore 图片文件存储
type ImageStore interface {
	Save(dir, ext string, r io.Reader) (string, error)
	Remove(name string) error
}

// CaseService 病例业务接口
// 读取不限所有者；修改类操作仅限所有者，非所有者一律返回 ErrCaseNotFound
type CaseService interface {
	Create(ctx context.Context, ownerID uint, req *dto.CaseRequest) (*dto.CaseResponse, error)
	ListAll(ctx context.Context) ([]dto.CaseResponse, error)
	ListOwned(ctx context.Context, ownerID uint) ([]dto.CaseResponse, error)
	GetByID(ctx context.Context, id uint) (*dto.CaseResponse, error)
	Update(ctx context.Context, id, ownerID uint, req *dto.CaseRequest) (*dto.CaseResponse, error)
	Delete(ctx context.Context, id, ownerID uint) error
	AddLaboratoryReport(ctx context.Context, caseID, ownerID uint, req *dto.LaboratoryReportRequest) (*dto.LaboratoryReportResponse, error)
	SetImage(ctx context.Context, caseID, ownerID uint, filename string, size int64, r io.Reader) (*dto.CaseResponse, error)
}

type caseService struct {
	cfg    *config.Config
	repo   *repository.Repository
	images ImageStore
	logger *zap.Logger
}

// NewCaseService 创建 CaseService 实例
func NewCaseService(cfg *config.Config, repo *repository.Repository, images ImageStore, logger *zap.Logger) CaseService {
	return &caseService{cfg: cfg, repo: repo, images: images, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *caseService) Create(ctx context.Context, ownerID uint, req *dto.CaseRequest) (*dto.CaseResponse, error) {
	if !model.IsValidCaseCategory(req.Category) {
		return nil, ErrInvalidCategory
	}

	c := &model.Case{UserID: ownerID}
	applyCase(c, req)

	var created *model.Case
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Case.Create(ctx, c); err != nil {
			return err
		}
		var err error
		created, err = tx.Case.GetByID(ctx, c.ID)
		return err
	})
	if err != nil {
		s.logger.Error("创建病例失败", zap.Uint("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("病例已创建", zap.Uint("case_id", created.ID), zap.Uint("owner_id", ownerID))
	return toCaseResponse(created), nil
}

// ────────────────────── 查询 ──────────────────────

func (s *caseService) ListAll(ctx context.Context) ([]dto.CaseResponse, error) {
	cases, err := s.repo.Case.ListAll(ctx)
	if err != nil {
		s.logger.Error("列出病例失败", zap.Error(err))
		return nil, err
	}
	return toCaseResponses(cases), nil
}

func (s *caseService) ListOwned(ctx context.Context, ownerID uint) ([]dto.CaseResponse, error) {
	cases, err := s.repo.Case.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("列出本人病例失败", zap.Uint("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	return toCaseResponses(cases), nil
}

func (s *caseService) GetByID(ctx context.Context, id uint) (*dto.CaseResponse, error) {
	c, err := s.repo.Case.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		s.logger.Error("查询病例失败", zap.Uint("case_id", id), zap.Error(err))
		return nil, err
	}
	return toCaseResponse(c), nil
}

// ────────────────────── Update ──────────────────────

func (s *caseService) Update(ctx context.Context, id, ownerID uint, req *dto.CaseRequest) (*dto.CaseResponse, error) {
	if !model.IsValidCaseCategory(req.Category) {
		return nil, ErrInvalidCategory
	}

	var updated *model.Case
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		c, err := s.getOwned(ctx, tx, id, ownerID)
		if err != nil {
			return err
		}

		// PUT 整体替换可编辑字段，所有者与图片不变
		applyCase(c, req)
		if err := tx.Case.Update(ctx, c); err != nil {
			return err
		}
		updated, err = tx.Case.GetByID(ctx, id)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrCaseNotFound) {
			s.logger.Error("更新病例失败", zap.Uint("case_id", id), zap.Error(err))
		}
		return nil, err
	}

	return toCaseResponse(updated), nil
}

// ────────────────────── Delete ──────────────────────

func (s *caseService) Delete(ctx context.Context, id, ownerID uint) error {
	var image *string
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		c, err := s.getOwned(ctx, tx, id, ownerID)
		if err != nil {
			return err
		}
		image = c.Image

		ids := []uint{id}
		if err := tx.Comment.DeleteByCaseIDs(ctx, ids); err != nil {
			return err
		}
		if err := tx.LaboratoryReport.DeleteByCaseIDs(ctx, ids); err != nil {
			return err
		}
		return tx.Case.Delete(ctx, id)
	})
	if err != nil {
		if !errors.Is(err, ErrCaseNotFound) {
			s.logger.Error("删除病例失败", zap.Uint("case_id", id), zap.Error(err))
		}
		return err
	}

	if image != nil {
		removeImages(s.images, []string{*image}, s.logger)
	}
	s.logger.Info("病例已删除", zap.Uint("case_id", id), zap.Uint("owner_id", ownerID))
	return nil
}

// ────────────────────── AddLaboratoryReport ──────────────────────

func (s *caseService) AddLaboratoryReport(ctx context.Context, caseID, ownerID uint, req *dto.LaboratoryReportRequest) (*dto.LaboratoryReportResponse, error) {
	report := &model.LaboratoryReport{
		CaseID:        caseID,
		ReportTitle:   req.ReportTitle,
		ReportDetails: req.ReportDetails,
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := s.getOwned(ctx, tx, caseID, ownerID); err != nil {
			return err
		}
		return tx.LaboratoryReport.Create(ctx, report)
	})
	if err != nil {
		if !errors.Is(err, ErrCaseNotFound) {
			s.logger.Error("添加化验报告失败", zap.Uint("case_id", caseID), zap.Error(err))
		}
		return nil, err
	}

	resp := toLaboratoryReportResponse(report)
	return &resp, nil
}

// ────────────────────── SetImage ──────────────────────

func (s *caseService) SetImage(ctx context.Context, caseID, ownerID uint, filename string, size int64, r io.Reader) (*dto.CaseResponse, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExts[ext] {
		return nil, ErrInvalidImage
	}
	if size > s.cfg.Storage.MaxImageBytes {
		return nil, ErrImageTooLarge
	}

	// 先确认所有权，避免为他人病例写入文件
	if _, err := s.getOwned(ctx, s.repo, caseID, ownerID); err != nil {
		if !errors.Is(err, ErrCaseNotFound) {
			s.logger.Error("查询病例失败", zap.Uint("case_id", caseID), zap.Error(err))
		}
		return nil, err
	}

	name, err := s.images.Save(storage.CaseImageDir, ext, io.LimitReader(r, s.cfg.Storage.MaxImageBytes))
	if err != nil {
		s.logger.Error("保存病例图片失败", zap.Uint("case_id", caseID), zap.Error(err))
		return nil, err
	}

	var (
		previous *string
		updated  *model.Case
	)
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		c, err := s.getOwned(ctx, tx, caseID, ownerID)
		if err != nil {
			return err
		}
		previous = c.Image
		c.Image = &name
		if err := tx.Case.Update(ctx, c); err != nil {
			return err
		}
		updated, err = tx.Case.GetByID(ctx, caseID)
		return err
	})
	if err != nil {
		removeImages(s.images, []string{name}, s.logger)
		if !errors.Is(err, ErrCaseNotFound) {
			s.logger.Error("更新病例图片失败", zap.Uint("case_id", caseID), zap.Error(err))
		}
		return nil, err
	}

	if previous != nil && *previous != name {
		removeImages(s.images, []string{*previous}, s.logger)
	}
	return toCaseResponse(updated), nil
}

// ── 辅助方法 ──

// getOwned 查询属于 ownerID 的病例，不存在与非本人统一为 ErrCaseNotFound
func (s *caseService) getOwned(ctx context.Context, repo *repository.Repository, id, ownerID uint) (*model.Case, error) {
	c, err := repo.Case.GetOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	return c, nil
}

// removeImages 提交后清理图片文件，失败只记录日志
func removeImages(store ImageStore, names []string, logger *zap.Logger) {
	if store == nil {
		return
	}
	for _, name := range names {
		if err := store.Remove(name); err != nil {
			logger.Warn("删除图片文件失败", zap.String("name", name), zap.Error(err))
		}
	}
}

// ── 转换函数 ──

func applyCase(c *model.Case, req *dto.CaseRequest) {
	c.Category = req.Category
	c.CaseTitle = req.CaseTitle
	c.SignalmentAndHistory = req.SignalmentAndHistory
	c.ClinicalExamination = req.ClinicalExamination
	c.ClinicalFindings = req.ClinicalFindings
	c.DifferentialDiagnoses = req.DifferentialDiagnoses
	c.TentativeDiagnoses = req.TentativeDiagnoses
	c.Management = req.Management
	c.DiagnosticPlan = req.DiagnosticPlan
	c.AdviceToClients = req.AdviceToClients
	c.Assistants = req.Assistants
}

func toCaseResponse(c *model.Case) *dto.CaseResponse {
	resp := &dto.CaseResponse{
		ID:                    c.ID,
		OwnerID:               c.UserID,
		Category:              c.Category,
		CaseTitle:             c.CaseTitle,
		Image:                 c.Image,
		SignalmentAndHistory:  c.SignalmentAndHistory,
		ClinicalExamination:   c.ClinicalExamination,
		ClinicalFindings:      c.ClinicalFindings,
		DifferentialDiagnoses: c.DifferentialDiagnoses,
		TentativeDiagnoses:    c.TentativeDiagnoses,
		Management:            c.Management,
		DiagnosticPlan:        c.DiagnosticPlan,
		AdviceToClients:       c.AdviceToClients,
		Assistants:            c.Assistants,
		LaboratoryReports:     make([]dto.LaboratoryReportResponse, 0, len(c.LaboratoryReports)),
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
	}
	if c.Owner != nil {
		resp.Owner = c.Owner.DisplayName()
	}
	for i := range c.LaboratoryReports {
		resp.LaboratoryReports = append(resp.LaboratoryReports, toLaboratoryReportResponse(&c.LaboratoryReports[i]))
	}
	return resp
}

func toCaseResponses(cases []model.Case) []dto.CaseResponse {
	result := make([]dto.CaseResponse, 0, len(cases))
	for i := range cases {
		result = append(result, *toCaseResponse(&cases[i]))
	}
	return result
}

func toLaboratoryReportResponse(r *model.LaboratoryReport) dto.LaboratoryReportResponse {
	return dto.LaboratoryReportResponse{
		ID:            r.ID,
		CaseID:        r.CaseID,
		ReportTitle:   r.ReportTitle,
		ReportDetails: r.ReportDetails,
		CreatedAt:     r.CreatedAt,
	}
}
