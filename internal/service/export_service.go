package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"vetlinks/backend/internal/model"
	"vetlinks/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成 Excel 文件失败")

const (
	caseSheet   = "Cases"
	reportSheet = "LaboratoryReports"
)

var caseHeaders = []string{
	"ID", "Category", "Case Title", "Signalment and History", "Clinical Examination",
	"Clinical Findings", "Differential Diagnoses", "Tentative Diagnoses", "Management",
	"Diagnostic Plan", "Advice to Clients", "Assistants", "Created At", "Updated At",
}

var reportHeaders = []string{"Case ID", "Case Title", "Report Title", "Report Details", "Created At"}

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写入 Response。
type ExportService interface {
	// ExportOwnedCases 将调用者的全部病例导出为 Excel，第二个 Sheet 为化验报告
	ExportOwnedCases(ctx context.Context, ownerID uint) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportOwnedCases 导出本人病例为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "Cases"：每行一个病例
//   - Sheet "LaboratoryReports"：每行一份化验报告，带所属病例 ID 与标题
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportOwnedCases(ctx context.Context, ownerID uint) (*bytes.Buffer, string, error) {
	cases, err := s.repo.Case.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("查询病例失败", zap.Uint("owner_id", ownerID), zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", caseSheet); err != nil {
		return nil, "", s.fail(err)
	}
	if _, err := f.NewSheet(reportSheet); err != nil {
		return nil, "", s.fail(err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, "", s.fail(err)
	}

	if err := writeHeader(f, caseSheet, caseHeaders, headerStyle); err != nil {
		return nil, "", s.fail(err)
	}
	if err := writeHeader(f, reportSheet, reportHeaders, headerStyle); err != nil {
		return nil, "", s.fail(err)
	}

	reportRow := 2
	for i := range cases {
		c := &cases[i]
		if err := writeRow(f, caseSheet, i+2, caseRow(c)); err != nil {
			return nil, "", s.fail(err)
		}
		for _, r := range c.LaboratoryReports {
			values := []any{c.ID, c.CaseTitle, r.ReportTitle, r.ReportDetails, r.CreatedAt.Format(time.RFC3339)}
			if err := writeRow(f, reportSheet, reportRow, values); err != nil {
				return nil, "", s.fail(err)
			}
			reportRow++
		}
	}

	widths := []struct {
		sheet, start, end string
		width             float64
	}{
		{caseSheet, "B", "C", 24},
		{caseSheet, "D", colName(len(caseHeaders) - 3), 36},
		{reportSheet, "B", "D", 30},
	}
	for _, w := range widths {
		if err := f.SetColWidth(w.sheet, w.start, w.end, w.width); err != nil {
			return nil, "", s.fail(err)
		}
	}
	f.SetActiveSheet(0)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", s.fail(err)
	}

	filename := fmt.Sprintf("cases_%d_%s.xlsx", ownerID, time.Now().Format("20060102"))
	return buf, filename, nil
}

func (s *exportService) fail(err error) error {
	s.logger.Error("写入 Excel 失败", zap.Error(err))
	return ErrExportGenerateFail
}

// ── 辅助函数 ──

func caseRow(c *model.Case) []any {
	return []any{
		c.ID,
		c.Category,
		c.CaseTitle,
		deref(c.SignalmentAndHistory),
		deref(c.ClinicalExamination),
		deref(c.ClinicalFindings),
		deref(c.DifferentialDiagnoses),
		deref(c.TentativeDiagnoses),
		deref(c.Management),
		deref(c.DiagnosticPlan),
		deref(c.AdviceToClients),
		deref(c.Assistants),
		c.CreatedAt.Format(time.RFC3339),
		c.UpdatedAt.Format(time.RFC3339),
	}
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := writeRow(f, sheet, 1, values); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", cell(colName(len(headers)-1), 1), style)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, start, &values)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
