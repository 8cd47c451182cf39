package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vetlinks/backend/internal/service"
	"vetlinks/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
	logger    *zap.Logger
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc, logger: logger}
}

// ExportMyCases 导出本人病例为 Excel
// GET /api/v1/cases/mine/export
func (h *ExportHandler) ExportMyCases(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportOwnedCases(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.Attachment(c, filename, xlsxContentType, buf.Bytes())
}
