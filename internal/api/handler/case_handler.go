package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vetlinks/backend/internal/dto"
	"vetlinks/backend/internal/service"
	"vetlinks/backend/pkg/response"
)

// CaseHandler 病例模块 HTTP 处理器
type CaseHandler struct {
	caseSvc service.CaseService
	logger  *zap.Logger
}

// NewCaseHandler 创建 CaseHandler
func NewCaseHandler(caseSvc service.CaseService, logger *zap.Logger) *CaseHandler {
	return &CaseHandler{caseSvc: caseSvc, logger: logger}
}

// ListCases 全部病例
// GET /api/v1/cases
func (h *CaseHandler) ListCases(c *gin.Context) {
	cases, err := h.caseSvc.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	response.OK(c, cases)
}

// ListMyCases 本人病例
// GET /api/v1/cases/mine
func (h *CaseHandler) ListMyCases(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	cases, err := h.caseSvc.ListOwned(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	response.OK(c, cases)
}

// CreateCase 创建病例，所有者为当前用户
// POST /api/v1/cases
func (h *CaseHandler) CreateCase(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.caseSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	response.Created(c, result)
}

// GetCase 病例详情
// GET /api/v1/cases/:id
func (h *CaseHandler) GetCase(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.caseSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	response.OK(c, result)
}

// UpdateCase 整体更新本人病例
// PUT /api/v1/cases/:id
func (h *CaseHandler) UpdateCase(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.CaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.caseSvc.Update(c.Request.Context(), id, userID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	response.OK(c, result)
}

// DeleteCase 删除本人病例
// DELETE /api/v1/cases/:id
func (h *CaseHandler) DeleteCase(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.caseSvc.Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	response.NoContent(c)
}

// AddLaboratoryReport 为本人病例添加化验报告
// POST /api/v1/cases/:id/laboratory-report
func (h *CaseHandler) AddLaboratoryReport(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.LaboratoryReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.caseSvc.AddLaboratoryReport(c.Request.Context(), id, userID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	response.Created(c, result)
}

// UploadImage 上传病例图片（multipart 字段 image）
// POST /api/v1/cases/:id/image
func (h *CaseHandler) UploadImage(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.PayloadTooLarge(c, "请求体过大")
			return
		}
		response.ValidationFailed(c, map[string]string{"image": "请上传图片文件"})
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer src.Close()

	result, err := h.caseSvc.SetImage(c.Request.Context(), id, userID, file.Filename, file.Size, src)
	if err != nil {
		if errors.Is(err, service.ErrImageTooLarge) {
			response.PayloadTooLarge(c, err.Error())
			return
		}
		respondError(c, h.logger, err)
		return
	}
	response.OK(c, result)
}
