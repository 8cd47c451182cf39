package response

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

// 业务码：0 成功，1xxxx 客户端错误，5xxxx 服务端错误
const (
	CodeOK              = 0
	CodeValidation      = 10001
	CodeUnauthenticated = 10002
	CodeTooManyRequests = 10004
	CodeBodyTooLarge    = 10007
	CodeInternal        = 50000
)

// Response 统一响应信封
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Pagination 分页元数据
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// PageData 分页响应数据
type PageData struct {
	List       any        `json:"list"`
	Pagination Pagination `json:"pagination"`
}

func success(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Code: CodeOK, Message: "success", Data: data})
}

// OK 200
func OK(c *gin.Context, data any) { success(c, http.StatusOK, data) }

// Created 201
func Created(c *gin.Context, data any) { success(c, http.StatusCreated, data) }

// NoContent 204，用于删除与登出
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// OKPage 200 分页列表
func OKPage(c *gin.Context, list any, total int64, page, pageSize int) {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	success(c, http.StatusOK, PageData{
		List: list,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

// Attachment 以下载文件形式返回二进制内容，文件名按 RFC 5987 编码
func Attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, contentType, data)
}

// Error 通用错误响应
func Error(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, Response{Code: code, Message: message})
}

// ValidationFailed 400 参数校验失败，data 为 字段 → 错误信息
func ValidationFailed(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    CodeValidation,
		Message: "参数校验失败",
		Data:    fields,
	})
}

// BadRequest 400
func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, code int, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

// Forbidden 403
func Forbidden(c *gin.Context, code int, message string) {
	Error(c, http.StatusForbidden, code, message)
}

// NotFound 404
func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

// PayloadTooLarge 413
func PayloadTooLarge(c *gin.Context, message string) {
	Error(c, http.StatusRequestEntityTooLarge, CodeBodyTooLarge, message)
}

// TooManyRequests 429
func TooManyRequests(c *gin.Context) {
	Error(c, http.StatusTooManyRequests, CodeTooManyRequests, "请求过于频繁，请稍后再试")
}

// InternalError 500，不向客户端暴露内部细节
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, CodeInternal, "服务器内部错误")
}
