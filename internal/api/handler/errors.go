package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"vetlinks/backend/internal/api/middleware"
	"vetlinks/backend/internal/model"
	pkgerrors "vetlinks/backend/pkg/errors"
	"vetlinks/backend/pkg/response"
)

// 业务错误码
const (
	CodeValidation      = response.CodeValidation
	CodeUnauthenticated = response.CodeUnauthenticated
	CodeForbidden       = 10003
	CodeTooManyRequests = response.CodeTooManyRequests
	CodeNotFound        = 10005
	CodeDuplicate       = 10006
	CodeBodyTooLarge    = response.CodeBodyTooLarge
)

// RegisterValidators 向 gin 的校验器注册自定义规则，并以 json 标签作为字段名
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin 校验器不是 go-playground/validator")
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	return v.RegisterValidation("case_category", func(fl validator.FieldLevel) bool {
		return model.IsValidCaseCategory(fl.Field().String())
	})
}

// respondBindError 将绑定/校验错误转换为字段级 400 响应
func respondBindError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		response.PayloadTooLarge(c, "请求体过大")
		return
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		response.ValidationFailed(c, map[string]string{"body": "请求体格式错误"})
		return
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	response.ValidationFailed(c, fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "该字段为必填项"
	case "max":
		return fmt.Sprintf("长度不能超过 %s", fe.Param())
	case "min":
		return fmt.Sprintf("不能小于 %s", fe.Param())
	case "email":
		return "邮箱格式无效"
	case "case_category":
		return fmt.Sprintf("分类必须为 %s 之一", strings.Join(model.CaseCategories, "、"))
	default:
		return "字段值无效"
	}
}

// respondError 按业务错误分类映射 HTTP 状态码，未分类错误记录日志并返回 500
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	switch pkgerrors.KindOf(err) {
	case pkgerrors.ErrValidation:
		response.BadRequest(c, CodeValidation, err.Error())
	case pkgerrors.ErrDuplicate:
		response.BadRequest(c, CodeDuplicate, err.Error())
	case pkgerrors.ErrNotFound:
		response.NotFound(c, CodeNotFound, err.Error())
	case pkgerrors.ErrUnauthenticated:
		response.Unauthorized(c, CodeUnauthenticated, err.Error())
	case pkgerrors.ErrForbidden:
		response.Forbidden(c, CodeForbidden, err.Error())
	default:
		logger.Error("请求处理失败",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		_ = c.Error(err)
		response.InternalError(c)
	}
}
