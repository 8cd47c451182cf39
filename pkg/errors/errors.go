// Package errors 定义业务错误分类，Handler 层据此映射 HTTP 状态码。
package errors

import "errors"

// 错误分类
var (
	ErrValidation      = errors.New("参数校验失败")
	ErrDuplicate       = errors.New("资源已存在")
	ErrNotFound        = errors.New("资源不存在")
	ErrUnauthenticated = errors.New("未认证")
	ErrForbidden       = errors.New("无权操作")
)

// kindError 携带分类的业务错误
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// New 创建归属于 kind 分类的业务错误，errors.Is(err, kind) 为 true
func New(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// KindOf 返回错误所属分类，未分类时返回 nil
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrDuplicate, ErrNotFound, ErrUnauthenticated, ErrForbidden} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
