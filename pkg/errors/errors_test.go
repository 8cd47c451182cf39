package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew_IsKind(t *testing.T) {
	err := New(ErrNotFound, "病例不存在")

	if !errors.Is(err, ErrNotFound) {
		t.Error("期望 errors.Is(err, ErrNotFound) 为 true")
	}
	if errors.Is(err, ErrForbidden) {
		t.Error("不应匹配 ErrForbidden")
	}
	if err.Error() != "病例不存在" {
		t.Errorf("期望消息=病例不存在，实际=%s", err.Error())
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("删除病例: %w", New(ErrNotFound, "病例不存在"))

	if KindOf(wrapped) != ErrNotFound {
		t.Errorf("期望 ErrNotFound，实际=%v", KindOf(wrapped))
	}
	if KindOf(errors.New("db down")) != nil {
		t.Error("未分类错误应返回 nil")
	}
	if KindOf(New(ErrDuplicate, "用户名已被占用")) != ErrDuplicate {
		t.Error("期望 ErrDuplicate")
	}
}
