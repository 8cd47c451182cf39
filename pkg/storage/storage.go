// Package storage 本地磁盘图片存储。
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vetlinks/backend/config"
)

// CaseImageDir 病例图片子目录
const CaseImageDir = "case_images"

// ErrInvalidName 存储名不合法（越出根目录）
var ErrInvalidName = errors.New("非法的存储路径")

// LocalStore 将上传文件保存在 UploadDir 下，存储名形如 case_images/<uuid>.png
type LocalStore struct {
	root   string
	logger *zap.Logger
}

// NewLocalStore 创建本地存储并确保目录存在
func NewLocalStore(cfg *config.StorageConfig, logger *zap.Logger) (*LocalStore, error) {
	root, err := filepath.Abs(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("解析上传目录失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(root, CaseImageDir), 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	logger.Info("图片存储目录就绪", zap.String("root", root))
	return &LocalStore{root: root, logger: logger}, nil
}

// Root 上传根目录（静态文件路由使用）
func (s *LocalStore) Root() string { return s.root }

// Save 写入 dir/<uuid><ext>，返回以 / 分隔的相对存储名
func (s *LocalStore) Save(dir, ext string, r io.Reader) (string, error) {
	name := path.Join(dir, uuid.NewString()+strings.ToLower(ext))
	full, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(full)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return "", err
	}
	return name, nil
}

// Remove 删除存储名对应的文件，文件不存在视为成功
func (s *LocalStore) Remove(name string) error {
	full, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	s.logger.Debug("已删除文件", zap.String("name", name))
	return nil
}

func (s *LocalStore) resolve(name string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(name))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", ErrInvalidName
	}
	return full, nil
}
