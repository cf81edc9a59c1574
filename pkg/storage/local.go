package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/iceymoss/go-fpl/pkg/logger"
)

// LocalStorage 本地文件存储实现
type LocalStorage struct {
	basePath string // 基础存储路径，如 ./data/files
	baseURL  string // 基础访问URL，如 http://localhost:8080/static
}

// NewLocalStorage 创建本地文件存储实例
func NewLocalStorage(basePath, baseURL string) *LocalStorage {
	// 确保基础目录存在
	if err := os.MkdirAll(basePath, 0755); err != nil {
		logger.Error("创建存储目录失败", zap.String("path", basePath), zap.Error(err))
	}

	return &LocalStorage{
		basePath: basePath,
		baseURL:  baseURL,
	}
}

// SaveFile 写到 basePath/folder/filename。先写临时文件再 rename，失败不会留下半个文件
func (s *LocalStorage) SaveFile(ctx context.Context, file io.Reader, filename, folder string) (string, error) {
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("非法文件名: %q", filename)
	}

	// folder 不能跳出 basePath
	folder = strings.TrimPrefix(filepath.Clean("/"+folder), string(filepath.Separator))
	folderPath := filepath.Join(s.basePath, folder)
	if err := os.MkdirAll(folderPath, 0755); err != nil {
		return "", fmt.Errorf("创建文件夹失败: %w", err)
	}

	tmp, err := os.CreateTemp(folderPath, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("创建文件失败: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("写入文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("写入文件失败: %w", err)
	}

	filePath := filepath.Join(folderPath, name)
	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("保存文件失败: %w", err)
	}

	return s.GetFileURL(filepath.Join(folder, name)), nil
}

// DeleteFile 删除文件，文件不存在也算成功
func (s *LocalStorage) DeleteFile(ctx context.Context, url string) error {
	// URL格式: http://localhost:8080/static/photos/p223340.png
	// 需要提取: photos/p223340.png
	relativePath := url
	if s.baseURL != "" {
		relativePath = strings.TrimPrefix(url, strings.TrimRight(s.baseURL, "/"))
	}
	relativePath = strings.TrimPrefix(relativePath, "/")

	filePath := filepath.Join(s.basePath, filepath.Clean("/"+relativePath))
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("删除文件失败: %w", err)
	}
	return nil
}

// GetFileURL 获取文件的访问URL
func (s *LocalStorage) GetFileURL(path string) string {
	// 确保路径使用正斜杠（URL格式）
	urlPath := strings.TrimPrefix(filepath.ToSlash(path), "/")

	if s.baseURL != "" {
		return strings.TrimRight(s.baseURL, "/") + "/" + urlPath
	}
	return "/" + urlPath
}
