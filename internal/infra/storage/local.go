/*
 * @Description: 本地磁盘存储驱动
 * @Author: 张宇轩
 * @Date: 2025-09-05 09:31:24
 * @LastEditTime: 2025-12-17 15:08:46
 * @LastEditors: 张宇轩
 */
package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zyx-c/image-app/pkg/constant"
)

// StoreResult 描述一次成功落盘的结果。
type StoreResult struct {
	// RelativePath 是相对存储根目录的路径，形如 2026/08/27/<uuid>.jpg
	RelativePath string
	Size         int64
	MimeType     string
	Width        int
	Height       int
	MD5          string
}

// BlobStore 负责原始图片文件与本机磁盘的所有交互。
type BlobStore interface {
	Store(ctx context.Context, file io.Reader, originalFilename string) (*StoreResult, error)
	Open(ctx context.Context, relativePath string) (io.ReadCloser, error)
	FullPath(relativePath string) (string, error)
	Exists(relativePath string) bool
	Delete(ctx context.Context, relativePaths ...string)
}

// LocalBlobStore 把文件写到 basePath 下按日期分桶的子目录中。
type LocalBlobStore struct {
	basePath string
}

// NewLocalBlobStore 是 LocalBlobStore 的构造函数，会确保存储根目录存在。
func NewLocalBlobStore(basePath string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		return nil, fmt.Errorf("无法创建存储根目录 '%s': %w", basePath, err)
	}
	return &LocalBlobStore{basePath: basePath}, nil
}

// copyFile 复制文件从 src 到 dst，用于跨文件系统的文件移动
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("无法打开源文件: %w", err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("无法创建目标文件: %w", err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return fmt.Errorf("复制文件内容失败: %w", err)
	}

	// 确保数据写入磁盘
	if err := destFile.Sync(); err != nil {
		return fmt.Errorf("同步文件到磁盘失败: %w", err)
	}

	return nil
}

// datedName 生成按日期分桶的相对路径：YYYY/MM/DD/<uuid><原扩展名>
func datedName(originalFilename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	bucket := now.Format("2006/01/02")
	return filepath.ToSlash(filepath.Join(bucket, uuid.NewString()+ext))
}

// Store 将文件流保存到本机磁盘。先写入临时文件，
// 同时计算 MD5 与尺寸，最后原子地移动到最终位置。
func (s *LocalBlobStore) Store(ctx context.Context, file io.Reader, originalFilename string) (*StoreResult, error) {
	processingTempDir := filepath.Join(s.basePath, ".tmp")
	if err := os.MkdirAll(processingTempDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("无法创建用于处理的临时目录 '%s': %w", processingTempDir, err)
	}

	tempFile, err := os.CreateTemp(processingTempDir, "zyx-image-processing-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("无法在 '%s' 目录创建临时文件: %w", processingTempDir, err)
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	hasher := md5.New()
	size, err := io.Copy(io.MultiWriter(tempFile, hasher), file)
	if err != nil {
		return nil, fmt.Errorf("写入处理临时文件失败: %w", err)
	}

	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("无法重置临时文件指针以检测MIME类型: %w", err)
	}
	buffer := make([]byte, 512)
	n, err := tempFile.Read(buffer)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("读取文件头以检测MIME类型失败: %w", err)
	}
	mimeType := http.DetectContentType(buffer[:n])

	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("无法重置临时文件指针以检测图片尺寸: %w", err)
	}
	var width, height int
	if imgConfig, _, err := image.DecodeConfig(tempFile); err == nil {
		width, height = imgConfig.Width, imgConfig.Height
	}

	relativePath := datedName(originalFilename, time.Now())
	finalPath := filepath.Join(s.basePath, filepath.FromSlash(relativePath))
	if err := os.MkdirAll(filepath.Dir(finalPath), os.ModePerm); err != nil {
		return nil, fmt.Errorf("无法创建日期子目录 '%s': %w", filepath.Dir(finalPath), err)
	}

	// 关闭文件句柄，准备移动
	tempFileName := tempFile.Name()
	tempFile.Close()

	// 尝试使用 os.Rename (高效)，如果失败则使用 copy + delete (兼容跨文件系统)
	if err := os.Rename(tempFileName, finalPath); err != nil {
		if err := copyFile(tempFileName, finalPath); err != nil {
			os.Remove(tempFileName)
			return nil, fmt.Errorf("复制文件到最终存储位置 '%s' 失败: %w", finalPath, err)
		}
		os.Remove(tempFileName)
	}

	return &StoreResult{
		RelativePath: relativePath,
		Size:         size,
		MimeType:     mimeType,
		Width:        width,
		Height:       height,
		MD5:          hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Open 按相对路径打开一个已存储的文件。
func (s *LocalBlobStore) Open(ctx context.Context, relativePath string) (io.ReadCloser, error) {
	fullPath, err := s.FullPath(relativePath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", constant.ErrSourceMissing, relativePath)
		}
		return nil, fmt.Errorf("无法打开物理文件 '%s': %w", fullPath, err)
	}
	return file, nil
}

// FullPath 把相对路径解析为存储根目录下的绝对路径。
// 拒绝绝对路径和包含 '..' 段的输入，防止越出存储根目录。
func (s *LocalBlobStore) FullPath(relativePath string) (string, error) {
	cleaned := filepath.ToSlash(relativePath)
	if cleaned == "" || strings.HasPrefix(cleaned, "/") {
		return "", fmt.Errorf("%w: 非法的存储路径 '%s'", constant.ErrInvalidInput, relativePath)
	}
	for _, seg := range strings.Split(cleaned, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: 非法的存储路径 '%s'", constant.ErrInvalidInput, relativePath)
		}
	}
	return filepath.Join(s.basePath, filepath.FromSlash(cleaned)), nil
}

// Exists 检查相对路径对应的物理文件是否存在。
func (s *LocalBlobStore) Exists(relativePath string) bool {
	fullPath, err := s.FullPath(relativePath)
	if err != nil {
		return false
	}
	_, err = os.Stat(fullPath)
	return err == nil
}

// Delete 删除一个或多个物理文件。删除是尽力而为的：
// 文件不存在静默跳过，其余错误只记录不中断。
func (s *LocalBlobStore) Delete(ctx context.Context, relativePaths ...string) {
	for _, rel := range relativePaths {
		if rel == "" {
			continue
		}
		fullPath, err := s.FullPath(rel)
		if err != nil {
			log.Printf("警告: 跳过非法的删除路径 '%s': %v\n", rel, err)
			continue
		}
		if err := os.Remove(fullPath); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			log.Printf("警告: 删除本地资源 '%s' 失败: %v\n", fullPath, err)
		}
	}
}
