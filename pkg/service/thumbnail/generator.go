/*
 * @Description: 缩略图生成服务
 * @Author: 张宇轩
 * @Date: 2025-09-05 14:22:18
 * @LastEditTime: 2025-12-17 16:40:09
 * @LastEditors: 张宇轩
 */
package thumbnail

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/zyx-c/image-app/pkg/constant"
)

const (
	// 默认缩略图边界框，等比缩放，不放大小图
	DefaultMaxWidth  = 300
	DefaultMaxHeight = 300
)

// Generator 按固定边界框为已落盘的原图生成缩略图。
// 缩略图存放在独立的根目录下，与原图保持相同的相对路径结构，
// 文件名在扩展名前追加 _thumb。
type Generator struct {
	sourceRoot    string
	thumbnailRoot string
	maxWidth      int
	maxHeight     int
}

// NewGenerator 是 Generator 的构造函数
func NewGenerator(sourceRoot, thumbnailRoot string) *Generator {
	return &Generator{
		sourceRoot:    sourceRoot,
		thumbnailRoot: thumbnailRoot,
		maxWidth:      DefaultMaxWidth,
		maxHeight:     DefaultMaxHeight,
	}
}

// ThumbName 在扩展名前追加 _thumb：2026/08/27/a.jpg -> 2026/08/27/a_thumb.jpg
func ThumbName(relativePath string) string {
	ext := filepath.Ext(relativePath)
	return strings.TrimSuffix(relativePath, ext) + "_thumb" + ext
}

// Generate 用默认边界框为原图生成缩略图，返回缩略图相对其根目录的路径。
// 原图不存在返回 ErrSourceMissing；解码失败视为生成失败。
func (g *Generator) Generate(sourceRelativePath string) (string, error) {
	return g.GenerateSized(sourceRelativePath, g.maxWidth, g.maxHeight)
}

// GenerateSized 按指定边界框生成缩略图，等比缩放。
func (g *Generator) GenerateSized(sourceRelativePath string, maxWidth, maxHeight int) (string, error) {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	if maxHeight <= 0 {
		maxHeight = DefaultMaxHeight
	}
	sourcePath := filepath.Join(g.sourceRoot, filepath.FromSlash(sourceRelativePath))
	if _, err := os.Stat(sourcePath); os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", constant.ErrSourceMissing, sourceRelativePath)
	}

	src, err := imaging.Open(sourcePath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("解码原图 '%s' 失败: %w", sourceRelativePath, err)
	}

	// Fit 等比缩小到边界框内，小于边界框的图保持原尺寸
	thumb := imaging.Fit(src, maxWidth, maxHeight, imaging.Lanczos)

	thumbRelative := ThumbName(sourceRelativePath)
	thumbPath := filepath.Join(g.thumbnailRoot, filepath.FromSlash(thumbRelative))
	if err := os.MkdirAll(filepath.Dir(thumbPath), os.ModePerm); err != nil {
		return "", fmt.Errorf("无法创建缩略图目录 '%s': %w", filepath.Dir(thumbPath), err)
	}

	if err := imaging.Save(thumb, thumbPath); err != nil {
		return "", fmt.Errorf("保存缩略图 '%s' 失败: %w", thumbRelative, err)
	}
	return thumbRelative, nil
}

// FullPath 把缩略图相对路径解析为绝对路径
func (g *Generator) FullPath(relativePath string) string {
	return filepath.Join(g.thumbnailRoot, filepath.FromSlash(relativePath))
}

// Delete 尽力而为地删除缩略图文件，不存在不算错误
func (g *Generator) Delete(relativePath string) {
	if relativePath == "" {
		return
	}
	if err := os.Remove(g.FullPath(relativePath)); err != nil && !os.IsNotExist(err) {
		log.Printf("警告: 删除缩略图 '%s' 失败: %v", relativePath, err)
	}
}
