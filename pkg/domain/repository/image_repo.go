/*
 * @Description: 图片仓储接口
 * @Author: 张宇轩
 * @Date: 2025-09-04 10:08:19
 * @LastEditTime: 2025-12-12 11:05:36
 * @LastEditors: 张宇轩
 */
package repository

import (
	"context"

	"github.com/zyx-c/image-app/pkg/domain/model"
)

// ListImagesOptions 图片列表/搜索的过滤条件。
// UserID 为 nil 表示不按归属过滤；Keyword 对标题、描述、文件名做模糊匹配。
type ListImagesOptions struct {
	UserID  *uint
	TagID   *uint
	Keyword string
	Current int
	Size    int
}

// ImageRepository 定义了图片行的持久化操作。
// 所有查询都隐含 status=active 过滤，除非方法名注明包含已删除行。
type ImageRepository interface {
	// Create 插入新行并回填自增 ID
	Create(ctx context.Context, img *model.Image) error
	// FindByID 按 ID 查找未删除的图片，找不到时返回 constant.ErrNotFound
	FindByID(ctx context.Context, id uint) (*model.Image, error)
	// Update 按 ID 全量更新可变字段
	Update(ctx context.Context, img *model.Image) error
	// IncrementViewCount 原子地将浏览次数加一
	IncrementViewCount(ctx context.Context, id uint) error
	// SoftDelete 将状态置为已删除，行数据保留
	SoftDelete(ctx context.Context, id uint) error
	// List 分页返回符合条件的图片及总数，按上传时间倒序
	List(ctx context.Context, opts ListImagesOptions) ([]*model.Image, int64, error)
}
