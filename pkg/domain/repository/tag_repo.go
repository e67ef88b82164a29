/*
 * @Description: 标签与图片标签关联仓储接口
 * @Author: 张宇轩
 * @Date: 2025-09-04 10:15:02
 * @LastEditTime: 2025-12-12 11:07:44
 * @LastEditors: 张宇轩
 */
package repository

import (
	"context"

	"github.com/zyx-c/image-app/pkg/domain/model"
)

// TagRepository 定义了标签行的持久化操作。
type TagRepository interface {
	// Create 插入新行并回填自增 ID。(user_id, tag_name) 上有唯一约束，
	// 冲突时返回 constant.ErrConflict。
	Create(ctx context.Context, tag *model.Tag) error
	// FindByID 按 ID 查找，找不到时返回 constant.ErrNotFound
	FindByID(ctx context.Context, id uint) (*model.Tag, error)
	// FindByName 在指定用户作用域内按名称精确查找，不存在时返回 (nil, nil)
	FindByName(ctx context.Context, userID uint, name string) (*model.Tag, error)
	// Update 更新标签名称与使用计数
	Update(ctx context.Context, tag *model.Tag) error
	// Delete 物理删除标签行
	Delete(ctx context.Context, id uint) error
	// List 返回作用域内的标签，keyword 非空时做模糊匹配，按使用次数倒序
	List(ctx context.Context, userID *uint, keyword string) ([]*model.Tag, error)
	// IncrementUseCount 将使用计数累加 delta（可为负），不会降到 0 以下
	IncrementUseCount(ctx context.Context, id uint, delta int) error
}

// ImageTagRepository 定义了图片-标签关联行的持久化操作。
type ImageTagRepository interface {
	// Find 查找关联，不存在时返回 (nil, nil)
	Find(ctx context.Context, imageID, tagID uint) (*model.ImageTag, error)
	// CreateIfAbsent 在 (image_id, tag_id) 不存在时插入，返回是否真的插入了。
	// 依赖唯一约束吸收并发下的重复插入。
	CreateIfAbsent(ctx context.Context, link *model.ImageTag) (bool, error)
	// Delete 删除单条关联，关联不存在时也返回成功
	Delete(ctx context.Context, imageID, tagID uint) error
	// DeleteByImage 删除图片的全部关联，返回删除的行数
	DeleteByImage(ctx context.Context, imageID uint) (int64, error)
	// DeleteByTag 删除标签的全部关联，返回删除的行数
	DeleteByTag(ctx context.Context, tagID uint) (int64, error)
	// ListByImage 返回图片的全部关联
	ListByImage(ctx context.Context, imageID uint) ([]*model.ImageTag, error)
	// ListImageIDsByTag 返回携带该标签的全部图片 ID
	ListImageIDsByTag(ctx context.Context, tagID uint) ([]uint, error)
}
