/*
 * @Description:
 * @Author: 张宇轩
 * @Date: 2025-09-04 10:21:30
 * @LastEditTime: 2025-10-19 12:01:15
 * @LastEditors: 张宇轩
 */
package repository

import (
	"context"

	"github.com/zyx-c/image-app/pkg/domain/model"
)

// UserRepository 定义了用户行的持久化操作。
// 视觉服务的凭证存取（BaiduAPIKey/BaiduSecretKey）也经由此接口。
type UserRepository interface {
	// Create 插入新行并回填自增 ID，用户名冲突时返回 constant.ErrConflict
	Create(ctx context.Context, user *model.User) error
	// FindByID 按 ID 查找，找不到时返回 constant.ErrNotFound
	FindByID(ctx context.Context, id uint) (*model.User, error)
	// FindByUsername 按用户名查找，找不到时返回 constant.ErrNotFound
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// Update 按 ID 全量更新可变字段
	Update(ctx context.Context, user *model.User) error
}
