/*
 * @Description: 标签仓储的 database/sql 实现
 * @Author: 张宇轩
 * @Date: 2025-09-04 17:05:12
 * @LastEditTime: 2025-12-16 10:12:37
 * @LastEditors: 张宇轩
 */
package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zyx-c/image-app/pkg/constant"
	"github.com/zyx-c/image-app/pkg/domain/model"
	"github.com/zyx-c/image-app/pkg/domain/repository"
)

const tagColumns = `id, user_id, tag_name, tag_type, use_count, create_time`

type tagRepo struct {
	db     *sql.DB
	driver string
}

// NewTagRepository 是标签仓储的构造函数
func NewTagRepository(db *sql.DB, driverName string) repository.TagRepository {
	return &tagRepo{db: db, driver: driverName}
}

func (r *tagRepo) Create(ctx context.Context, tag *model.Tag) error {
	tag.CreatedAt = time.Now()
	query := rebind(r.driver, `INSERT INTO tags (user_id, tag_name, tag_type, use_count, create_time)
		VALUES (?, ?, ?, ?, ?)`)
	args := []any{tag.UserID, tag.TagName, tag.TagType, tag.UseCount, tag.CreatedAt}

	if r.driver == "postgres" {
		var id uint
		err := r.db.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: 标签 '%s'", constant.ErrConflict, tag.TagName)
		}
		if err != nil {
			return fmt.Errorf("插入标签失败: %w", err)
		}
		tag.ID = id
		return nil
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: 标签 '%s'", constant.ErrConflict, tag.TagName)
	}
	if err != nil {
		return fmt.Errorf("插入标签失败: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("获取标签自增ID失败: %w", err)
	}
	tag.ID = uint(id)
	return nil
}

func (r *tagRepo) scanTag(row interface{ Scan(...any) error }) (*model.Tag, error) {
	var tag model.Tag
	if err := row.Scan(&tag.ID, &tag.UserID, &tag.TagName, &tag.TagType, &tag.UseCount, &tag.CreatedAt); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepo) FindByID(ctx context.Context, id uint) (*model.Tag, error) {
	query := rebind(r.driver, `SELECT `+tagColumns+` FROM tags WHERE id = ?`)
	tag, err := r.scanTag(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: 标签 %d", constant.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("查询标签失败: %w", err)
	}
	return tag, nil
}

func (r *tagRepo) FindByName(ctx context.Context, userID uint, name string) (*model.Tag, error) {
	query := rebind(r.driver, `SELECT `+tagColumns+` FROM tags WHERE user_id = ? AND tag_name = ?`)
	tag, err := r.scanTag(r.db.QueryRowContext(ctx, query, userID, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("按名称查询标签失败: %w", err)
	}
	return tag, nil
}

func (r *tagRepo) Update(ctx context.Context, tag *model.Tag) error {
	query := rebind(r.driver, `UPDATE tags SET tag_name = ?, use_count = ? WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, tag.TagName, tag.UseCount, tag.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: 标签 '%s'", constant.ErrConflict, tag.TagName)
	}
	if err != nil {
		return fmt.Errorf("更新标签失败: %w", err)
	}
	return nil
}

func (r *tagRepo) Delete(ctx context.Context, id uint) error {
	query := rebind(r.driver, `DELETE FROM tags WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("删除标签失败: %w", err)
	}
	return nil
}

func (r *tagRepo) List(ctx context.Context, userID *uint, keyword string) ([]*model.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags`
	var args []any
	where := ""

	if userID != nil {
		where = ` WHERE user_id = ?`
		args = append(args, *userID)
	}
	if keyword != "" {
		if where == "" {
			where = ` WHERE tag_name LIKE ?`
		} else {
			where += ` AND tag_name LIKE ?`
		}
		args = append(args, "%"+keyword+"%")
	}

	rows, err := r.db.QueryContext(ctx, rebind(r.driver, query+where+` ORDER BY use_count DESC, id ASC`), args...)
	if err != nil {
		return nil, fmt.Errorf("查询标签列表失败: %w", err)
	}
	defer rows.Close()

	var tags []*model.Tag
	for rows.Next() {
		tag, err := r.scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("扫描标签失败: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (r *tagRepo) IncrementUseCount(ctx context.Context, id uint, delta int) error {
	// 解绑时计数回退，但不允许降到 0 以下
	query := rebind(r.driver, `UPDATE tags SET use_count = CASE
		WHEN use_count + ? < 0 THEN 0 ELSE use_count + ? END WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, delta, delta, id); err != nil {
		return fmt.Errorf("更新标签使用计数失败: %w", err)
	}
	return nil
}
