/*
 * @Description: 图片标签关联仓储的 database/sql 实现
 * @Author: 张宇轩
 * @Date: 2025-09-04 17:40:28
 * @LastEditTime: 2025-12-16 10:20:54
 * @LastEditors: 张宇轩
 */
package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zyx-c/image-app/pkg/domain/model"
	"github.com/zyx-c/image-app/pkg/domain/repository"
)

type imageTagRepo struct {
	db     *sql.DB
	driver string
}

// NewImageTagRepository 是图片标签关联仓储的构造函数
func NewImageTagRepository(db *sql.DB, driverName string) repository.ImageTagRepository {
	return &imageTagRepo{db: db, driver: driverName}
}

func (r *imageTagRepo) Find(ctx context.Context, imageID, tagID uint) (*model.ImageTag, error) {
	query := rebind(r.driver, `SELECT id, image_id, tag_id, confidence, create_time
		FROM image_tags WHERE image_id = ? AND tag_id = ?`)

	var link model.ImageTag
	var confidence sql.NullFloat64
	err := r.db.QueryRowContext(ctx, query, imageID, tagID).
		Scan(&link.ID, &link.ImageID, &link.TagID, &confidence, &link.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询图片标签关联失败: %w", err)
	}
	if confidence.Valid {
		v := confidence.Float64
		link.Confidence = &v
	}
	return &link, nil
}

func (r *imageTagRepo) CreateIfAbsent(ctx context.Context, link *model.ImageTag) (bool, error) {
	link.CreatedAt = time.Now()
	query := rebind(r.driver, `INSERT INTO image_tags (image_id, tag_id, confidence, create_time)
		VALUES (?, ?, ?, ?)`)

	var confidence any
	if link.Confidence != nil {
		confidence = *link.Confidence
	}

	_, err := r.db.ExecContext(ctx, query, link.ImageID, link.TagID, confidence, link.CreatedAt)
	if isUniqueViolation(err) {
		// (image_id, tag_id) 已存在，重复创建是无操作
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("插入图片标签关联失败: %w", err)
	}
	return true, nil
}

func (r *imageTagRepo) Delete(ctx context.Context, imageID, tagID uint) error {
	query := rebind(r.driver, `DELETE FROM image_tags WHERE image_id = ? AND tag_id = ?`)
	if _, err := r.db.ExecContext(ctx, query, imageID, tagID); err != nil {
		return fmt.Errorf("删除图片标签关联失败: %w", err)
	}
	return nil
}

func (r *imageTagRepo) DeleteByImage(ctx context.Context, imageID uint) (int64, error) {
	query := rebind(r.driver, `DELETE FROM image_tags WHERE image_id = ?`)
	res, err := r.db.ExecContext(ctx, query, imageID)
	if err != nil {
		return 0, fmt.Errorf("删除图片的标签关联失败: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *imageTagRepo) DeleteByTag(ctx context.Context, tagID uint) (int64, error) {
	query := rebind(r.driver, `DELETE FROM image_tags WHERE tag_id = ?`)
	res, err := r.db.ExecContext(ctx, query, tagID)
	if err != nil {
		return 0, fmt.Errorf("删除标签的图片关联失败: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *imageTagRepo) ListByImage(ctx context.Context, imageID uint) ([]*model.ImageTag, error) {
	query := rebind(r.driver, `SELECT id, image_id, tag_id, confidence, create_time
		FROM image_tags WHERE image_id = ? ORDER BY id ASC`)

	rows, err := r.db.QueryContext(ctx, query, imageID)
	if err != nil {
		return nil, fmt.Errorf("查询图片的标签关联失败: %w", err)
	}
	defer rows.Close()

	var links []*model.ImageTag
	for rows.Next() {
		var link model.ImageTag
		var confidence sql.NullFloat64
		if err := rows.Scan(&link.ID, &link.ImageID, &link.TagID, &confidence, &link.CreatedAt); err != nil {
			return nil, fmt.Errorf("扫描图片标签关联失败: %w", err)
		}
		if confidence.Valid {
			v := confidence.Float64
			link.Confidence = &v
		}
		links = append(links, &link)
	}
	return links, rows.Err()
}

func (r *imageTagRepo) ListImageIDsByTag(ctx context.Context, tagID uint) ([]uint, error) {
	query := rebind(r.driver, `SELECT image_id FROM image_tags WHERE tag_id = ?`)

	rows, err := r.db.QueryContext(ctx, query, tagID)
	if err != nil {
		return nil, fmt.Errorf("查询标签的图片列表失败: %w", err)
	}
	defer rows.Close()

	var ids []uint
	for rows.Next() {
		var id uint
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("扫描图片ID失败: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
