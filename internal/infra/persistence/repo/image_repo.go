/*
 * @Description: 图片仓储的 database/sql 实现
 * @Author: 张宇轩
 * @Date: 2025-09-04 16:28:45
 * @LastEditTime: 2025-12-16 09:48:22
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

const imageColumns = `id, user_id, title, description, file_name, file_path, file_size, file_type,
	width, height, thumbnail_path, md5, upload_time, shoot_time, location, device,
	camera_model, focal_length, aperture, iso, view_count, status, create_time, update_time`

type imageRepo struct {
	db     *sql.DB
	driver string
}

// NewImageRepository 是图片仓储的构造函数
func NewImageRepository(db *sql.DB, driverName string) repository.ImageRepository {
	return &imageRepo{db: db, driver: driverName}
}

func (r *imageRepo) Create(ctx context.Context, img *model.Image) error {
	now := time.Now()
	if img.UploadTime.IsZero() {
		img.UploadTime = now
	}
	img.CreatedAt = now
	img.UpdatedAt = now

	query := rebind(r.driver, `INSERT INTO images
		(user_id, title, description, file_name, file_path, file_size, file_type,
		 width, height, thumbnail_path, md5, upload_time, shoot_time, location, device,
		 camera_model, focal_length, aperture, iso, view_count, status, create_time, update_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	args := []any{
		img.UserID, img.Title, img.Description, img.FileName, img.FilePath, img.FileSize, img.FileType,
		img.Width, img.Height, img.ThumbnailPath, img.MD5, img.UploadTime, img.ShootTime, img.Location, img.Device,
		img.CameraModel, img.FocalLength, img.Aperture, img.ISO, img.ViewCount, img.Status, img.CreatedAt, img.UpdatedAt,
	}

	// PostgreSQL 的 LastInsertId 不可用，走 RETURNING
	if r.driver == "postgres" {
		var id uint
		if err := r.db.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return fmt.Errorf("插入图片记录失败: %w", err)
		}
		img.ID = id
		return nil
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("插入图片记录失败: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("获取图片自增ID失败: %w", err)
	}
	img.ID = uint(id)
	return nil
}

func (r *imageRepo) scanImage(row interface{ Scan(...any) error }) (*model.Image, error) {
	var img model.Image
	var description, location, device, cameraModel, focalLength, aperture, iso sql.NullString
	var shootTime sql.NullTime

	err := row.Scan(
		&img.ID, &img.UserID, &img.Title, &description, &img.FileName, &img.FilePath, &img.FileSize, &img.FileType,
		&img.Width, &img.Height, &img.ThumbnailPath, &img.MD5, &img.UploadTime, &shootTime, &location, &device,
		&cameraModel, &focalLength, &aperture, &iso, &img.ViewCount, &img.Status, &img.CreatedAt, &img.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	img.Description = description.String
	img.Location = location.String
	img.Device = device.String
	img.CameraModel = cameraModel.String
	img.FocalLength = focalLength.String
	img.Aperture = aperture.String
	img.ISO = iso.String
	if shootTime.Valid {
		t := shootTime.Time
		img.ShootTime = &t
	}
	return &img, nil
}

func (r *imageRepo) FindByID(ctx context.Context, id uint) (*model.Image, error) {
	query := rebind(r.driver, `SELECT `+imageColumns+` FROM images WHERE id = ? AND status = ?`)
	img, err := r.scanImage(r.db.QueryRowContext(ctx, query, id, model.ImageStatusActive))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: 图片 %d", constant.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("查询图片记录失败: %w", err)
	}
	return img, nil
}

func (r *imageRepo) Update(ctx context.Context, img *model.Image) error {
	img.UpdatedAt = time.Now()
	query := rebind(r.driver, `UPDATE images SET
		title = ?, description = ?, file_path = ?, file_size = ?, file_type = ?,
		width = ?, height = ?, thumbnail_path = ?, md5 = ?, shoot_time = ?, location = ?,
		device = ?, camera_model = ?, focal_length = ?, aperture = ?, iso = ?, update_time = ?
		WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query,
		img.Title, img.Description, img.FilePath, img.FileSize, img.FileType,
		img.Width, img.Height, img.ThumbnailPath, img.MD5, img.ShootTime, img.Location,
		img.Device, img.CameraModel, img.FocalLength, img.Aperture, img.ISO, img.UpdatedAt,
		img.ID,
	)
	if err != nil {
		return fmt.Errorf("更新图片记录失败: %w", err)
	}
	return nil
}

func (r *imageRepo) IncrementViewCount(ctx context.Context, id uint) error {
	query := rebind(r.driver, `UPDATE images SET view_count = view_count + 1, update_time = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("更新浏览次数失败: %w", err)
	}
	return nil
}

func (r *imageRepo) SoftDelete(ctx context.Context, id uint) error {
	query := rebind(r.driver, `UPDATE images SET status = ?, update_time = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, model.ImageStatusDeleted, time.Now(), id); err != nil {
		return fmt.Errorf("软删除图片记录失败: %w", err)
	}
	return nil
}

func (r *imageRepo) List(ctx context.Context, opts repository.ListImagesOptions) ([]*model.Image, int64, error) {
	current, size := opts.Current, opts.Size
	if current < 1 {
		current = 1
	}
	if size < 1 {
		size = 10
	}

	where := ` WHERE status = ?`
	args := []any{model.ImageStatusActive}

	if opts.UserID != nil {
		where += ` AND user_id = ?`
		args = append(args, *opts.UserID)
	}
	if opts.TagID != nil {
		where += ` AND id IN (SELECT image_id FROM image_tags WHERE tag_id = ?)`
		args = append(args, *opts.TagID)
	}
	if opts.Keyword != "" {
		where += ` AND (title LIKE ? OR description LIKE ? OR file_name LIKE ?)`
		kw := "%" + opts.Keyword + "%"
		args = append(args, kw, kw, kw)
	}

	var total int64
	countQuery := rebind(r.driver, `SELECT COUNT(*) FROM images`+where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计图片总数失败: %w", err)
	}

	listQuery := rebind(r.driver,
		`SELECT `+imageColumns+` FROM images`+where+` ORDER BY upload_time DESC LIMIT ? OFFSET ?`)
	args = append(args, size, (current-1)*size)

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询图片列表失败: %w", err)
	}
	defer rows.Close()

	var images []*model.Image
	for rows.Next() {
		img, err := r.scanImage(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("扫描图片记录失败: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("遍历图片列表失败: %w", err)
	}
	return images, total, nil
}
