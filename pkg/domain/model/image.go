/*
 * @Description: 图片领域模型
 * @Author: 张宇轩
 * @Date: 2025-09-03 16:02:51
 * @LastEditTime: 2025-12-12 10:40:28
 * @LastEditors: 张宇轩
 */
package model

import "time"

// 图片生命周期状态。软删除只改状态位，行数据保留。
const (
	ImageStatusDeleted = 0 // 已删除
	ImageStatusActive  = 1 // 正常
)

// Image 是核心业务模型，对应一次成功入库的上传。
// FilePath 与 ThumbnailPath 均为相对各自存储根目录的路径，
// 永远不以 '/' 开头，也不包含 '..' 段。
type Image struct {
	ID            uint
	UserID        uint
	Title         string
	Description   string
	FileName      string
	FilePath      string
	FileSize      int64
	FileType      string
	Width         int
	Height        int
	ThumbnailPath string
	MD5           string
	UploadTime    time.Time
	ShootTime     *time.Time
	Location      string
	Device        string
	CameraModel   string
	FocalLength   string
	Aperture      string
	ISO           string
	ViewCount     int
	Status        int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ExifMetadata 是 EXIF 提取器尽力而为的产物，任意字段都可能为空。
type ExifMetadata struct {
	ShootTime   *time.Time
	Device      string
	CameraModel string
	FocalLength string
	Aperture    string
	ISO         string
	Location    string
}

// ImageResponse 是图片的 API 响应结构
type ImageResponse struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	FileName      string         `json:"file_name"`
	FilePath      string         `json:"file_path"`
	FileSize      int64          `json:"file_size"`
	FileType      string         `json:"file_type"`
	Width         int            `json:"width"`
	Height        int            `json:"height"`
	ThumbnailPath string         `json:"thumbnail_path"`
	MD5           string         `json:"md5"`
	UploadTime    time.Time      `json:"upload_time"`
	ShootTime     *time.Time     `json:"shoot_time,omitempty"`
	Location      string         `json:"location,omitempty"`
	Device        string         `json:"device,omitempty"`
	CameraModel   string         `json:"camera_model,omitempty"`
	FocalLength   string         `json:"focal_length,omitempty"`
	Aperture      string         `json:"aperture,omitempty"`
	ISO           string         `json:"iso,omitempty"`
	ViewCount     int            `json:"view_count"`
	Tags          []*TagResponse `json:"tags"`
}

// UpdateImageRequest 更新图片信息的请求体。
// TagIDs 为 nil 表示不改动标签，为空切片表示清空标签。
type UpdateImageRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	TagIDs      []string `json:"tag_ids"`
}

// BatchUploadItem 批量上传时单个文件的处理结果
type BatchUploadItem struct {
	FileName string         `json:"file_name"`
	Success  bool           `json:"success"`
	Message  string         `json:"message,omitempty"`
	Image    *ImageResponse `json:"image,omitempty"`
}

// BatchDeleteRequest 批量删除的请求体
type BatchDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// BatchDeleteItem 批量删除时单张图片的处理结果
type BatchDeleteItem struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// AddImageTagRequest 给图片追加单个标签的请求体
type AddImageTagRequest struct {
	TagID string `json:"tag_id" binding:"required"`
}
