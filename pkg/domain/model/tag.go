/*
 * @Description:
 * @Author: 张宇轩
 * @Date: 2025-09-03 16:10:34
 * @LastEditTime: 2025-11-28 14:03:19
 * @LastEditors: 张宇轩
 */
package model

import "time"

// 标签来源类型
const (
	TagTypeAutomatic   = 1 // 自动标签
	TagTypeUserDefined = 2 // 自定义标签
	TagTypeAI          = 3 // AI标签
)

// Tag 是核心业务模型。
// UserID 为 0 表示系统/全局作用域；名称唯一性按 (UserID, TagName) 约束，
// 因此同名的系统标签与用户标签可以并存。
type Tag struct {
	ID        uint
	UserID    uint
	TagName   string
	TagType   int
	UseCount  int
	CreatedAt time.Time
}

// ImageTag 记录图片与标签的关联。
// (ImageID, TagID) 上有唯一约束，重复创建是无操作。
// Confidence 为 AI 识别置信度(0-100)，人工打标时为 nil。
type ImageTag struct {
	ID         uint
	ImageID    uint
	TagID      uint
	Confidence *float64
	CreatedAt  time.Time
}

// TagResponse 是标签的 API 响应结构
type TagResponse struct {
	ID        string    `json:"id"`
	TagName   string    `json:"tag_name"`
	TagType   int       `json:"tag_type"`
	UseCount  int       `json:"use_count"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateTagRequest 创建标签的请求体
type CreateTagRequest struct {
	TagName string `json:"tag_name" binding:"required"`
}

// UpdateTagRequest 重命名标签的请求体
type UpdateTagRequest struct {
	TagName string `json:"tag_name" binding:"required"`
}
