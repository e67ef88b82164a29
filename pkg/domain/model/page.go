/*
 * @Description:
 * @Author: 张宇轩
 * @Date: 2025-09-03 16:20:44
 * @LastEditTime: 2025-09-03 16:20:44
 * @LastEditors: 张宇轩
 */
package model

// PageResult 是分页查询的统一响应结构
type PageResult[T any] struct {
	Records []T   `json:"records"`
	Total   int64 `json:"total"`
	Current int   `json:"current"`
	Size    int   `json:"size"`
}

// NewPageResult 构造分页结果
func NewPageResult[T any](records []T, total int64, current, size int) *PageResult[T] {
	return &PageResult[T]{
		Records: records,
		Total:   total,
		Current: current,
		Size:    size,
	}
}

// NormalizePage 将页码与页大小规范到合法区间
func NormalizePage(current, size int) (int, int) {
	if current < 1 {
		current = 1
	}
	if size < 1 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return current, size
}
