/*
 * @Description: AI 识别结果模型
 * @Author: 张宇轩
 * @Date: 2025-09-10 09:41:55
 * @LastEditTime: 2025-12-12 10:52:03
 * @LastEditors: 张宇轩
 */
package model

// AiTagResult 是归一化后的单条识别结果。
// Score 为置信度(0-1)，Category 为提供商返回的上层分类，如 "动物-猫科"。
type AiTagResult struct {
	Keyword  string  `json:"keyword"`
	Score    float64 `json:"score"`
	Category string  `json:"category"`
}

// ApplyTagsResult 是"分析并打标"操作的响应载荷
type ApplyTagsResult struct {
	AllTags      []AiTagResult `json:"all_tags"`
	FilteredTags []AiTagResult `json:"filtered_tags"`
	AddedCount   int           `json:"added_count"`
	MinScore     float64       `json:"min_score"`
}
