/*
 * @Description: 标签服务，包含 AI 识别结果落库与标签管理
 * @Author: 张宇轩
 * @Date: 2025-09-08 14:25:40
 * @LastEditTime: 2025-12-20 16:33:15
 * @LastEditors: 张宇轩
 */
package tag

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/zyx-c/image-app/pkg/constant"
	"github.com/zyx-c/image-app/pkg/domain/model"
	"github.com/zyx-c/image-app/pkg/domain/repository"
	"github.com/zyx-c/image-app/pkg/idgen"
)

// DefaultMinScore 是识别结果落库的默认置信度阈值
const DefaultMinScore = 0.5

// Service 管理标签的生命周期，并把 AI 识别结果合并进标签体系。
type Service struct {
	tagRepo      repository.TagRepository
	imageTagRepo repository.ImageTagRepository
}

// NewService 是标签服务的构造函数
func NewService(tagRepo repository.TagRepository, imageTagRepo repository.ImageTagRepository) *Service {
	return &Service{
		tagRepo:      tagRepo,
		imageTagRepo: imageTagRepo,
	}
}

// tagNameFromCategory 从识别结果的分类字段推导标签名：
// 取第一个 '-' 之前的部分并去掉首尾空白，"动物-猫科" -> "动物"。
func tagNameFromCategory(category string) string {
	name := category
	if idx := strings.Index(name, "-"); idx >= 0 {
		name = name[:idx]
	}
	return strings.TrimSpace(name)
}

// ApplyResults 把一批识别结果按阈值落库为图片标签。
// 阈值为包含比较（score >= minScore），0 表示全部落库，默认值由调用方决定。
// FilteredTags 只按分数过滤；无分类或同名去重的结果不落标签，但仍计入其中。
// 同名标签在一次调用内只处理一次（取先出现的结果）。
// 重复调用是幂等的：已有关联不会重复建立，计数不会虚增。
func (s *Service) ApplyResults(ctx context.Context, ownerID, imageID uint, results []*model.AiTagResult, minScore float64) (*model.ApplyTagsResult, error) {
	out := &model.ApplyTagsResult{
		AllTags:      make([]model.AiTagResult, 0, len(results)),
		FilteredTags: make([]model.AiTagResult, 0, len(results)),
		MinScore:     minScore,
	}

	seen := make(map[string]bool)
	for _, r := range results {
		out.AllTags = append(out.AllTags, *r)
		if r.Score < minScore {
			continue
		}
		out.FilteredTags = append(out.FilteredTags, *r)

		name := tagNameFromCategory(r.Category)
		if name == "" {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		tag, err := s.findOrCreate(ctx, ownerID, name, model.TagTypeAI)
		if err != nil {
			return nil, err
		}

		confidence := r.Score * 100
		created, err := s.imageTagRepo.CreateIfAbsent(ctx, &model.ImageTag{
			ImageID:    imageID,
			TagID:      tag.ID,
			Confidence: &confidence,
		})
		if err != nil {
			return nil, err
		}
		if created {
			if err := s.tagRepo.IncrementUseCount(ctx, tag.ID, 1); err != nil {
				log.Printf("警告: 更新标签 %d 使用计数失败: %v", tag.ID, err)
			}
			out.AddedCount++
		}
	}
	return out, nil
}

// findOrCreate 按 (作用域, 名称) 查找标签，不存在则创建。
// 并发创建撞到唯一约束时回读一次。
func (s *Service) findOrCreate(ctx context.Context, ownerID uint, name string, tagType int) (*model.Tag, error) {
	tag, err := s.tagRepo.FindByName(ctx, ownerID, name)
	if err != nil {
		return nil, err
	}
	if tag != nil {
		return tag, nil
	}

	tag = &model.Tag{UserID: ownerID, TagName: name, TagType: tagType}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		if existing, findErr := s.tagRepo.FindByName(ctx, ownerID, name); findErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return tag, nil
}

// CreateTag 创建一个自定义标签。同名标签已存在时直接返回已有的。
func (s *Service) CreateTag(ctx context.Context, ownerID uint, name string) (*model.TagResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: 标签名为空", constant.ErrInvalidInput)
	}
	tag, err := s.findOrCreate(ctx, ownerID, name, model.TagTypeUserDefined)
	if err != nil {
		return nil, err
	}
	return ToResponse(tag), nil
}

// RenameTag 重命名标签，只能操作自己作用域内的标签。
func (s *Service) RenameTag(ctx context.Context, ownerID, tagID uint, newName string) (*model.TagResponse, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, fmt.Errorf("%w: 标签名为空", constant.ErrInvalidInput)
	}

	tag, err := s.tagRepo.FindByID(ctx, tagID)
	if err != nil {
		return nil, err
	}
	if tag.UserID != ownerID {
		return nil, fmt.Errorf("%w: 无权操作该标签", constant.ErrForbidden)
	}

	tag.TagName = newName
	if err := s.tagRepo.Update(ctx, tag); err != nil {
		return nil, err
	}
	return ToResponse(tag), nil
}

// DeleteTag 删除标签并解除其所有图片关联。
func (s *Service) DeleteTag(ctx context.Context, ownerID, tagID uint) error {
	tag, err := s.tagRepo.FindByID(ctx, tagID)
	if err != nil {
		return err
	}
	if tag.UserID != ownerID {
		return fmt.Errorf("%w: 无权操作该标签", constant.ErrForbidden)
	}

	if _, err := s.imageTagRepo.DeleteByTag(ctx, tagID); err != nil {
		return err
	}
	return s.tagRepo.Delete(ctx, tagID)
}

// ListTags 列出用户作用域内的标签，支持按名称模糊过滤。
func (s *Service) ListTags(ctx context.Context, ownerID uint, keyword string) ([]*model.TagResponse, error) {
	tags, err := s.tagRepo.List(ctx, &ownerID, keyword)
	if err != nil {
		return nil, err
	}
	return ToResponses(tags), nil
}

// TagsOfImage 返回一张图片当前关联的全部标签。
func (s *Service) TagsOfImage(ctx context.Context, imageID uint) ([]*model.TagResponse, error) {
	links, err := s.imageTagRepo.ListByImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	tags := make([]*model.Tag, 0, len(links))
	for _, link := range links {
		tag, err := s.tagRepo.FindByID(ctx, link.TagID)
		if err != nil {
			// 关联指向的标签刚被删除，跳过
			continue
		}
		tags = append(tags, tag)
	}
	return ToResponses(tags), nil
}

// ToResponse 把标签模型转换为带公共ID的响应结构
func ToResponse(tag *model.Tag) *model.TagResponse {
	publicID, err := idgen.GeneratePublicID(tag.ID, idgen.EntityTypeTag)
	if err != nil {
		log.Printf("警告: 生成标签 %d 的公共ID失败: %v", tag.ID, err)
	}
	return &model.TagResponse{
		ID:        publicID,
		TagName:   tag.TagName,
		TagType:   tag.TagType,
		UseCount:  tag.UseCount,
		CreatedAt: tag.CreatedAt,
	}
}

// ToResponses 批量转换
func ToResponses(tags []*model.Tag) []*model.TagResponse {
	out := make([]*model.TagResponse, 0, len(tags))
	for _, tag := range tags {
		out = append(out, ToResponse(tag))
	}
	return out
}
