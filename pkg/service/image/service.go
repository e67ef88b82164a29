/*
 * @Description: 图片服务，负责上传入库的完整编排与图片管理
 * @Author: 张宇轩
 * @Date: 2025-09-09 10:05:17
 * @LastEditTime: 2025-12-21 17:42:36
 * @LastEditors: 张宇轩
 */
package image

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/zyx-c/image-app/internal/infra/storage"
	"github.com/zyx-c/image-app/pkg/constant"
	"github.com/zyx-c/image-app/pkg/domain/model"
	"github.com/zyx-c/image-app/pkg/domain/repository"
	"github.com/zyx-c/image-app/pkg/idgen"
	"github.com/zyx-c/image-app/pkg/service/tag"
)

// ThumbnailGenerator 抽象缩略图生成，便于在测试中替换
type ThumbnailGenerator interface {
	Generate(sourceRelativePath string) (string, error)
	Delete(relativePath string)
}

// MetadataExtractor 抽象 EXIF 提取
type MetadataExtractor interface {
	Extract(rs io.ReadSeeker, size int64, filename string) *model.ExifMetadata
}

// Service 把存储、缩略图、元数据提取与数据库编排成完整的图片生命周期。
type Service struct {
	imageRepo    repository.ImageRepository
	imageTagRepo repository.ImageTagRepository
	tagRepo      repository.TagRepository
	tagSvc       *tag.Service
	blobStore    storage.BlobStore
	thumbGen     ThumbnailGenerator
	extractor    MetadataExtractor
}

// NewService 是图片服务的构造函数
func NewService(
	imageRepo repository.ImageRepository,
	imageTagRepo repository.ImageTagRepository,
	tagRepo repository.TagRepository,
	tagSvc *tag.Service,
	blobStore storage.BlobStore,
	thumbGen ThumbnailGenerator,
	extractor MetadataExtractor,
) *Service {
	return &Service{
		imageRepo:    imageRepo,
		imageTagRepo: imageTagRepo,
		tagRepo:      tagRepo,
		tagSvc:       tagSvc,
		blobStore:    blobStore,
		thumbGen:     thumbGen,
		extractor:    extractor,
	}
}

// Upload 完成一次上传的完整编排：落盘、生成缩略图、提取元数据、建档、
// 可选的初始标签关联。缩略图失败是致命的，会清掉刚落盘的文件；
// EXIF 提取失败只影响对应字段。
func (s *Service) Upload(ctx context.Context, ownerID uint, file io.Reader, originalFilename, title string, tagPublicIDs []string) (*model.ImageResponse, error) {
	stored, err := s.blobStore.Store(ctx, file, originalFilename)
	if err != nil {
		return nil, fmt.Errorf("保存图片文件失败: %w", err)
	}

	thumbRel, err := s.thumbGen.Generate(stored.RelativePath)
	if err != nil {
		// 不留下没有缩略图的半成品记录
		s.blobStore.Delete(ctx, stored.RelativePath)
		return nil, fmt.Errorf("生成缩略图失败: %w", err)
	}

	img := &model.Image{
		UserID:        ownerID,
		Title:         title,
		FileName:      originalFilename,
		FilePath:      stored.RelativePath,
		FileSize:      stored.Size,
		FileType:      stored.MimeType,
		Width:         stored.Width,
		Height:        stored.Height,
		ThumbnailPath: thumbRel,
		MD5:           stored.MD5,
		Status:        model.ImageStatusActive,
	}
	if img.Title == "" {
		img.Title = originalFilename
	}

	s.fillExif(ctx, img, stored)

	if err := s.imageRepo.Create(ctx, img); err != nil {
		s.blobStore.Delete(ctx, stored.RelativePath)
		s.thumbGen.Delete(thumbRel)
		return nil, err
	}

	// 初始标签失败不回滚已入库的图片
	if len(tagPublicIDs) > 0 {
		if err := s.replaceTags(ctx, ownerID, img.ID, tagPublicIDs); err != nil {
			log.Printf("警告: 图片 %d 初始标签关联失败: %v", img.ID, err)
		}
	}

	log.Printf("✅ 图片 '%s' 入库完成 (ID: %d, %dx%d, %d 字节)",
		img.FileName, img.ID, img.Width, img.Height, img.FileSize)
	return s.toResponse(ctx, img), nil
}

// fillExif 尽力而为地提取 EXIF，任何失败都不影响入库
func (s *Service) fillExif(ctx context.Context, img *model.Image, stored *storage.StoreResult) {
	rc, err := s.blobStore.Open(ctx, stored.RelativePath)
	if err != nil {
		log.Printf("提示: 打开 '%s' 提取EXIF失败: %v", stored.RelativePath, err)
		return
	}
	defer rc.Close()

	rs, ok := rc.(io.ReadSeeker)
	if !ok {
		return
	}
	meta := s.extractor.Extract(rs, stored.Size, img.FileName)
	img.ShootTime = meta.ShootTime
	img.Location = meta.Location
	img.Device = meta.Device
	img.CameraModel = meta.CameraModel
	img.FocalLength = meta.FocalLength
	img.Aperture = meta.Aperture
	img.ISO = meta.ISO
}

// UploadInput 批量上传的单个文件
type UploadInput struct {
	File     io.Reader
	FileName string
}

// BatchUpload 逐个处理一批文件，单个文件失败不影响其余文件。
func (s *Service) BatchUpload(ctx context.Context, ownerID uint, inputs []UploadInput) []*model.BatchUploadItem {
	items := make([]*model.BatchUploadItem, 0, len(inputs))
	for _, in := range inputs {
		item := &model.BatchUploadItem{FileName: in.FileName}
		resp, err := s.Upload(ctx, ownerID, in.File, in.FileName, "", nil)
		if err != nil {
			item.Message = err.Error()
			log.Printf("警告: 批量上传中 '%s' 处理失败: %v", in.FileName, err)
		} else {
			item.Success = true
			item.Image = resp
		}
		items = append(items, item)
	}
	return items
}

// resolveOwned 按公共ID取图并校验归属
func (s *Service) resolveOwned(ctx context.Context, ownerID uint, publicID string) (*model.Image, error) {
	dbID, err := idgen.DecodePublicIDOfType(publicID, idgen.EntityTypeImage)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", constant.ErrInvalidInput, err)
	}
	img, err := s.imageRepo.FindByID(ctx, dbID)
	if err != nil {
		return nil, err
	}
	if img.UserID != ownerID {
		return nil, fmt.Errorf("%w: 无权访问该图片", constant.ErrForbidden)
	}
	return img, nil
}

// FindOwned 对外暴露的归属校验查询，供 AI 打标等跨服务操作使用。
func (s *Service) FindOwned(ctx context.Context, ownerID uint, publicID string) (*model.Image, error) {
	return s.resolveOwned(ctx, ownerID, publicID)
}

// GetDetail 返回图片详情并累加浏览次数
func (s *Service) GetDetail(ctx context.Context, ownerID uint, publicID string) (*model.ImageResponse, error) {
	img, err := s.resolveOwned(ctx, ownerID, publicID)
	if err != nil {
		return nil, err
	}
	if err := s.imageRepo.IncrementViewCount(ctx, img.ID); err != nil {
		log.Printf("警告: 累加图片 %d 浏览次数失败: %v", img.ID, err)
	} else {
		img.ViewCount++
	}
	return s.toResponse(ctx, img), nil
}

// Update 修改标题、描述，并可整体替换标签集合。
// req.TagIDs 为 nil 表示不动标签，为空切片表示清空标签。
func (s *Service) Update(ctx context.Context, ownerID uint, publicID string, req *model.UpdateImageRequest) (*model.ImageResponse, error) {
	img, err := s.resolveOwned(ctx, ownerID, publicID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		img.Title = *req.Title
	}
	if req.Description != nil {
		img.Description = *req.Description
	}
	if err := s.imageRepo.Update(ctx, img); err != nil {
		return nil, err
	}

	if req.TagIDs != nil {
		if err := s.replaceTags(ctx, ownerID, img.ID, req.TagIDs); err != nil {
			return nil, err
		}
	}
	return s.toResponse(ctx, img), nil
}

// replaceTags 把图片的标签集合替换为给定集合。
// 已有且保留的关联不动（保住 AI 置信度），移除和新增按差集处理。
func (s *Service) replaceTags(ctx context.Context, ownerID, imageID uint, tagPublicIDs []string) error {
	desired := make(map[uint]bool, len(tagPublicIDs))
	for _, pid := range tagPublicIDs {
		t, err := s.resolveOwnedTag(ctx, ownerID, pid)
		if err != nil {
			return err
		}
		desired[t.ID] = true
	}

	existing, err := s.imageTagRepo.ListByImage(ctx, imageID)
	if err != nil {
		return err
	}

	for _, link := range existing {
		if desired[link.TagID] {
			delete(desired, link.TagID) // 保留，不需要新增
			continue
		}
		if err := s.imageTagRepo.Delete(ctx, imageID, link.TagID); err != nil {
			return err
		}
		if err := s.tagRepo.IncrementUseCount(ctx, link.TagID, -1); err != nil {
			log.Printf("警告: 回退标签 %d 使用计数失败: %v", link.TagID, err)
		}
	}

	for tagID := range desired {
		created, err := s.imageTagRepo.CreateIfAbsent(ctx, &model.ImageTag{ImageID: imageID, TagID: tagID})
		if err != nil {
			return err
		}
		if created {
			if err := s.tagRepo.IncrementUseCount(ctx, tagID, 1); err != nil {
				log.Printf("警告: 更新标签 %d 使用计数失败: %v", tagID, err)
			}
		}
	}
	return nil
}

// Delete 软删除图片记录，并尽力而为地删掉物理文件与标签关联。
// 物理文件已经不存在时删除依旧成功。
func (s *Service) Delete(ctx context.Context, ownerID uint, publicID string) error {
	img, err := s.resolveOwned(ctx, ownerID, publicID)
	if err != nil {
		return err
	}

	s.blobStore.Delete(ctx, img.FilePath)
	s.thumbGen.Delete(img.ThumbnailPath)

	links, err := s.imageTagRepo.ListByImage(ctx, img.ID)
	if err == nil {
		for _, link := range links {
			if err := s.tagRepo.IncrementUseCount(ctx, link.TagID, -1); err != nil {
				log.Printf("警告: 回退标签 %d 使用计数失败: %v", link.TagID, err)
			}
		}
	}
	if _, err := s.imageTagRepo.DeleteByImage(ctx, img.ID); err != nil {
		log.Printf("警告: 清除图片 %d 的标签关联失败: %v", img.ID, err)
	}

	return s.imageRepo.SoftDelete(ctx, img.ID)
}

// BatchDelete 逐张删除一批图片，单张失败不影响其余。
func (s *Service) BatchDelete(ctx context.Context, ownerID uint, publicIDs []string) []*model.BatchDeleteItem {
	items := make([]*model.BatchDeleteItem, 0, len(publicIDs))
	for _, pid := range publicIDs {
		item := &model.BatchDeleteItem{ID: pid}
		if err := s.Delete(ctx, ownerID, pid); err != nil {
			item.Message = err.Error()
			log.Printf("警告: 批量删除中图片 '%s' 处理失败: %v", pid, err)
		} else {
			item.Success = true
		}
		items = append(items, item)
	}
	return items
}

// resolveOwnedTag 按公共ID取标签并校验归属
func (s *Service) resolveOwnedTag(ctx context.Context, ownerID uint, tagPublicID string) (*model.Tag, error) {
	tagID, err := idgen.DecodePublicIDOfType(tagPublicID, idgen.EntityTypeTag)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", constant.ErrInvalidInput, err)
	}
	t, err := s.tagRepo.FindByID(ctx, tagID)
	if err != nil {
		return nil, err
	}
	if t.UserID != ownerID {
		return nil, fmt.Errorf("%w: 无权使用标签 '%s'", constant.ErrForbidden, t.TagName)
	}
	return t, nil
}

// AddTag 给图片追加一个已有标签。人工追加的关联不带置信度，重复追加是无操作。
func (s *Service) AddTag(ctx context.Context, ownerID uint, imagePublicID, tagPublicID string) error {
	img, err := s.resolveOwned(ctx, ownerID, imagePublicID)
	if err != nil {
		return err
	}
	t, err := s.resolveOwnedTag(ctx, ownerID, tagPublicID)
	if err != nil {
		return err
	}

	created, err := s.imageTagRepo.CreateIfAbsent(ctx, &model.ImageTag{ImageID: img.ID, TagID: t.ID})
	if err != nil {
		return err
	}
	if created {
		if err := s.tagRepo.IncrementUseCount(ctx, t.ID, 1); err != nil {
			log.Printf("警告: 更新标签 %d 使用计数失败: %v", t.ID, err)
		}
	}
	return nil
}

// RemoveTag 解除图片与单个标签的关联，关联本就不存在时同样成功。
func (s *Service) RemoveTag(ctx context.Context, ownerID uint, imagePublicID, tagPublicID string) error {
	img, err := s.resolveOwned(ctx, ownerID, imagePublicID)
	if err != nil {
		return err
	}
	t, err := s.resolveOwnedTag(ctx, ownerID, tagPublicID)
	if err != nil {
		return err
	}

	link, err := s.imageTagRepo.Find(ctx, img.ID, t.ID)
	if err != nil {
		return err
	}
	if link == nil {
		return nil
	}
	if err := s.imageTagRepo.Delete(ctx, img.ID, t.ID); err != nil {
		return err
	}
	if err := s.tagRepo.IncrementUseCount(ctx, t.ID, -1); err != nil {
		log.Printf("警告: 回退标签 %d 使用计数失败: %v", t.ID, err)
	}
	return nil
}

// ListQuery 图片列表查询条件
type ListQuery struct {
	TagID   string // 标签公共ID，空表示不过滤
	Keyword string
	Current int
	Size    int
}

// List 分页列出用户的图片，可按标签与关键字过滤。
func (s *Service) List(ctx context.Context, ownerID uint, q ListQuery) (*model.PageResult[*model.ImageResponse], error) {
	current, size := model.NormalizePage(q.Current, q.Size)

	opts := repository.ListImagesOptions{
		UserID:  &ownerID,
		Keyword: q.Keyword,
		Current: current,
		Size:    size,
	}
	if q.TagID != "" {
		tagID, err := idgen.DecodePublicIDOfType(q.TagID, idgen.EntityTypeTag)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", constant.ErrInvalidInput, err)
		}
		opts.TagID = &tagID
	}

	images, total, err := s.imageRepo.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	records := make([]*model.ImageResponse, 0, len(images))
	for _, img := range images {
		records = append(records, s.toResponse(ctx, img))
	}
	return model.NewPageResult(records, total, current, size), nil
}

// toResponse 组装带标签列表与公共ID的响应
func (s *Service) toResponse(ctx context.Context, img *model.Image) *model.ImageResponse {
	publicID, err := idgen.GeneratePublicID(img.ID, idgen.EntityTypeImage)
	if err != nil {
		log.Printf("警告: 生成图片 %d 的公共ID失败: %v", img.ID, err)
	}

	tags, err := s.tagSvc.TagsOfImage(ctx, img.ID)
	if err != nil {
		log.Printf("警告: 查询图片 %d 的标签失败: %v", img.ID, err)
		tags = []*model.TagResponse{}
	}

	return &model.ImageResponse{
		ID:            publicID,
		Title:         img.Title,
		Description:   img.Description,
		FileName:      filepath.Base(img.FileName),
		FilePath:      img.FilePath,
		FileSize:      img.FileSize,
		FileType:      img.FileType,
		Width:         img.Width,
		Height:        img.Height,
		ThumbnailPath: img.ThumbnailPath,
		MD5:           img.MD5,
		UploadTime:    img.UploadTime,
		ShootTime:     img.ShootTime,
		Location:      img.Location,
		Device:        img.Device,
		CameraModel:   img.CameraModel,
		FocalLength:   img.FocalLength,
		Aperture:      img.Aperture,
		ISO:           img.ISO,
		ViewCount:     img.ViewCount,
		Tags:          tags,
	}
}
