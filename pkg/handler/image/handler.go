/*
 * @Description: 图片管理的控制器
 * @Author: 张宇轩
 * @Date: 2025-09-12 09:20:44
 * @LastEditTime: 2025-12-23 10:55:08
 * @LastEditors: 张宇轩
 */
package image_handler

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zyx-c/image-app/internal/app/middleware"
	"github.com/zyx-c/image-app/internal/infra/storage"
	"github.com/zyx-c/image-app/pkg/domain/model"
	"github.com/zyx-c/image-app/pkg/response"
	"github.com/zyx-c/image-app/pkg/service/image"
	"github.com/zyx-c/image-app/pkg/service/thumbnail"
)

// ImageHandler 封装了图片相关的控制器方法
type ImageHandler struct {
	imageSvc  *image.Service
	blobStore storage.BlobStore
	thumbGen  *thumbnail.Generator
}

// NewImageHandler 是 ImageHandler 的构造函数
func NewImageHandler(imageSvc *image.Service, blobStore storage.BlobStore, thumbGen *thumbnail.Generator) *ImageHandler {
	return &ImageHandler{
		imageSvc:  imageSvc,
		blobStore: blobStore,
		thumbGen:  thumbGen,
	}
}

// Upload 处理单张图片上传
// @Summary      上传图片
// @Tags         图片管理
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        file     formData  file    true   "图片文件"
// @Param        title    formData  string  false  "标题"
// @Param        tag_ids  formData  []string  false  "初始标签ID列表"
// @Success      200  {object}  response.Response  "上传成功"
// @Failure      500  {object}  response.Response  "上传失败"
// @Router       /images [post]
func (h *ImageHandler) Upload(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "未找到上传文件: "+err.Error())
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "无法读取上传文件: "+err.Error())
		return
	}
	defer file.Close()

	resp, err := h.imageSvc.Upload(c.Request.Context(), user.ID, file, fileHeader.Filename, c.PostForm("title"), c.PostFormArray("tag_ids"))
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Success(c, resp, "上传成功")
}

// BatchUpload 处理批量上传，单个文件失败不影响其余文件
// @Summary      批量上传图片
// @Tags         图片管理
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        files  formData  file  true  "图片文件（可多个）"
// @Success      200  {object}  response.Response  "处理完成"
// @Router       /images/batch [post]
func (h *ImageHandler) BatchUpload(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	form, err := c.MultipartForm()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "解析表单失败: "+err.Error())
		return
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		response.Fail(c, http.StatusBadRequest, "未找到上传文件")
		return
	}

	inputs := make([]image.UploadInput, 0, len(fileHeaders))
	var opened []interface{ Close() error }
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			continue
		}
		opened = append(opened, f)
		inputs = append(inputs, image.UploadInput{File: f, FileName: fh.Filename})
	}

	items := h.imageSvc.BatchUpload(c.Request.Context(), user.ID, inputs)
	response.Success(c, items, "批量上传处理完成")
}

// List 分页列出图片
// @Summary      图片列表
// @Tags         图片管理
// @Security     BearerAuth
// @Produce      json
// @Param        current  query  int     false  "页码"  default(1)
// @Param        size     query  int     false  "每页数量"  default(10)
// @Param        keyword  query  string  false  "标题/描述/文件名模糊搜索"
// @Param        tag_id   query  string  false  "按标签过滤"
// @Success      200  {object}  response.Response
// @Router       /images [get]
func (h *ImageHandler) List(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	current, _ := strconv.Atoi(c.DefaultQuery("current", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	result, err := h.imageSvc.List(c.Request.Context(), user.ID, image.ListQuery{
		TagID:   c.Query("tag_id"),
		Keyword: c.Query("keyword"),
		Current: current,
		Size:    size,
	})
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Success(c, result, "获取成功")
}

// Detail 返回图片详情并累加浏览次数
// @Summary      图片详情
// @Tags         图片管理
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "图片ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response  "图片不存在"
// @Router       /images/{id} [get]
func (h *ImageHandler) Detail(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	resp, err := h.imageSvc.GetDetail(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Success(c, resp, "获取成功")
}

// Update 修改标题、描述或替换标签集合
// @Summary      更新图片信息
// @Tags         图片管理
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "图片ID"
// @Param        body  body  model.UpdateImageRequest  true  "更新内容"
// @Success      200  {object}  response.Response
// @Router       /images/{id} [put]
func (h *ImageHandler) Update(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req model.UpdateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}

	resp, err := h.imageSvc.Update(c.Request.Context(), user.ID, c.Param("id"), &req)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Success(c, resp, "更新成功")
}

// Delete 软删除图片并清理物理文件
// @Summary      删除图片
// @Tags         图片管理
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "图片ID"
// @Success      200  {object}  response.Response
// @Router       /images/{id} [delete]
func (h *ImageHandler) Delete(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	if err := h.imageSvc.Delete(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Success(c, nil, "删除成功")
}

// BatchDelete 批量删除图片，单张失败不影响其余
// @Summary      批量删除图片
// @Tags         图片管理
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body  model.BatchDeleteRequest  true  "图片ID列表"
// @Success      200  {object}  response.Response  "处理完成"
// @Router       /images/batch-delete [delete]
func (h *ImageHandler) BatchDelete(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req model.BatchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}

	items := h.imageSvc.BatchDelete(c.Request.Context(), user.ID, req.IDs)
	response.Success(c, items, "批量删除处理完成")
}

// AddTag 给图片追加一个已有标签
// @Summary      添加图片标签
// @Tags         图片管理
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "图片ID"
// @Param        body  body  model.AddImageTagRequest  true  "标签ID"
// @Success      200  {object}  response.Response
// @Router       /images/{id}/tags [post]
func (h *ImageHandler) AddTag(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req model.AddImageTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}

	if err := h.imageSvc.AddTag(c.Request.Context(), user.ID, c.Param("id"), req.TagID); err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Success(c, nil, "添加成功")
}

// RemoveTag 解除图片与单个标签的关联
// @Summary      移除图片标签
// @Tags         图片管理
// @Security     BearerAuth
// @Produce      json
// @Param        id      path  string  true  "图片ID"
// @Param        tag_id  path  string  true  "标签ID"
// @Success      200  {object}  response.Response
// @Router       /images/{id}/tags/{tag_id} [delete]
func (h *ImageHandler) RemoveTag(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	if err := h.imageSvc.RemoveTag(c.Request.Context(), user.ID, c.Param("id"), c.Param("tag_id")); err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Success(c, nil, "移除成功")
}

// File 以附件形式返回原图文件内容，下载名用原始文件名
// @Summary      下载原图
// @Tags         图片管理
// @Security     BearerAuth
// @Produce      octet-stream
// @Param        id  path  string  true  "图片ID"
// @Router       /images/{id}/file [get]
func (h *ImageHandler) File(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	img, err := h.imageSvc.FindOwned(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	fullPath, err := h.blobStore.FullPath(img.FilePath)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.FileAttachment(fullPath, filepath.Base(img.FileName))
}

// Thumbnail 返回缩略图文件内容
// @Summary      获取缩略图
// @Tags         图片管理
// @Security     BearerAuth
// @Produce      octet-stream
// @Param        id  path  string  true  "图片ID"
// @Router       /images/{id}/thumbnail [get]
func (h *ImageHandler) Thumbnail(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	img, err := h.imageSvc.FindOwned(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	c.File(h.thumbGen.FullPath(img.ThumbnailPath))
}
