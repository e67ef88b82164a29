/*
 * @Description: 标签管理的控制器
 * @Author: 张宇轩
 * @Date: 2025-09-12 11:35:26
 * @LastEditTime: 2025-12-23 11:20:31
 * @LastEditors: 张宇轩
 */
package tag_handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zyx-c/image-app/internal/app/middleware"
	"github.com/zyx-c/image-app/pkg/constant"
	"github.com/zyx-c/image-app/pkg/domain/model"
	"github.com/zyx-c/image-app/pkg/idgen"
	"github.com/zyx-c/image-app/pkg/response"
	"github.com/zyx-c/image-app/pkg/service/image"
	"github.com/zyx-c/image-app/pkg/service/tag"
)

// TagHandler 封装了标签相关的控制器方法
type TagHandler struct {
	tagSvc   *tag.Service
	imageSvc *image.Service
}

// NewTagHandler 是 TagHandler 的构造函数
func NewTagHandler(tagSvc *tag.Service, imageSvc *image.Service) *TagHandler {
	return &TagHandler{tagSvc: tagSvc, imageSvc: imageSvc}
}

// Create 创建自定义标签，同名标签已存在时返回已有的
// @Summary      创建标签
// @Tags         标签管理
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body  model.CreateTagRequest  true  "标签信息"
// @Success      200  {object}  response.Response
// @Router       /tags [post]
func (h *TagHandler) Create(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req model.CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}

	resp, err := h.tagSvc.CreateTag(c.Request.Context(), user.ID, req.TagName)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Success(c, resp, "创建成功")
}

// List 列出当前用户的标签
// @Summary      标签列表
// @Tags         标签管理
// @Security     BearerAuth
// @Produce      json
// @Param        keyword  query  string  false  "名称模糊过滤"
// @Success      200  {object}  response.Response
// @Router       /tags [get]
func (h *TagHandler) List(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	tags, err := h.tagSvc.ListTags(c.Request.Context(), user.ID, c.Query("keyword"))
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Success(c, tags, "获取成功")
}

// Rename 重命名标签
// @Summary      重命名标签
// @Tags         标签管理
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "标签ID"
// @Param        body  body  model.UpdateTagRequest  true  "新名称"
// @Success      200  {object}  response.Response
// @Router       /tags/{id} [put]
func (h *TagHandler) Rename(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req model.UpdateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}

	tagID, err := idgen.DecodePublicIDOfType(c.Param("id"), idgen.EntityTypeTag)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, constant.ErrInvalidInput.Error())
		return
	}

	resp, err := h.tagSvc.RenameTag(c.Request.Context(), user.ID, tagID, req.TagName)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Success(c, resp, "重命名成功")
}

// Delete 删除标签并解除所有图片关联
// @Summary      删除标签
// @Tags         标签管理
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "标签ID"
// @Success      200  {object}  response.Response
// @Router       /tags/{id} [delete]
func (h *TagHandler) Delete(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	tagID, err := idgen.DecodePublicIDOfType(c.Param("id"), idgen.EntityTypeTag)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, constant.ErrInvalidInput.Error())
		return
	}

	if err := h.tagSvc.DeleteTag(c.Request.Context(), user.ID, tagID); err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Success(c, nil, "删除成功")
}

// Images 分页列出带有该标签的图片
// @Summary      标签下的图片
// @Tags         标签管理
// @Security     BearerAuth
// @Produce      json
// @Param        id       path   string  true   "标签ID"
// @Param        current  query  int     false  "页码"  default(1)
// @Param        size     query  int     false  "每页数量"  default(10)
// @Success      200  {object}  response.Response
// @Router       /tags/{id}/images [get]
func (h *TagHandler) Images(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	current, _ := strconv.Atoi(c.DefaultQuery("current", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	result, err := h.imageSvc.List(c.Request.Context(), user.ID, image.ListQuery{
		TagID:   c.Param("id"),
		Current: current,
		Size:    size,
	})
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Success(c, result, "获取成功")
}
