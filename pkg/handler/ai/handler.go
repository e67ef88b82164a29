/*
 * @Description: AI 图像识别与凭证配置的控制器
 * @Author: 张宇轩
 * @Date: 2025-09-12 15:10:52
 * @LastEditTime: 2025-12-23 14:47:25
 * @LastEditors: 张宇轩
 */
package ai_handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zyx-c/image-app/internal/app/middleware"
	"github.com/zyx-c/image-app/internal/infra/storage"
	"github.com/zyx-c/image-app/pkg/domain/model"
	"github.com/zyx-c/image-app/pkg/response"
	"github.com/zyx-c/image-app/pkg/service/ai"
	"github.com/zyx-c/image-app/pkg/service/auth"
	"github.com/zyx-c/image-app/pkg/service/image"
	"github.com/zyx-c/image-app/pkg/service/tag"
)

// AiHandler 封装了识别与凭证配置相关的控制器方法
type AiHandler struct {
	authSvc      *auth.Service
	credCache    *ai.CredentialCache
	visionClient *ai.VisionClient
	tagSvc       *tag.Service
	imageSvc     *image.Service
	blobStore    storage.BlobStore
}

// NewAiHandler 是 AiHandler 的构造函数
func NewAiHandler(
	authSvc *auth.Service,
	credCache *ai.CredentialCache,
	visionClient *ai.VisionClient,
	tagSvc *tag.Service,
	imageSvc *image.Service,
	blobStore storage.BlobStore,
) *AiHandler {
	return &AiHandler{
		authSvc:      authSvc,
		credCache:    credCache,
		visionClient: visionClient,
		tagSvc:       tagSvc,
		imageSvc:     imageSvc,
		blobStore:    blobStore,
	}
}

// Status 返回当前用户的 AI 功能可用状态
// @Summary      AI 功能状态
// @Tags         AI识别
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /ai/status [get]
func (h *AiHandler) Status(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	response.Success(c, gin.H{
		"configured": user.BaiduAPIKey != "" && user.BaiduSecretKey != "",
	}, "获取成功")
}

// GetConfig 回显凭证配置，密钥打码
// @Summary      获取凭证配置
// @Tags         AI识别
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /ai/config [get]
func (h *AiHandler) GetConfig(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	status, err := h.authSvc.GetAiConfig(c.Request.Context(), user.ID)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Success(c, status, "获取成功")
}

// SaveConfig 保存凭证，打码值表示沿用已保存的密钥
// @Summary      保存凭证配置
// @Tags         AI识别
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body  model.AiConfigRequest  true  "凭证"
// @Success      200  {object}  response.Response
// @Router       /ai/config [post]
func (h *AiHandler) SaveConfig(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req model.AiConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}

	if err := h.authSvc.SaveAiConfig(c.Request.Context(), user.ID, &req); err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Success(c, nil, "保存成功")
}

// TestConfig 用提交的（或已保存的）凭证做连通性测试
// @Summary      测试凭证
// @Tags         AI识别
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body  model.AiConfigRequest  true  "凭证（可带打码值）"
// @Success      200  {object}  response.Response
// @Router       /ai/config/test [post]
func (h *AiHandler) TestConfig(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req model.AiConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}

	ok, err := h.authSvc.TestAiConfig(c.Request.Context(), user.ID, &req)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Success(c, gin.H{"valid": ok}, "测试完成")
}

// AnalyzeUpload 对上传的图片做识别，不入库
// @Summary      识别上传图片
// @Tags         AI识别
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "图片文件"
// @Success      200  {object}  response.Response
// @Failure      413  {object}  response.Response  "图片太大"
// @Router       /ai/analyze [post]
func (h *AiHandler) AnalyzeUpload(c *gin.Context) {
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

	data, err := io.ReadAll(file)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "读取文件内容失败: "+err.Error())
		return
	}

	results, err := h.classifyBytes(c, user, data)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Success(c, results, "识别完成")
}

// AnalyzeStored 对已入库的图片做识别，不落标签
// @Summary      识别已入库图片
// @Tags         AI识别
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "图片ID"
// @Success      200  {object}  response.Response
// @Router       /ai/analyze/{id} [post]
func (h *AiHandler) AnalyzeStored(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	img, err := h.imageSvc.FindOwned(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		response.FailWithError(c, err)
		return
	}

	results, err := h.classifyStored(c, user, img.FilePath)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Success(c, results, "识别完成")
}

// AnalyzeAndTag 识别已入库图片并把达到阈值的结果落为标签
// @Summary      识别并打标
// @Tags         AI识别
// @Security     BearerAuth
// @Produce      json
// @Param        id         path   string  true   "图片ID"
// @Param        min_score  query  number  false  "置信度阈值(0-1]"  default(0.5)
// @Success      200  {object}  response.Response
// @Router       /ai/analyze-and-tag/{id} [post]
func (h *AiHandler) AnalyzeAndTag(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	img, err := h.imageSvc.FindOwned(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		response.FailWithError(c, err)
		return
	}

	results, err := h.classifyStored(c, user, img.FilePath)
	if err != nil {
		response.FailWithError(c, err)
		return
	}

	// 参数缺省时用默认阈值；显式传 0 表示全部落库
	minScore := tag.DefaultMinScore
	if raw := c.Query("min_score"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			minScore = parsed
		}
	}
	applied, err := h.tagSvc.ApplyResults(c.Request.Context(), user.ID, img.ID, results, minScore)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Success(c, applied, "识别并打标完成")
}

// AnalyzeURL 按图片 URL 做识别，图片由百度侧拉取
// @Summary      识别网络图片
// @Tags         AI识别
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body  object{url=string}  true  "图片URL"
// @Success      200  {object}  response.Response
// @Router       /ai/analyze-url [post]
func (h *AiHandler) AnalyzeURL(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}

	token, err := h.credCache.GetToken(c.Request.Context(), user)
	if err != nil {
		response.FailWithError(c, err)
		return
	}

	results, err := h.visionClient.ClassifyURL(c.Request.Context(), token, req.URL)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Success(c, results, "识别完成")
}

// classifyBytes 取 token 后对原始字节做识别
func (h *AiHandler) classifyBytes(c *gin.Context, user *model.User, data []byte) ([]*model.AiTagResult, error) {
	token, err := h.credCache.GetToken(c.Request.Context(), user)
	if err != nil {
		return nil, err
	}
	return h.visionClient.ClassifyBytes(c.Request.Context(), token, data)
}

// classifyStored 把存储的相对路径解析为绝对路径后走文件识别入口
func (h *AiHandler) classifyStored(c *gin.Context, user *model.User, relativePath string) ([]*model.AiTagResult, error) {
	token, err := h.credCache.GetToken(c.Request.Context(), user)
	if err != nil {
		return nil, err
	}
	fullPath, err := h.blobStore.FullPath(relativePath)
	if err != nil {
		return nil, err
	}
	return h.visionClient.ClassifyPath(c.Request.Context(), token, fullPath)
}
