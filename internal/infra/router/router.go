/*
 * @Description: 应用路由注册
 * @Author: 张宇轩
 * @Date: 2025-09-13 10:02:18
 * @LastEditTime: 2025-12-23 16:30:47
 * @LastEditors: 张宇轩
 */
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/zyx-c/image-app/internal/app/middleware"
	ai_handler "github.com/zyx-c/image-app/pkg/handler/ai"
	auth_handler "github.com/zyx-c/image-app/pkg/handler/auth"
	image_handler "github.com/zyx-c/image-app/pkg/handler/image"
	tag_handler "github.com/zyx-c/image-app/pkg/handler/tag"
)

// Router 封装了应用的所有路由和其依赖的处理器。
type Router struct {
	authHandler  *auth_handler.AuthHandler
	imageHandler *image_handler.ImageHandler
	tagHandler   *tag_handler.TagHandler
	aiHandler    *ai_handler.AiHandler
	mw           *middleware.Middleware
}

// NewRouter 是 Router 的构造函数，通过依赖注入接收所有处理器。
func NewRouter(
	authHandler *auth_handler.AuthHandler,
	imageHandler *image_handler.ImageHandler,
	tagHandler *tag_handler.TagHandler,
	aiHandler *ai_handler.AiHandler,
	mw *middleware.Middleware,
) *Router {
	return &Router{
		authHandler:  authHandler,
		imageHandler: imageHandler,
		tagHandler:   tagHandler,
		aiHandler:    aiHandler,
		mw:           mw,
	}
}

// Register 在给定的 gin 引擎上挂载全部路由
func (r *Router) Register(engine *gin.Engine) {
	engine.Use(middleware.Cors())

	api := engine.Group("/api")

	// 无需登录的认证入口
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", r.authHandler.Register)
		authGroup.POST("/login", r.authHandler.Login)
		authGroup.GET("/profile", r.mw.JWTAuth(), r.authHandler.Profile)
	}

	// 图片管理
	imageGroup := api.Group("/images", r.mw.JWTAuth())
	{
		imageGroup.POST("", r.imageHandler.Upload)
		imageGroup.POST("/batch", r.imageHandler.BatchUpload)
		imageGroup.GET("", r.imageHandler.List)
		imageGroup.GET("/:id", r.imageHandler.Detail)
		imageGroup.PUT("/:id", r.imageHandler.Update)
		imageGroup.DELETE("/:id", r.imageHandler.Delete)
		imageGroup.DELETE("/batch-delete", r.imageHandler.BatchDelete)
		imageGroup.GET("/:id/file", r.imageHandler.File)
		imageGroup.GET("/:id/thumbnail", r.imageHandler.Thumbnail)
		imageGroup.POST("/:id/tags", r.imageHandler.AddTag)
		imageGroup.DELETE("/:id/tags/:tag_id", r.imageHandler.RemoveTag)
	}

	// 标签管理
	tagGroup := api.Group("/tags", r.mw.JWTAuth())
	{
		tagGroup.POST("", r.tagHandler.Create)
		tagGroup.GET("", r.tagHandler.List)
		tagGroup.PUT("/:id", r.tagHandler.Rename)
		tagGroup.DELETE("/:id", r.tagHandler.Delete)
		tagGroup.GET("/:id/images", r.tagHandler.Images)
	}

	// AI 识别。识别调用消耗外部配额，单独限流。
	aiGroup := api.Group("/ai", r.mw.JWTAuth())
	{
		aiGroup.GET("/status", r.aiHandler.Status)
		aiGroup.GET("/config", r.aiHandler.GetConfig)
		aiGroup.POST("/config", r.aiHandler.SaveConfig)
		aiGroup.POST("/config/test", r.aiHandler.TestConfig)

		analyze := aiGroup.Group("", middleware.AiAnalyzeRateLimit())
		{
			analyze.POST("/analyze", r.aiHandler.AnalyzeUpload)
			analyze.POST("/analyze/:id", r.aiHandler.AnalyzeStored)
			analyze.POST("/analyze-and-tag/:id", r.aiHandler.AnalyzeAndTag)
			analyze.POST("/analyze-url", r.aiHandler.AnalyzeURL)
		}
	}
}
