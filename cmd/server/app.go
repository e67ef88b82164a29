/*
 * @Description: 应用装配与启动
 * @Author: 张宇轩
 * @Date: 2025-09-13 14:20:36
 * @LastEditTime: 2025-12-24 09:51:02
 * @LastEditors: 张宇轩
 */
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/zyx-c/image-app/internal/app/middleware"
	"github.com/zyx-c/image-app/internal/infra/persistence/database"
	"github.com/zyx-c/image-app/internal/infra/persistence/repo"
	"github.com/zyx-c/image-app/internal/infra/router"
	"github.com/zyx-c/image-app/internal/infra/storage"
	internalauth "github.com/zyx-c/image-app/internal/pkg/auth"
	"github.com/zyx-c/image-app/pkg/config"
	ai_handler "github.com/zyx-c/image-app/pkg/handler/ai"
	auth_handler "github.com/zyx-c/image-app/pkg/handler/auth"
	image_handler "github.com/zyx-c/image-app/pkg/handler/image"
	tag_handler "github.com/zyx-c/image-app/pkg/handler/tag"
	"github.com/zyx-c/image-app/pkg/idgen"
	"github.com/zyx-c/image-app/pkg/service/ai"
	auth_service "github.com/zyx-c/image-app/pkg/service/auth"
	"github.com/zyx-c/image-app/pkg/service/exif"
	image_service "github.com/zyx-c/image-app/pkg/service/image"
	tag_service "github.com/zyx-c/image-app/pkg/service/tag"
	"github.com/zyx-c/image-app/pkg/service/thumbnail"
	"github.com/zyx-c/image-app/pkg/service/utility"
)

// Run 完成全部依赖装配并启动 HTTP 服务，阻塞到收到退出信号。
func Run() error {
	// 1. 配置与基础设施
	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	if err := idgen.InitSqidsEncoder(); err != nil {
		return fmt.Errorf("初始化ID编码器失败: %w", err)
	}

	db, driverName, err := database.NewSQLDB(cfg)
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.Migrate(ctx, db, driverName); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	// Redis 可选，不可用时自动降级到内存缓存
	var redisClient *redis.Client
	if addr := cfg.GetString(config.KeyRedisAddr); addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.GetString(config.KeyRedisPassword),
			DB:       cfg.GetInt(config.KeyRedisDB),
		})
	}
	cacheSvc := utility.NewCacheServiceWithFallback(redisClient)

	// 2. 存储与处理组件
	uploadDir := cfg.GetStringOrDefault(config.KeyUploadDir, "data/uploads")
	thumbnailDir := cfg.GetStringOrDefault(config.KeyThumbnailDir, "data/uploads/thumbnails")

	blobStore, err := storage.NewLocalBlobStore(uploadDir)
	if err != nil {
		return fmt.Errorf("初始化本地存储失败: %w", err)
	}
	thumbGen := thumbnail.NewGenerator(uploadDir, thumbnailDir)
	extractor := exif.NewExtractor()

	// 3. 仓储
	userRepo := repo.NewUserRepository(db, driverName)
	imageRepo := repo.NewImageRepository(db, driverName)
	tagRepo := repo.NewTagRepository(db, driverName)
	imageTagRepo := repo.NewImageTagRepository(db, driverName)

	// 4. 服务
	jwtSecret := cfg.GetString(config.KeyJWTSecret)
	if jwtSecret == "" {
		// 未配置时生成随机密钥，重启后旧令牌全部失效
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("生成JWT密钥失败: %w", err)
		}
		jwtSecret = hex.EncodeToString(buf)
		log.Println("警告: 未配置 Security.JWTSecret，已生成临时密钥，服务重启后所有登录态将失效")
	}
	tokenSvc := internalauth.NewTokenService(jwtSecret)

	tokenURL := cfg.GetStringOrDefault(config.KeyBaiduTokenURL,
		"https://aip.baidubce.com/oauth/2.0/token")
	classifyURL := cfg.GetStringOrDefault(config.KeyBaiduClassifyURL,
		"https://aip.baidubce.com/rest/2.0/image-classify/v2/advanced_general")

	credCache := ai.NewCredentialCache(cacheSvc, tokenURL)
	visionClient := ai.NewVisionClient(classifyURL)

	authSvc := auth_service.NewService(userRepo, tokenSvc, credCache)
	tagSvc := tag_service.NewService(tagRepo, imageTagRepo)
	imageSvc := image_service.NewService(imageRepo, imageTagRepo, tagRepo, tagSvc, blobStore, thumbGen, extractor)

	// 5. 处理器与路由
	mw := middleware.NewMiddleware(tokenSvc, authSvc)
	appRouter := router.NewRouter(
		auth_handler.NewAuthHandler(authSvc),
		image_handler.NewImageHandler(imageSvc, blobStore, thumbGen),
		tag_handler.NewTagHandler(tagSvc, imageSvc),
		ai_handler.NewAiHandler(authSvc, credCache, visionClient, tagSvc, imageSvc, blobStore),
		mw,
	)

	if !cfg.GetBool(config.KeyServerDebug) {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.Default()
	// 批量上传可能一次带多张原图
	engine.MaxMultipartMemory = 32 << 20
	appRouter.Register(engine)

	port := cfg.GetStringOrDefault(config.KeyServerPort, "8093")
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      engine,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	// 6. 启动与优雅退出
	errCh := make(chan error, 1)
	go func() {
		log.Printf("✅ 服务已启动，监听端口 %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP服务异常退出: %w", err)
	case sig := <-quit:
		log.Printf("收到信号 %v，开始优雅关闭...", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("优雅关闭失败: %w", err)
	}
	log.Println("✅ 服务已退出")
	return nil
}
