/*
 * @Description: 用户认证与百度智能云凭证配置服务
 * @Author: 张宇轩
 * @Date: 2025-09-10 15:08:42
 * @LastEditTime: 2025-12-22 11:27:19
 * @LastEditors: 张宇轩
 */
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"

	internalauth "github.com/zyx-c/image-app/internal/pkg/auth"
	"github.com/zyx-c/image-app/pkg/constant"
	"github.com/zyx-c/image-app/pkg/domain/model"
	"github.com/zyx-c/image-app/pkg/domain/repository"
	"github.com/zyx-c/image-app/pkg/idgen"
	"github.com/zyx-c/image-app/pkg/service/ai"
)

// maskPlaceholder 出现在提交值里表示"沿用已保存的密钥"
const maskPlaceholder = "****"

// Service 处理注册登录与按用户维度的 AI 凭证配置。
type Service struct {
	userRepo        repository.UserRepository
	tokenSvc        *internalauth.TokenService
	credentialCache *ai.CredentialCache
}

// NewService 是认证服务的构造函数
func NewService(userRepo repository.UserRepository, tokenSvc *internalauth.TokenService, credentialCache *ai.CredentialCache) *Service {
	return &Service{
		userRepo:        userRepo,
		tokenSvc:        tokenSvc,
		credentialCache: credentialCache,
	}
}

// Register 创建新用户，用户名冲突返回 ErrConflict。
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.UserResponse, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("密码加密失败: %w", err)
	}

	user := &model.User{
		Username: req.Username,
		Password: string(hashed),
		Email:    req.Email,
		Nickname: req.Nickname,
		Status:   model.UserStatusActive,
	}
	if user.Nickname == "" {
		user.Nickname = req.Username
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ 新用户 '%s' 注册成功 (ID: %d)", user.Username, user.ID)
	return toUserResponse(user), nil
}

// Login 校验凭证并签发令牌。用户不存在与密码错误统一返回 ErrUnauthorized。
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, constant.ErrNotFound) {
			return nil, fmt.Errorf("%w: 用户名或密码错误", constant.ErrUnauthorized)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: 用户名或密码错误", constant.ErrUnauthorized)
	}
	if user.Status != model.UserStatusActive {
		return nil, fmt.Errorf("%w: 账号已被禁用", constant.ErrForbidden)
	}

	resp := toUserResponse(user)
	token, err := s.tokenSvc.GenerateToken(resp.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, User: resp}, nil
}

// ResolveUser 把令牌里的公共ID还原为用户实体，中间件使用。
func (s *Service) ResolveUser(ctx context.Context, publicUserID string) (*model.User, error) {
	dbID, err := idgen.DecodePublicIDOfType(publicUserID, idgen.EntityTypeUser)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", constant.ErrInvalidToken, err)
	}
	return s.userRepo.FindByID(ctx, dbID)
}

// maskSecret 回显密钥时打码：足够长保留首尾各4位，否则全掩。
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) > 8 {
		return secret[:4] + maskPlaceholder + secret[len(secret)-4:]
	}
	return maskPlaceholder
}

// AiConfigStatus 凭证配置的回显结构
type AiConfigStatus struct {
	Configured bool   `json:"configured"`
	APIKey     string `json:"api_key"`
	SecretKey  string `json:"secret_key"`
}

// GetAiConfig 回显用户的凭证配置，密钥永远打码。
func (s *Service) GetAiConfig(ctx context.Context, userID uint) (*AiConfigStatus, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &AiConfigStatus{
		Configured: user.BaiduAPIKey != "" && user.BaiduSecretKey != "",
		APIKey:     maskSecret(user.BaiduAPIKey),
		SecretKey:  maskSecret(user.BaiduSecretKey),
	}, nil
}

// resolveSubmitted 提交值带掩码占位符时沿用已保存的值
func resolveSubmitted(submitted, stored string) string {
	if submitted == "" || strings.Contains(submitted, maskPlaceholder) {
		return stored
	}
	return submitted
}

// SaveAiConfig 保存用户的百度智能云凭证。
// 含掩码的提交值视为未修改；保存成功后使缓存的 token 失效。
func (s *Service) SaveAiConfig(ctx context.Context, userID uint, req *model.AiConfigRequest) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	apiKey := resolveSubmitted(req.APIKey, user.BaiduAPIKey)
	secretKey := resolveSubmitted(req.SecretKey, user.BaiduSecretKey)
	if apiKey == "" || secretKey == "" {
		return constant.ErrNotConfigured
	}

	user.BaiduAPIKey = apiKey
	user.BaiduSecretKey = secretKey
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	s.credentialCache.Invalidate(ctx, userID)
	log.Printf("✅ 用户 %d 的百度智能云凭证已更新", userID)
	return nil
}

// TestAiConfig 用提交的（或已保存的）凭证做一次连通性测试。
// 凭证不通过只体现为 false，不算请求失败。
func (s *Service) TestAiConfig(ctx context.Context, userID uint, req *model.AiConfigRequest) (bool, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	apiKey := resolveSubmitted(req.APIKey, user.BaiduAPIKey)
	secretKey := resolveSubmitted(req.SecretKey, user.BaiduSecretKey)
	return s.credentialCache.TestCredentials(ctx, apiKey, secretKey), nil
}

func toUserResponse(user *model.User) *model.UserResponse {
	publicID, err := idgen.GeneratePublicID(user.ID, idgen.EntityTypeUser)
	if err != nil {
		log.Printf("警告: 生成用户 %d 的公共ID失败: %v", user.ID, err)
	}
	return &model.UserResponse{
		ID:        publicID,
		Username:  user.Username,
		Email:     user.Email,
		Nickname:  user.Nickname,
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt,
	}
}
