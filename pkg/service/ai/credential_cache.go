/*
 * @Description: 百度智能云 Access Token 凭证缓存
 * @Author: 张宇轩
 * @Date: 2025-09-07 09:15:33
 * @LastEditTime: 2025-12-19 10:08:21
 * @LastEditors: 张宇轩
 */
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/zyx-c/image-app/pkg/constant"
	"github.com/zyx-c/image-app/pkg/domain/model"
	"github.com/zyx-c/image-app/pkg/service/utility"
)

const (
	// tokenKeyPrefix 按用户维度缓存 token
	tokenKeyPrefix = "baidu:ai:access_token:user:"

	// 官方 token 有效期 30 天。提前 1 小时过期，
	// 并且缓存时长封顶 29 天，保证不会用到临期的 token。
	tokenSafetyMarginSeconds = 3600
	tokenMaxCacheSeconds     = 29 * 24 * 3600
)

// tokenResponse 是百度 OAuth 接口的响应体
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// CredentialCache 负责用凭证换取 Access Token 并缓存复用。
type CredentialCache struct {
	cache      utility.CacheService
	httpClient *http.Client
	tokenURL   string
}

// NewCredentialCache 是 CredentialCache 的构造函数
func NewCredentialCache(cache utility.CacheService, tokenURL string) *CredentialCache {
	return &CredentialCache{
		cache:      cache,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokenURL:   tokenURL,
	}
}

func tokenCacheKey(userID uint) string {
	return fmt.Sprintf("%s%d", tokenKeyPrefix, userID)
}

// computeTokenTTL 计算 token 的缓存时长（秒）。
// 取「提前一小时过期」与「29 天封顶」中较小的一个，
// 结果不为正说明 token 即将过期，不值得缓存。
func computeTokenTTL(expiresIn int64) int64 {
	ttl := expiresIn - tokenSafetyMarginSeconds
	if ttl > tokenMaxCacheSeconds {
		ttl = tokenMaxCacheSeconds
	}
	if ttl < 0 {
		ttl = 0
	}
	return ttl
}

// GetToken 返回用户可用的 Access Token，优先走缓存。
// 凭证未配置返回 ErrNotConfigured，换取失败返回 ErrExchangeFailed。
func (c *CredentialCache) GetToken(ctx context.Context, user *model.User) (string, error) {
	if user.BaiduAPIKey == "" || user.BaiduSecretKey == "" {
		return "", constant.ErrNotConfigured
	}

	key := tokenCacheKey(user.ID)
	if cached, err := c.cache.Get(ctx, key); err == nil && cached != "" {
		return cached, nil
	}

	token, expiresIn, err := c.exchange(ctx, user.BaiduAPIKey, user.BaiduSecretKey)
	if err != nil {
		return "", err
	}

	if ttl := computeTokenTTL(expiresIn); ttl > 0 {
		if err := c.cache.Set(ctx, key, token, time.Duration(ttl)*time.Second); err != nil {
			log.Printf("警告: 缓存用户 %d 的 Access Token 失败: %v", user.ID, err)
		}
	}
	return token, nil
}

// TestCredentials 验证一对凭证能否成功换取 token，用于配置页的连通性测试。
// 任何失败都只体现为 false，不向调用方抛错。
func (c *CredentialCache) TestCredentials(ctx context.Context, apiKey, secretKey string) bool {
	if apiKey == "" || secretKey == "" {
		return false
	}
	if _, _, err := c.exchange(ctx, apiKey, secretKey); err != nil {
		log.Printf("提示: 凭证连通性测试未通过: %v", err)
		return false
	}
	return true
}

// Invalidate 清掉用户缓存的 token，凭证更换后调用。
func (c *CredentialCache) Invalidate(ctx context.Context, userID uint) {
	if err := c.cache.Delete(ctx, tokenCacheKey(userID)); err != nil {
		log.Printf("警告: 清除用户 %d 的 Access Token 缓存失败: %v", userID, err)
	}
}

// exchange 以 client_credentials 模式调用 OAuth 接口换取 token
func (c *CredentialCache) exchange(ctx context.Context, apiKey, secretKey string) (string, int64, error) {
	params := url.Values{}
	params.Set("grant_type", "client_credentials")
	params.Set("client_id", apiKey)
	params.Set("client_secret", secretKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tokenURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", constant.ErrExchangeFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", constant.ErrExchangeFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("%w: 读取响应失败: %v", constant.ErrExchangeFailed, err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", 0, fmt.Errorf("%w: 响应解析失败: %v", constant.ErrExchangeFailed, err)
	}
	// 接口即使出错也可能返回 200，以响应体里的 error 字段为准
	if tr.Error != "" || tr.AccessToken == "" {
		return "", 0, fmt.Errorf("%w: %s %s", constant.ErrExchangeFailed, tr.Error, tr.ErrorDescription)
	}
	return tr.AccessToken, tr.ExpiresIn, nil
}
