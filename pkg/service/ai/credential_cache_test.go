package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/zyx-c/image-app/pkg/constant"
	"github.com/zyx-c/image-app/pkg/domain/model"
	"github.com/zyx-c/image-app/pkg/service/utility"
)

func TestComputeTokenTTL(t *testing.T) {
	tests := []struct {
		name      string
		expiresIn int64
		want      int64
	}{
		{"官方30天有效期封顶到29天", 2592000, 2505600},
		{"短有效期提前一小时", 7200, 3600},
		{"不足一小时不缓存", 1800, 0},
		{"刚好一小时不缓存", 3600, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeTokenTTL(tt.expiresIn); got != tt.want {
				t.Errorf("computeTokenTTL(%d) = %d, want %d", tt.expiresIn, got, tt.want)
			}
		})
	}
}

func TestCredentialCache_GetToken_NotConfigured(t *testing.T) {
	c := NewCredentialCache(utility.NewMemoryCacheService(), "http://unused")
	user := &model.User{ID: 1}

	if _, err := c.GetToken(context.Background(), user); !errors.Is(err, constant.ErrNotConfigured) {
		t.Errorf("未配置凭证应返回 ErrNotConfigured, got %v", err)
	}
}

func TestCredentialCache_GetToken_CachesAcrossCalls(t *testing.T) {
	var exchanges atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		if r.URL.Query().Get("grant_type") != "client_credentials" {
			t.Errorf("grant_type 错误: %s", r.URL.Query().Get("grant_type"))
		}
		if r.URL.Query().Get("client_id") != "ak" || r.URL.Query().Get("client_secret") != "sk" {
			t.Error("凭证未正确传递")
		}
		w.Write([]byte(`{"access_token":"tok-123","expires_in":2592000}`))
	}))
	defer server.Close()

	c := NewCredentialCache(utility.NewMemoryCacheService(), server.URL)
	user := &model.User{ID: 7, BaiduAPIKey: "ak", BaiduSecretKey: "sk"}

	for i := 0; i < 3; i++ {
		token, err := c.GetToken(context.Background(), user)
		if err != nil {
			t.Fatalf("第 %d 次 GetToken 失败: %v", i+1, err)
		}
		if token != "tok-123" {
			t.Errorf("token = %q, want tok-123", token)
		}
	}
	if n := exchanges.Load(); n != 1 {
		t.Errorf("三次取 token 应只换取一次, 实际 %d 次", n)
	}
}

func TestCredentialCache_GetToken_ExchangeError(t *testing.T) {
	// 接口返回 200 但带 error 字段
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"invalid_client","error_description":"unknown client id"}`))
	}))
	defer server.Close()

	c := NewCredentialCache(utility.NewMemoryCacheService(), server.URL)
	user := &model.User{ID: 2, BaiduAPIKey: "bad", BaiduSecretKey: "bad"}

	_, err := c.GetToken(context.Background(), user)
	if !errors.Is(err, constant.ErrExchangeFailed) {
		t.Fatalf("应返回 ErrExchangeFailed, got %v", err)
	}
}

func TestCredentialCache_Invalidate(t *testing.T) {
	var exchanges atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		w.Write([]byte(`{"access_token":"tok","expires_in":2592000}`))
	}))
	defer server.Close()

	c := NewCredentialCache(utility.NewMemoryCacheService(), server.URL)
	user := &model.User{ID: 3, BaiduAPIKey: "ak", BaiduSecretKey: "sk"}
	ctx := context.Background()

	c.GetToken(ctx, user)
	c.Invalidate(ctx, user.ID)
	c.GetToken(ctx, user)

	if n := exchanges.Load(); n != 2 {
		t.Errorf("失效后应重新换取, 实际换取 %d 次", n)
	}
}

func TestCredentialCache_TestCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("client_id") == "good" {
			w.Write([]byte(`{"access_token":"tok","expires_in":2592000}`))
			return
		}
		w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer server.Close()

	c := NewCredentialCache(utility.NewMemoryCacheService(), server.URL)
	ctx := context.Background()

	if !c.TestCredentials(ctx, "good", "sk") {
		t.Error("有效凭证应测试通过")
	}
	// 换取失败只体现为 false，不向上抛错
	if c.TestCredentials(ctx, "bad", "sk") {
		t.Error("无效凭证不应测试通过")
	}
	if c.TestCredentials(ctx, "", "") {
		t.Error("空凭证不应测试通过")
	}
}

func TestCredentialCache_TestCredentials_Unreachable(t *testing.T) {
	// 服务端不可达同样只体现为 false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := NewCredentialCache(utility.NewMemoryCacheService(), server.URL)
	if c.TestCredentials(context.Background(), "ak", "sk") {
		t.Error("服务端不可达时不应测试通过")
	}
}
