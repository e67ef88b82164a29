package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	internalauth "github.com/zyx-c/image-app/internal/pkg/auth"
	"github.com/zyx-c/image-app/pkg/constant"
	"github.com/zyx-c/image-app/pkg/domain/model"
	"github.com/zyx-c/image-app/pkg/idgen"
	"github.com/zyx-c/image-app/pkg/service/ai"
	"github.com/zyx-c/image-app/pkg/service/utility"
)

func TestMain(m *testing.M) {
	if err := idgen.InitSqidsEncoder(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeUserRepo struct {
	nextID uint
	users  map[uint]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[uint]*model.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *model.User) error {
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return fmt.Errorf("%w: 用户名 '%s'", constant.ErrConflict, u.Username)
		}
	}
	u.ID = f.nextID
	f.nextID++
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uint) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("%w: 用户 %d", constant.ErrNotFound, id)
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: 用户 '%s'", constant.ErrNotFound, username)
}

func (f *fakeUserRepo) Update(ctx context.Context, u *model.User) error {
	f.users[u.ID] = u
	return nil
}

func newTestService(tokenURL string) (*Service, *fakeUserRepo) {
	repo := newFakeUserRepo()
	tokenSvc := internalauth.NewTokenService("test-secret")
	cache := ai.NewCredentialCache(utility.NewMemoryCacheService(), tokenURL)
	return NewService(repo, tokenSvc, cache), repo
}

func TestService_RegisterAndLogin(t *testing.T) {
	svc, _ := newTestService("http://unused")
	ctx := context.Background()

	resp, err := svc.Register(ctx, &model.RegisterRequest{Username: "zhangsan", Password: "secret123"})
	if err != nil {
		t.Fatalf("Register 失败: %v", err)
	}
	if resp.ID == "" || resp.Nickname != "zhangsan" {
		t.Errorf("注册响应不符: %+v", resp)
	}

	// 重复注册冲突
	if _, err := svc.Register(ctx, &model.RegisterRequest{Username: "zhangsan", Password: "other"}); !errors.Is(err, constant.ErrConflict) {
		t.Errorf("重复用户名应返回 ErrConflict, got %v", err)
	}

	login, err := svc.Login(ctx, &model.LoginRequest{Username: "zhangsan", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login 失败: %v", err)
	}
	if login.Token == "" {
		t.Error("登录应签发令牌")
	}

	// 密码错误与用户不存在都是 401
	if _, err := svc.Login(ctx, &model.LoginRequest{Username: "zhangsan", Password: "wrong"}); !errors.Is(err, constant.ErrUnauthorized) {
		t.Errorf("密码错误应返回 ErrUnauthorized, got %v", err)
	}
	if _, err := svc.Login(ctx, &model.LoginRequest{Username: "nobody", Password: "x"}); !errors.Is(err, constant.ErrUnauthorized) {
		t.Errorf("用户不存在应返回 ErrUnauthorized, got %v", err)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"长密钥保留首尾", "abcdefghijkl", "abcd****ijkl"},
		{"短密钥全掩", "abc", "****"},
		{"刚好8位全掩", "12345678", "****"},
		{"空值", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maskSecret(tt.input); got != tt.want {
				t.Errorf("maskSecret(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestService_AiConfig_MaskRoundTrip(t *testing.T) {
	svc, repo := newTestService("http://unused")
	ctx := context.Background()

	user := &model.User{Username: "u", Password: "p", Status: model.UserStatusActive}
	repo.Create(ctx, user)

	// 首次保存明文凭证
	if err := svc.SaveAiConfig(ctx, user.ID, &model.AiConfigRequest{
		APIKey:    "AKIAEXAMPLE12345",
		SecretKey: "sk-verysecretvalue",
	}); err != nil {
		t.Fatalf("SaveAiConfig 失败: %v", err)
	}

	status, err := svc.GetAiConfig(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !status.Configured {
		t.Error("保存后应为已配置状态")
	}
	if status.APIKey == "AKIAEXAMPLE12345" {
		t.Error("回显的密钥不应是明文")
	}

	// 把打码后的值原样提交回来，存储值应保持不变
	if err := svc.SaveAiConfig(ctx, user.ID, &model.AiConfigRequest{
		APIKey:    status.APIKey,
		SecretKey: status.SecretKey,
	}); err != nil {
		t.Fatalf("回存打码值失败: %v", err)
	}
	if user.BaiduAPIKey != "AKIAEXAMPLE12345" || user.BaiduSecretKey != "sk-verysecretvalue" {
		t.Errorf("打码值回存不应覆盖明文: (%q, %q)", user.BaiduAPIKey, user.BaiduSecretKey)
	}
}

func TestService_SaveAiConfig_Empty(t *testing.T) {
	svc, repo := newTestService("http://unused")
	ctx := context.Background()

	user := &model.User{Username: "u", Password: "p"}
	repo.Create(ctx, user)

	if err := svc.SaveAiConfig(ctx, user.ID, &model.AiConfigRequest{}); !errors.Is(err, constant.ErrNotConfigured) {
		t.Errorf("空凭证应返回 ErrNotConfigured, got %v", err)
	}
}

func TestService_TestAiConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok","expires_in":2592000}`))
	}))
	defer server.Close()

	svc, repo := newTestService(server.URL)
	ctx := context.Background()

	user := &model.User{Username: "u", Password: "p", BaiduAPIKey: "stored-ak-123", BaiduSecretKey: "stored-sk-456"}
	repo.Create(ctx, user)

	// 提交打码值时用已保存的凭证测试
	ok, err := svc.TestAiConfig(ctx, user.ID, &model.AiConfigRequest{APIKey: "stor****-123", SecretKey: "****"})
	if err != nil || !ok {
		t.Errorf("连通性测试应通过: (%v, %v)", ok, err)
	}
}

func TestService_TestAiConfig_InvalidIsNotError(t *testing.T) {
	// 换取失败只体现为 valid=false，不是请求失败
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"invalid_client","error_description":"unknown client id"}`))
	}))
	defer server.Close()

	svc, repo := newTestService(server.URL)
	ctx := context.Background()

	user := &model.User{Username: "u", Password: "p", BaiduAPIKey: "bad-ak", BaiduSecretKey: "bad-sk"}
	repo.Create(ctx, user)

	ok, err := svc.TestAiConfig(ctx, user.ID, &model.AiConfigRequest{})
	if err != nil {
		t.Fatalf("无效凭证不应返回错误: %v", err)
	}
	if ok {
		t.Error("无效凭证应测试不通过")
	}

	// 未配置凭证同样只是不通过
	bare := &model.User{Username: "v", Password: "p"}
	repo.Create(ctx, bare)
	ok, err = svc.TestAiConfig(ctx, bare.ID, &model.AiConfigRequest{})
	if err != nil || ok {
		t.Errorf("未配置凭证应返回 (false, nil), got (%v, %v)", ok, err)
	}
}
