package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/zyx-c/image-app/pkg/constant"
)

func TestStripDataURIPrefix(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"带jpeg前缀", "data:image/jpeg;base64,AAAA", "AAAA"},
		{"带png前缀", "data:image/png;base64,BBBB", "BBBB"},
		{"无前缀", "CCCC", "CCCC"},
		{"data开头但无逗号", "data:image/png", "data:image/png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripDataURIPrefix(tt.input); got != tt.want {
				t.Errorf("stripDataURIPrefix(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestVisionClient_ClassifyBytes_TooLarge(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	c := NewVisionClient(server.URL)
	huge := bytes.Repeat([]byte{0xFF}, maxRawImageBytes+1)

	_, err := c.ClassifyBytes(context.Background(), "tok", huge)
	if !errors.Is(err, constant.ErrPayloadTooLarge) {
		t.Fatalf("超限图片应返回 ErrPayloadTooLarge, got %v", err)
	}
	// 体积校验必须发生在发起网络请求之前
	if requests.Load() != 0 {
		t.Error("超限图片不应发起网络请求")
	}
}

func TestVisionClient_ClassifyBase64_TooLarge(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	c := NewVisionClient(server.URL)
	encoded := strings.Repeat("A", maxBase64ImageBytes+1)

	_, err := c.ClassifyBase64(context.Background(), "tok", encoded)
	if !errors.Is(err, constant.ErrPayloadTooLarge) {
		t.Fatalf("超限 base64 应返回 ErrPayloadTooLarge, got %v", err)
	}
	if requests.Load() != 0 {
		t.Error("超限 base64 不应发起网络请求")
	}
}

func TestVisionClient_ClassifyBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("fake-image"))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("应使用 POST, got %s", r.Method)
		}
		if r.URL.Query().Get("access_token") != "tok-1" {
			t.Errorf("access_token 未通过查询参数传递")
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("解析表单失败: %v", err)
		}
		if got := r.PostFormValue("image"); got != encoded {
			t.Errorf("表单 image 字段 = %q, want %q", got, encoded)
		}
		w.Write([]byte(`{"result":[
			{"keyword":"猫","score":0.92,"root":"动物-猫科"},
			{"keyword":"","score":0.5,"root":"无效"},
			{"keyword":"沙发","score":0.41,"root":"家居"}
		]}`))
	}))
	defer server.Close()

	c := NewVisionClient(server.URL)
	// data-URI 前缀应被剥掉后再提交
	results, err := c.ClassifyBase64(context.Background(), "tok-1", "data:image/png;base64,"+encoded)
	if err != nil {
		t.Fatalf("ClassifyBase64 失败: %v", err)
	}
	// 空 keyword 的条目被丢弃
	if len(results) != 2 {
		t.Fatalf("结果数 = %d, want 2", len(results))
	}
	if results[0].Keyword != "猫" || results[0].Score != 0.92 || results[0].Category != "动物-猫科" {
		t.Errorf("首条结果不符: %+v", results[0])
	}
}

func TestVisionClient_ClassifyPath(t *testing.T) {
	raw := []byte("fake-image-bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if got := r.PostFormValue("image"); got != base64.StdEncoding.EncodeToString(raw) {
			t.Errorf("表单 image 字段与文件内容不符")
		}
		w.Write([]byte(`{"result":[{"keyword":"猫","score":0.9,"root":"动物"}]}`))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "cat.jpg")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewVisionClient(server.URL)
	results, err := c.ClassifyPath(context.Background(), "tok", path)
	if err != nil {
		t.Fatalf("ClassifyPath 失败: %v", err)
	}
	if len(results) != 1 || results[0].Keyword != "猫" {
		t.Errorf("结果不符: %+v", results)
	}

	// 文件不存在
	_, err = c.ClassifyPath(context.Background(), "tok", filepath.Join(t.TempDir(), "不存在.jpg"))
	if !errors.Is(err, constant.ErrSourceMissing) {
		t.Errorf("缺失文件应返回 ErrSourceMissing, got %v", err)
	}
}

func TestVisionClient_Classify_ProviderError(t *testing.T) {
	// HTTP 200 但响应里带业务错误码
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error_code":110,"error_msg":"Access token invalid or no longer valid"}`))
	}))
	defer server.Close()

	c := NewVisionClient(server.URL)
	_, err := c.ClassifyBase64(context.Background(), "expired", "AAAA")
	if !errors.Is(err, constant.ErrClassificationFailed) {
		t.Fatalf("业务错误码应映射为 ErrClassificationFailed, got %v", err)
	}
}

func TestVisionClient_ClassifyURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if got := r.PostFormValue("url"); got != "https://example.com/cat.jpg" {
			t.Errorf("表单 url 字段 = %q", got)
		}
		w.Write([]byte(`{"result":[{"keyword":"猫","score":0.9,"root":"动物"}]}`))
	}))
	defer server.Close()

	c := NewVisionClient(server.URL)
	results, err := c.ClassifyURL(context.Background(), "tok", "https://example.com/cat.jpg")
	if err != nil {
		t.Fatalf("ClassifyURL 失败: %v", err)
	}
	if len(results) != 1 || results[0].Keyword != "猫" {
		t.Errorf("结果不符: %+v", results)
	}

	if _, err := c.ClassifyURL(context.Background(), "tok", ""); !errors.Is(err, constant.ErrInvalidInput) {
		t.Errorf("空URL应返回 ErrInvalidInput, got %v", err)
	}
}
