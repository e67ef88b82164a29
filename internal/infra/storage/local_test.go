package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"image"
	"image/png"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// tinyPNG 生成一张 2x3 的有效 PNG 图片字节
func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("生成测试PNG失败: %v", err)
	}
	return buf.Bytes()
}

func newTestStore(t *testing.T) *LocalBlobStore {
	t.Helper()
	s, err := NewLocalBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("创建存储失败: %v", err)
	}
	return s
}

func TestLocalBlobStore_Store(t *testing.T) {
	s := newTestStore(t)
	data := tinyPNG(t)

	result, err := s.Store(context.Background(), bytes.NewReader(data), "照片.PNG")
	if err != nil {
		t.Fatalf("Store 失败: %v", err)
	}

	// 相对路径形如 2026/08/27/<uuid>.png
	pattern := regexp.MustCompile(`^\d{4}/\d{2}/\d{2}/[0-9a-f-]{36}\.png$`)
	if !pattern.MatchString(result.RelativePath) {
		t.Errorf("相对路径格式不符合日期分桶约定: %s", result.RelativePath)
	}
	if result.Size != int64(len(data)) {
		t.Errorf("大小不一致: got %d, want %d", result.Size, len(data))
	}
	if result.Width != 2 || result.Height != 3 {
		t.Errorf("尺寸检测错误: got %dx%d, want 2x3", result.Width, result.Height)
	}

	sum := md5.Sum(data)
	if result.MD5 != hex.EncodeToString(sum[:]) {
		t.Errorf("MD5 不一致: got %s", result.MD5)
	}

	if !s.Exists(result.RelativePath) {
		t.Error("落盘后文件应该存在")
	}

	rc, err := s.Open(context.Background(), result.RelativePath)
	if err != nil {
		t.Fatalf("Open 失败: %v", err)
	}
	defer rc.Close()
	stored, _ := io.ReadAll(rc)
	if !bytes.Equal(stored, data) {
		t.Error("读回的内容与写入不一致")
	}
}

func TestLocalBlobStore_FullPath(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"正常的日期分桶路径", "2026/08/27/abc.jpg", false},
		{"空路径", "", true},
		{"绝对路径", "/etc/passwd", true},
		{"包含父目录段", "2026/../../etc/passwd", true},
		{"开头就是父目录段", "../outside.jpg", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FullPath(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("期望拒绝路径 '%s'，实际得到 '%s'", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Errorf("不应拒绝路径 '%s': %v", tt.input, err)
				return
			}
			if !strings.HasPrefix(got, s.basePath+string(filepath.Separator)) {
				t.Errorf("解析结果越出存储根目录: %s", got)
			}
		})
	}
}

func TestLocalBlobStore_Delete(t *testing.T) {
	s := newTestStore(t)
	data := tinyPNG(t)

	result, err := s.Store(context.Background(), bytes.NewReader(data), "a.png")
	if err != nil {
		t.Fatalf("Store 失败: %v", err)
	}

	s.Delete(context.Background(), result.RelativePath)
	if s.Exists(result.RelativePath) {
		t.Error("删除后文件不应存在")
	}

	// 重复删除和删除不存在的路径都不应出问题
	s.Delete(context.Background(), result.RelativePath)
	s.Delete(context.Background(), "2099/01/01/not-there.jpg", "")
}

func TestLocalBlobStore_Open_Missing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Open(context.Background(), "2099/01/01/gone.jpg"); err == nil {
		t.Error("打开不存在的文件应返回错误")
	}
}
