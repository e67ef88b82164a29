package thumbnail

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func TestThumbName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"常规jpg", "2026/08/27/a.jpg", "2026/08/27/a_thumb.jpg"},
		{"png扩展名", "x.png", "x_thumb.png"},
		{"无扩展名", "2026/08/27/raw", "2026/08/27/raw_thumb"},
		{"多个点", "a.b.jpeg", "a.b_thumb.jpeg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ThumbName(tt.input); got != tt.want {
				t.Errorf("ThumbName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerator_Generate(t *testing.T) {
	sourceRoot := t.TempDir()
	thumbRoot := t.TempDir()

	// 准备一张 800x600 的原图
	rel := filepath.Join("2026", "08", "27", "big.jpg")
	srcPath := filepath.Join(sourceRoot, rel)
	if err := os.MkdirAll(filepath.Dir(srcPath), os.ModePerm); err != nil {
		t.Fatal(err)
	}
	big := imaging.New(800, 600, image.White.C)
	if err := imaging.Save(big, srcPath); err != nil {
		t.Fatalf("保存测试原图失败: %v", err)
	}

	g := NewGenerator(sourceRoot, thumbRoot)
	thumbRel, err := g.Generate(filepath.ToSlash(rel))
	if err != nil {
		t.Fatalf("Generate 失败: %v", err)
	}
	if thumbRel != "2026/08/27/big_thumb.jpg" {
		t.Errorf("缩略图相对路径不符: %s", thumbRel)
	}

	// 检查边界框内的等比缩放：800x600 -> 300x225
	thumb, err := imaging.Open(g.FullPath(thumbRel))
	if err != nil {
		t.Fatalf("打开缩略图失败: %v", err)
	}
	bounds := thumb.Bounds()
	if bounds.Dx() != 300 || bounds.Dy() != 225 {
		t.Errorf("缩略图尺寸错误: got %dx%d, want 300x225", bounds.Dx(), bounds.Dy())
	}
}

func TestGenerator_GenerateSized(t *testing.T) {
	sourceRoot := t.TempDir()
	thumbRoot := t.TempDir()

	rel := "wide.jpg"
	big := imaging.New(400, 200, image.White.C)
	if err := imaging.Save(big, filepath.Join(sourceRoot, rel)); err != nil {
		t.Fatalf("保存测试原图失败: %v", err)
	}

	g := NewGenerator(sourceRoot, thumbRoot)
	thumbRel, err := g.GenerateSized(rel, 100, 100)
	if err != nil {
		t.Fatalf("GenerateSized 失败: %v", err)
	}

	thumb, err := imaging.Open(g.FullPath(thumbRel))
	if err != nil {
		t.Fatalf("打开缩略图失败: %v", err)
	}
	bounds := thumb.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 50 {
		t.Errorf("缩略图尺寸错误: got %dx%d, want 100x50", bounds.Dx(), bounds.Dy())
	}
}

func TestGenerator_Generate_SourceMissing(t *testing.T) {
	g := NewGenerator(t.TempDir(), t.TempDir())
	if _, err := g.Generate("2099/01/01/nope.jpg"); err == nil {
		t.Error("原图不存在时应返回错误")
	}
}

func TestGenerator_Generate_NotAnImage(t *testing.T) {
	sourceRoot := t.TempDir()
	if err := os.WriteFile(filepath.Join(sourceRoot, "bad.jpg"), []byte("这不是图片"), 0o644); err != nil {
		t.Fatal(err)
	}
	g := NewGenerator(sourceRoot, t.TempDir())
	if _, err := g.Generate("bad.jpg"); err == nil {
		t.Error("无法解码的文件应返回错误")
	}
}

func TestGenerator_Delete(t *testing.T) {
	thumbRoot := t.TempDir()
	g := NewGenerator(t.TempDir(), thumbRoot)

	rel := "2026/08/27/a_thumb.jpg"
	full := g.FullPath(rel)
	if err := os.MkdirAll(filepath.Dir(full), os.ModePerm); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte("thumb"), 0o644); err != nil {
		t.Fatal(err)
	}

	// 路径中间撞上普通文件时删除失败，只记日志不崩溃
	g.Delete("2026/08/27/a_thumb.jpg/inner.jpg")
	if _, err := os.Stat(full); err != nil {
		t.Error("删除失败不应影响原文件")
	}

	g.Delete(rel)
	if _, err := os.Stat(full); !os.IsNotExist(err) {
		t.Error("缩略图文件应被删除")
	}

	// 不存在与空路径都不应崩溃
	g.Delete(rel)
	g.Delete("2099/01/01/gone_thumb.jpg")
	g.Delete("")
}
