package exif

import (
	"bytes"
	"testing"
)

func TestExtractor_Extract_Garbage(t *testing.T) {
	e := NewExtractor()

	tests := []struct {
		name string
		data []byte
		file string
	}{
		{"随机字节", []byte("definitely not an image at all"), "a.jpg"},
		{"空文件", []byte{}, "b.png"},
		{"未知扩展名", []byte{0x00, 0x01, 0x02}, "c.raw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := e.Extract(bytes.NewReader(tt.data), int64(len(tt.data)), tt.file)
			if meta == nil {
				t.Fatal("提取器永远不应返回 nil")
			}
			if meta.ShootTime != nil || meta.Device != "" || meta.Location != "" {
				t.Errorf("无EXIF的输入不应产出字段: %+v", meta)
			}
		})
	}
}

func TestParseRational(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{"常规分数", "28/10", 2.8, false},
		{"整数分母", "50/1", 50, false},
		{"零分母", "1/0", 0, true},
		{"非分数", "2.8", 0, true},
		{"非数字", "a/b", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRational(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseRational(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseRational(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
