/*
 * @Description: EXIF 元数据提取服务
 * @Author: 张宇轩
 * @Date: 2025-09-06 10:14:55
 * @LastEditTime: 2025-12-18 09:26:12
 * @LastEditors: 张宇轩
 */
package exif

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	goexif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	heicexif "github.com/dsoprea/go-heic-exif-extractor"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure"
	pngstructure "github.com/dsoprea/go-png-image-structure"
	tiffstructure "github.com/dsoprea/go-tiff-image-structure"
	riimage "github.com/dsoprea/go-utility/image"

	"github.com/zyx-c/image-app/pkg/domain/model"
)

type (
	exifParser interface {
		Parse(rs io.ReadSeeker, size int) (ec riimage.MediaContext, err error)
	}
)

func getExifParser(ext string) exifParser {
	switch ext {
	case ".jpg", ".jpeg":
		return jpegstructure.NewJpegMediaParser()
	case ".png":
		return pngstructure.NewPngMediaParser()
	case ".tiff":
		return tiffstructure.NewTiffMediaParser()
	case ".heic", ".heif", ".avif":
		return heicexif.NewHeicExifMediaParser()
	default:
		// 其他格式依赖蛮力搜索
		return nil
	}
}

// Extractor 从图片文件中尽力而为地提取拍摄元数据。
// 任何一个字段提取失败都不影响其他字段，整体永远不返回错误。
type Extractor struct{}

// NewExtractor 构造函数
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract 从读取器中提取 EXIF 元数据。提取不到任何信息时返回零值结构。
func (e *Extractor) Extract(rs io.ReadSeeker, size int64, filename string) *model.ExifMetadata {
	meta := &model.ExifMetadata{}

	ext := strings.ToLower(filepath.Ext(filename))
	parser := getExifParser(ext)
	var exifData []byte

	// 1. 尝试结构化解析
	if parser != nil {
		if res, pErr := parser.Parse(rs, int(size)); pErr == nil {
			_, exifData, _ = res.Exif()
		}
	}

	// 2. 结构化解析无果时蛮力搜索
	if len(exifData) == 0 {
		if _, seekErr := rs.Seek(0, io.SeekStart); seekErr != nil {
			return meta
		}
		data, err := goexif.SearchAndExtractExifWithReader(rs)
		if err != nil && !errors.Is(err, goexif.ErrNoExif) {
			log.Printf("[Extractor] 警告: 为文件 '%s' 进行蛮力搜索时出错: %v", filename, err)
		}
		exifData = data
	}

	if len(exifData) == 0 {
		return meta
	}

	// 3. 平铺解析所有条目
	entries, _, err := goexif.GetFlatExifData(exifData, nil)
	if err != nil {
		log.Printf("[Extractor] 错误: 解析文件 '%s' 的EXIF条目失败: %v", filename, err)
		return meta
	}

	rawExifMap := make(map[string]string)
	for _, tag := range entries {
		if tag.TagName != "" {
			// 清理空字符
			cleanedValue := strings.ReplaceAll(tag.FormattedFirst, "\x00", "")
			if cleanedValue != "" {
				rawExifMap[tag.TagName] = cleanedValue
			}
		}
	}

	e.mapExifData(rawExifMap, meta)
	e.extractGps(exifData, meta)
	return meta
}

func (e *Extractor) mapExifData(exifMap map[string]string, meta *model.ExifMetadata) {
	if v, ok := exifMap["Make"]; ok {
		meta.Device = v
	}
	if v, ok := exifMap["Model"]; ok {
		meta.CameraModel = v
	}
	for _, tagName := range []string{"DateTimeOriginal", "CreateDate", "DateTime"} {
		if value, ok := exifMap[tagName]; ok {
			if t, err := time.Parse("2006:01:02 15:04:05", value); err == nil {
				meta.ShootTime = &t
				break
			}
		}
	}
	if v, ok := exifMap["FNumber"]; ok {
		if f, err := parseRational(v); err == nil {
			meta.Aperture = fmt.Sprintf("f/%.1f", f)
		}
	}
	if v, ok := exifMap["FocalLength"]; ok {
		if f, err := parseRational(v); err == nil {
			meta.FocalLength = fmt.Sprintf("%dmm", int(f))
		}
	}
	if v, ok := exifMap["ISOSpeedRatings"]; ok {
		meta.ISO = v
	}
}

// extractGps 从 GPS IFD 中取经纬度，格式化为 "纬度,经度"
func (e *Extractor) extractGps(exifData []byte, meta *model.ExifMetadata) {
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return
	}
	ti := goexif.NewTagIndex()
	_, index, err := goexif.Collect(im, ti, exifData)
	if err != nil {
		return
	}
	gpsIfd, err := index.RootIfd.ChildWithIfdPath(exifcommon.IfdGpsInfoStandardIfdIdentity)
	if err != nil {
		return
	}
	gi, err := gpsIfd.GpsInfo()
	if err != nil {
		return
	}
	meta.Location = fmt.Sprintf("%.6f,%.6f", gi.Latitude.Decimal(), gi.Longitude.Decimal())
}

func parseRational(s string) (float64, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0, errors.New("invalid rational format")
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0, errors.New("invalid rational components")
	}
	return num / den, nil
}
