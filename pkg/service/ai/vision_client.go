/*
 * @Description: 百度智能云通用物体识别客户端
 * @Author: 张宇轩
 * @Date: 2025-09-07 10:42:08
 * @LastEditTime: 2025-12-19 11:31:46
 * @LastEditors: 张宇轩
 */
package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/zyx-c/image-app/pkg/constant"
	"github.com/zyx-c/image-app/pkg/domain/model"
)

const (
	// 接口对图片的体积限制：原始字节 8MB，base64 编码后 11MB
	maxRawImageBytes    = 8 * 1024 * 1024
	maxBase64ImageBytes = 11 * 1024 * 1024
)

// classifyResponse 是识别接口的响应体
type classifyResponse struct {
	Result []struct {
		Keyword string  `json:"keyword"`
		Score   float64 `json:"score"`
		Root    string  `json:"root"`
	} `json:"result"`
	ErrorCode int    `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// VisionClient 封装通用物体识别接口的调用与体积校验。
type VisionClient struct {
	httpClient  *http.Client
	classifyURL string
}

// NewVisionClient 是 VisionClient 的构造函数
func NewVisionClient(classifyURL string) *VisionClient {
	return &VisionClient{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		classifyURL: classifyURL,
	}
}

// stripDataURIPrefix 去掉 "data:image/jpeg;base64," 这类前缀
func stripDataURIPrefix(encoded string) string {
	if strings.HasPrefix(encoded, "data:") {
		if idx := strings.Index(encoded, ","); idx >= 0 {
			return encoded[idx+1:]
		}
	}
	return encoded
}

// ClassifyBytes 对原始图片字节做识别。超过 8MB 直接拒绝，不发起网络请求。
func (c *VisionClient) ClassifyBytes(ctx context.Context, token string, data []byte) ([]*model.AiTagResult, error) {
	if len(data) > maxRawImageBytes {
		return nil, fmt.Errorf("%w: 原始图片 %d 字节，上限 8MB", constant.ErrPayloadTooLarge, len(data))
	}
	return c.ClassifyBase64(ctx, token, base64.StdEncoding.EncodeToString(data))
}

// ClassifyBase64 对 base64 编码的图片做识别。
// 自动去掉 data-URI 前缀，编码后超过 11MB 直接拒绝。
func (c *VisionClient) ClassifyBase64(ctx context.Context, token string, encoded string) ([]*model.AiTagResult, error) {
	encoded = stripDataURIPrefix(encoded)
	if len(encoded) > maxBase64ImageBytes {
		return nil, fmt.Errorf("%w: base64 编码后 %d 字节，上限 11MB", constant.ErrPayloadTooLarge, len(encoded))
	}
	form := url.Values{}
	form.Set("image", encoded)
	return c.classify(ctx, token, form)
}

// ClassifyPath 读取本地文件后识别，体积门限与字节入口一致。
func (c *VisionClient) ClassifyPath(ctx context.Context, token string, path string) ([]*model.AiTagResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", constant.ErrSourceMissing, path)
		}
		return nil, fmt.Errorf("读取图片文件失败: %w", err)
	}
	return c.ClassifyBytes(ctx, token, data)
}

// ClassifyURL 按图片 URL 做识别，图片由百度侧拉取。
func (c *VisionClient) ClassifyURL(ctx context.Context, token string, imageURL string) ([]*model.AiTagResult, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("%w: 图片URL为空", constant.ErrInvalidInput)
	}
	form := url.Values{}
	form.Set("url", imageURL)
	return c.classify(ctx, token, form)
}

func (c *VisionClient) classify(ctx context.Context, token string, form url.Values) ([]*model.AiTagResult, error) {
	endpoint := c.classifyURL + "?access_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", constant.ErrClassificationFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", constant.ErrClassificationFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取响应失败: %v", constant.ErrClassificationFailed, err)
	}

	var cr classifyResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("%w: 响应解析失败: %v", constant.ErrClassificationFailed, err)
	}
	// HTTP 200 也可能带业务错误码
	if cr.ErrorCode != 0 {
		return nil, fmt.Errorf("%w: [%d] %s", constant.ErrClassificationFailed, cr.ErrorCode, cr.ErrorMsg)
	}

	results := make([]*model.AiTagResult, 0, len(cr.Result))
	for _, item := range cr.Result {
		if item.Keyword == "" {
			continue
		}
		results = append(results, &model.AiTagResult{
			Keyword:  item.Keyword,
			Score:    item.Score,
			Category: item.Root,
		})
	}
	return results, nil
}
