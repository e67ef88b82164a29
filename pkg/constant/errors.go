/*
 * @Description:
 * @Author: 张宇轩
 * @Date: 2025-09-02 10:12:40
 * @LastEditTime: 2025-11-20 16:45:03
 * @LastEditors: 张宇轩
 */
package constant

import "errors"

// 定义业务逻辑相关的标准错误
var (
	// ErrNotFound 表示资源未找到，可以由 Handler 转换为 404
	ErrNotFound = errors.New("资源未找到")

	// ErrForbidden 表示无权访问，可以由 Handler 转换为 403
	ErrForbidden = errors.New("操作禁止")

	// ErrConflict 表示资源冲突，可以由 Handler 转换为 409
	ErrConflict = errors.New("资源冲突")

	// ErrInternalServer 表示服务器内部错误，可以由 Handler 转换为 500
	ErrInternalServer = errors.New("内部服务器错误")

	// ErrBadRequest 表示请求参数错误，可以由 Handler 转换为 400
	ErrBadRequest = errors.New("错误的请求")

	// ErrUnauthorized 表示未授权，可以由 Handler 转换为 401
	ErrUnauthorized = errors.New("未经授权的访问")

	// ErrInvalidToken 表示无效的令牌，可以由 Handler 转换为 401
	ErrInvalidToken = errors.New("无效令牌")

	// ErrInvalidInput 表示必填字段为空或非法，可以由 Handler 转换为 400
	ErrInvalidInput = errors.New("输入参数无效")

	// ErrNotConfigured 表示用户尚未配置百度智能云凭证，可以由 Handler 转换为 400
	ErrNotConfigured = errors.New("请先配置百度智能云 API Key 和 Secret Key")

	// ErrExchangeFailed 表示 Access Token 兑换失败，可以由 Handler 转换为 502
	ErrExchangeFailed = errors.New("获取Access Token失败")

	// ErrClassificationFailed 表示图像识别调用失败，可以由 Handler 转换为 502
	ErrClassificationFailed = errors.New("图像识别失败")

	// ErrPayloadTooLarge 表示图片超出大小限制，可以由 Handler 转换为 413
	ErrPayloadTooLarge = errors.New("图片太大")

	// ErrSourceMissing 表示引用的原始文件在磁盘上不存在，可以由 Handler 转换为 404
	ErrSourceMissing = errors.New("源文件不存在")
)
