/*
 * @Description:
 * @Author: 张宇轩
 * @Date: 2025-09-02 10:30:11
 * @LastEditTime: 2025-12-08 19:21:47
 * @LastEditors: 张宇轩
 */
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zyx-c/image-app/pkg/constant"
)

// Response 是统一的API返回结构体
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: message,
		Data:    data,
	})
}

// Fail 失败响应
func Fail(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// FailWithError 根据业务错误类型自动映射 HTTP 状态码后返回失败响应。
// 业务层只返回 constant 中定义的标准错误，状态码的映射集中在这里完成。
func FailWithError(c *gin.Context, err error) {
	Fail(c, statusOf(err), err.Error())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, constant.ErrNotFound), errors.Is(err, constant.ErrSourceMissing):
		return http.StatusNotFound
	case errors.Is(err, constant.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, constant.ErrUnauthorized), errors.Is(err, constant.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, constant.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, constant.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, constant.ErrBadRequest), errors.Is(err, constant.ErrInvalidInput), errors.Is(err, constant.ErrNotConfigured):
		return http.StatusBadRequest
	case errors.Is(err, constant.ErrExchangeFailed), errors.Is(err, constant.ErrClassificationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
