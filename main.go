/*
 * @Description:
 * @Author: 张宇轩
 * @Date: 2025-09-02 09:45:10
 * @LastEditTime: 2025-12-24 10:05:33
 * @LastEditors: 张宇轩
 */
package main

import (
	"log"

	"github.com/zyx-c/image-app/cmd/server"
)

// @title           ZYX Image API
// @version         1.0
// @description     图片管理与 AI 识别打标服务接口文档

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8093
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description 在请求头中添加 Bearer Token，格式为: Bearer {token}
func main() {
	if err := server.Run(); err != nil {
		log.Fatalf("服务启动失败: %v", err)
	}
}
