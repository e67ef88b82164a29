/*
 * @Description:
 * @Author: 张宇轩
 * @Date: 2025-09-03 16:15:07
 * @LastEditTime: 2025-10-19 11:52:40
 * @LastEditors: 张宇轩
 */
package model

import "time"

// 用户状态
const (
	UserStatusDisabled = 0 // 禁用
	UserStatusActive   = 1 // 正常
)

// User 是核心业务模型。百度智能云凭证按用户维度保存。
type User struct {
	ID             uint
	Username       string
	Password       string
	Email          string
	Nickname       string
	Avatar         string
	Status         int
	BaiduAPIKey    string
	BaiduSecretKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UserResponse 是用户的 API 响应结构，永远不携带密码与明文密钥。
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterRequest 注册请求体
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// LoginRequest 登录请求体
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// AiConfigRequest 保存/测试百度智能云凭证的请求体。
// 带 **** 的值表示前端未修改，沿用已保存的密钥。
type AiConfigRequest struct {
	APIKey    string `json:"api_key"`
	SecretKey string `json:"secret_key"`
}
