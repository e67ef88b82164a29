/*
 * @Description: JWT 令牌的签发与解析
 * @Author: 张宇轩
 * @Date: 2025-09-10 11:20:15
 * @LastEditTime: 2025-12-22 09:14:50
 * @LastEditors: 张宇轩
 */
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zyx-c/image-app/pkg/constant"
)

// ClaimsKey 是请求上下文中存放已解析 Claims 的键
const ClaimsKey = "claims"

// 令牌有效期 7 天
const tokenTTL = 7 * 24 * time.Hour

// CustomClaims 携带用户的公共ID，内部自增ID不进令牌。
type CustomClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenService 负责令牌的签发与校验
type TokenService struct {
	secret []byte
}

// NewTokenService 构造函数
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// GenerateToken 为用户签发一个 HS256 令牌
func (s *TokenService) GenerateToken(publicUserID, username string) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		UserID:   publicUserID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			Issuer:    "zyx-image",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("签发令牌失败: %w", err)
	}
	return signed, nil
}

// ParseToken 校验并解析令牌
func (s *TokenService) ParseToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非预期的签名算法: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", constant.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, constant.ErrInvalidToken
	}
	return claims, nil
}
