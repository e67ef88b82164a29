// internal/app/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zyx-c/image-app/internal/pkg/auth"
	"github.com/zyx-c/image-app/pkg/domain/model"
	"github.com/zyx-c/image-app/pkg/response"
	service_auth "github.com/zyx-c/image-app/pkg/service/auth"
)

// currentUserKey 是请求上下文中存放已解析用户实体的键
const currentUserKey = "current_user"

type Middleware struct {
	tokenSvc *auth.TokenService
	authSvc  *service_auth.Service
}

func NewMiddleware(tokenSvc *auth.TokenService, authSvc *service_auth.Service) *Middleware {
	return &Middleware{tokenSvc: tokenSvc, authSvc: authSvc}
}

// JWTAuth 是一个强制性的JWT认证中间件，
// 校验通过后把 Claims 与用户实体放进请求上下文。
func (m *Middleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		if authHeader == "" {
			response.Fail(c, http.StatusUnauthorized, "请求未携带Token，无权限访问")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			response.Fail(c, http.StatusUnauthorized, "Token格式不正确")
			c.Abort()
			return
		}

		claims, err := m.tokenSvc.ParseToken(parts[1])
		if err != nil {
			response.Fail(c, http.StatusUnauthorized, "无效或过期的Token")
			c.Abort()
			return
		}

		user, err := m.authSvc.ResolveUser(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Fail(c, http.StatusUnauthorized, "Token对应的用户不存在")
			c.Abort()
			return
		}
		if user.Status != model.UserStatusActive {
			response.Fail(c, http.StatusForbidden, "账号已被禁用")
			c.Abort()
			return
		}

		c.Set(auth.ClaimsKey, claims)
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser 从请求上下文中取出 JWTAuth 放入的用户实体
func CurrentUser(c *gin.Context) (*model.User, bool) {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*model.User)
	return user, ok
}
