/*
 * @Description: 认证相关的控制器
 * @Author: 张宇轩
 * @Date: 2025-09-11 14:02:31
 * @LastEditTime: 2025-12-22 15:40:12
 * @LastEditors: 张宇轩
 */
package auth_handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zyx-c/image-app/internal/app/middleware"
	"github.com/zyx-c/image-app/pkg/domain/model"
	"github.com/zyx-c/image-app/pkg/idgen"
	"github.com/zyx-c/image-app/pkg/response"
	"github.com/zyx-c/image-app/pkg/service/auth"
)

// AuthHandler 封装了注册登录相关的控制器方法
type AuthHandler struct {
	authSvc *auth.Service
}

// NewAuthHandler 是 AuthHandler 的构造函数
func NewAuthHandler(authSvc *auth.Service) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Register 处理用户注册
// @Summary      用户注册
// @Tags         认证
// @Accept       json
// @Produce      json
// @Param        body  body  model.RegisterRequest  true  "注册信息"
// @Success      200  {object}  response.Response  "注册成功"
// @Failure      409  {object}  response.Response  "用户名已存在"
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}

	user, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Success(c, user, "注册成功")
}

// Login 处理用户登录
// @Summary      用户登录
// @Tags         认证
// @Accept       json
// @Produce      json
// @Param        body  body  model.LoginRequest  true  "登录凭证"
// @Success      200  {object}  response.Response  "登录成功"
// @Failure      401  {object}  response.Response  "用户名或密码错误"
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Success(c, result, "登录成功")
}

// Profile 返回当前登录用户的信息
// @Summary      当前用户信息
// @Tags         认证
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "未登录")
		return
	}

	publicID, _ := idgen.GeneratePublicID(user.ID, idgen.EntityTypeUser)
	response.Success(c, &model.UserResponse{
		ID:        publicID,
		Username:  user.Username,
		Email:     user.Email,
		Nickname:  user.Nickname,
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt,
	}, "获取成功")
}
