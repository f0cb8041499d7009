package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Redrow_Exposed/internal/middleware"
	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/service"
)

type UserHandler struct {
	svc   *service.UserService
	codes *service.CodeService
}

type SendCodeReq struct {
	Email string `json:"email" binding:"required,email"`
}

type LoginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ResetReq 忘记密码请求体
type ResetReq struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6,numeric"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

type ChangePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

type RefreshReq struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type ProfileReq struct {
	FullName string `json:"full_name" binding:"required,max=128"`
	Phone    string `json:"phone" binding:"max=32"`
}

type RoleReq struct {
	Role model.Role `json:"role" binding:"required,oneof=user moderator admin"`
}

func NewUserHandler(svc *service.UserService, codes *service.CodeService) *UserHandler {
	return &UserHandler{svc: svc, codes: codes}
}

// SendCode /api/auth/:scope/code，scope 为 register 或 reset
func (h *UserHandler) SendCode(c *gin.Context) {
	var req SendCodeReq
	if !bindJSON(c, &req) {
		return
	}
	if err := h.codes.SendCode(c.Request.Context(), c.Param("scope"), req.Email); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "verification code sent"})
}

// Register 注册接口
func (h *UserHandler) Register(c *gin.Context) {
	var req service.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login 登录接口
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginReq
	if !bindJSON(c, &req) {
		return
	}
	pair, user, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken, "user": user})
}

func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), middleware.CurrentUserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// Refresh 利用 refresh 来更新 access
func (h *UserHandler) Refresh(c *gin.Context) {
	var req RefreshReq
	if !bindJSON(c, &req) {
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req ResetReq
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "reset password successfully"})
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordReq
	if !bindJSON(c, &req) {
		return
	}
	err := h.svc.ChangePassword(c.Request.Context(), middleware.CurrentUserID(c), req.OldPassword, req.NewPassword)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "change password successfully"})
}

func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.svc.Profile(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req ProfileReq
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.svc.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), req.FullName, req.Phone)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// List 后台用户列表，search 匹配邮箱或姓名
func (h *UserHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	p, err := h.svc.List(c.Request.Context(), c.Query("search"), page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *UserHandler) SetRole(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req RoleReq
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.SetRole(c.Request.Context(), middleware.CurrentUserID(c), id, req.Role); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "role updated"})
}
