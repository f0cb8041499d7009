package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"Redrow_Exposed/internal/logger"
	"Redrow_Exposed/internal/middleware"
	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/service"
)

// errStatus 业务错误 -> HTTP 状态码
var errStatus = []struct {
	err    error
	status int
}{
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrTemplateNotFound, http.StatusNotFound},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrConflict, http.StatusConflict},
	{service.ErrAlreadyRegistered, http.StatusConflict},
	{service.ErrInvalidTransition, http.StatusConflict},
	{service.ErrUnsupportedMedia, http.StatusUnsupportedMediaType},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{service.ErrInvalidInput, http.StatusBadRequest},
	{service.ErrReasonRequired, http.StatusBadRequest},
	{service.ErrInvalidStatus, http.StatusBadRequest},
	{service.ErrConsentRequired, http.StatusBadRequest},
	{service.ErrInvalidCode, http.StatusBadRequest},
	{service.ErrNoRecipients, http.StatusBadRequest},
}

// writeError 未知错误记日志并返回 500，不把内部信息透出
func writeError(c *gin.Context, err error) {
	for _, e := range errStatus {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"msg": e.err.Error()})
			return
		}
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"msg": "request body too large"})
		return
	}
	logger.FromGin(c).Error("request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"msg": "internal error"})
}

// bindJSON 失败时已写入 400
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"msg": "request body too large"})
			return false
		}
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

func paramID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid " + name})
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	return page, size
}

func statusParam(c *gin.Context) model.ModerationStatus {
	s := c.Query("status")
	if s == "all" {
		return ""
	}
	return model.ModerationStatus(s)
}

// ModerateReq 显式审核
type ModerateReq struct {
	Status model.ModerationStatus `json:"status" binding:"required,oneof=pending approved rejected"`
	Reason string                 `json:"reason" binding:"max=2000"`
}

type MoveReq struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

func moveResult(c *gin.Context, moved bool) {
	msg := "moved"
	if !moved {
		msg = "already at boundary"
	}
	c.JSON(http.StatusOK, gin.H{"msg": msg, "moved": moved})
}
