package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"Redrow_Exposed/internal/middleware"
	"Redrow_Exposed/internal/service"
)

// IdempotencyKeyHeader 同一个 key 重复提交不会重复发信
const IdempotencyKeyHeader = "Idempotency-Key"

type EmailHandler struct {
	svc *service.EmailService
}

type BatchTestReq struct {
	Email string `json:"email" binding:"required,email"`
}

func NewEmailHandler(svc *service.EmailService) *EmailHandler {
	return &EmailHandler{svc: svc}
}

// SendAdminEmail POST /functions/send-admin-email
func (h *EmailHandler) SendAdminEmail(c *gin.Context) {
	var req service.SendRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.TemplateID == nil && strings.TrimSpace(req.Template) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "template or templateId is required"})
		return
	}
	req.BatchID = strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(req.BatchID) > 64 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "idempotency key too long"})
		return
	}
	uid := middleware.CurrentUserID(c)
	req.SentBy = &uid

	res, err := h.svc.Send(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SyncTemplates POST /functions/sync-email-templates
func (h *EmailHandler) SyncTemplates(c *gin.Context) {
	res, err := h.svc.SyncTemplates(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *EmailHandler) BatchTest(c *gin.Context) {
	var req BatchTestReq
	if !bindJSON(c, &req) {
		return
	}
	results, err := h.svc.BatchTest(c.Request.Context(), req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *EmailHandler) ListTemplates(c *gin.Context) {
	list, err := h.svc.ListTemplates(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

func (h *EmailHandler) CreateTemplate(c *gin.Context) {
	var req service.TemplateInput
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.svc.CreateTemplate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *EmailHandler) UpdateTemplate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.TemplateInput
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.svc.UpdateTemplate(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *EmailHandler) DeleteTemplate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteTemplate(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "deleted"})
}

func (h *EmailHandler) ListTriggers(c *gin.Context) {
	list, err := h.svc.ListTriggers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

func (h *EmailHandler) CreateTrigger(c *gin.Context) {
	var req service.TriggerInput
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.svc.CreateTrigger(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *EmailHandler) UpdateTrigger(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.TriggerInput
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.svc.UpdateTrigger(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *EmailHandler) DeleteTrigger(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteTrigger(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "deleted"})
}

// ListLogs ?limit=100
func (h *EmailHandler) ListLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.svc.ListLogs(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}
