package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"Redrow_Exposed/internal/service"
)

type GLOHandler struct {
	svc *service.GLOService
}

func NewGLOHandler(svc *service.GLOService) *GLOHandler {
	return &GLOHandler{svc: svc}
}

// Register 公开接口，同一邮箱重复登记返回 409
func (h *GLOHandler) Register(c *gin.Context) {
	var req service.GLOInput
	if !bindJSON(c, &req) {
		return
	}
	g, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"msg": "registered", "id": g.ID})
}

func (h *GLOHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list, "total": len(list)})
}

// Export 以附件形式下载 JSON
func (h *GLOHandler) Export(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="glo-interest.json"`)
	c.Header("X-Total-Count", strconv.Itoa(len(list)))
	c.JSON(http.StatusOK, list)
}

func (h *GLOHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "deleted"})
}
