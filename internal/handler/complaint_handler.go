package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Redrow_Exposed/internal/middleware"
	"Redrow_Exposed/internal/service"
)

type ComplaintHandler struct {
	svc *service.ComplaintService
}

func NewComplaintHandler(svc *service.ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{svc: svc}
}

func (h *ComplaintHandler) List(c *gin.Context) {
	var f service.Filter
	_ = c.ShouldBindQuery(&f)
	page, size := pageParams(c)
	p, err := h.svc.ListPublic(c.Request.Context(), f, page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ComplaintHandler) Submit(c *gin.Context) {
	var req service.ComplaintInput
	if !bindJSON(c, &req) {
		return
	}
	complaint, err := h.svc.Submit(c.Request.Context(), middleware.CurrentViewer(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, complaint)
}

func (h *ComplaintHandler) AdminList(c *gin.Context) {
	var f service.Filter
	_ = c.ShouldBindQuery(&f)
	page, size := pageParams(c)
	p, err := h.svc.ListAdmin(c.Request.Context(), statusParam(c), f, page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ComplaintHandler) Moderate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ModerateReq
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.Moderate(c.Request.Context(), middleware.CurrentViewer(c), id, req.Status, req.Reason); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "moderated", "status": req.Status})
}

func (h *ComplaintHandler) Toggle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	next, err := h.svc.Toggle(c.Request.Context(), middleware.CurrentViewer(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "toggled", "status": next})
}

func (h *ComplaintHandler) Delete(c *gin.Context) {
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
