package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Redrow_Exposed/internal/middleware"
	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/service"
)

type ClaimHandler struct {
	svc *service.ClaimService
}

func NewClaimHandler(svc *service.ClaimService) *ClaimHandler {
	return &ClaimHandler{svc: svc}
}

func (h *ClaimHandler) Submit(c *gin.Context) {
	var req service.ClaimInput
	if !bindJSON(c, &req) {
		return
	}
	claim, err := h.svc.Submit(c.Request.Context(), middleware.CurrentViewer(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, claim)
}

func (h *ClaimHandler) Mine(c *gin.Context) {
	list, err := h.svc.ListMine(c.Request.Context(), middleware.CurrentViewer(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

func (h *ClaimHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	claim, err := h.svc.Get(c.Request.Context(), middleware.CurrentViewer(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, claim)
}

func (h *ClaimHandler) AdminList(c *gin.Context) {
	page, size := pageParams(c)
	status := model.ClaimStatus(c.Query("status"))
	if status == "all" {
		status = ""
	}
	p, err := h.svc.ListAll(c.Request.Context(), status, page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ClaimHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.ClaimStatusInput
	if !bindJSON(c, &req) {
		return
	}
	claim, err := h.svc.UpdateStatus(c.Request.Context(), middleware.CurrentViewer(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, claim)
}
