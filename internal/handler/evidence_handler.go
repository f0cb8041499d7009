package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"Redrow_Exposed/internal/logger"
	"Redrow_Exposed/internal/middleware"
	"Redrow_Exposed/internal/service"
)

type EvidenceHandler struct {
	svc *service.EvidenceService
}

type CaptionReq struct {
	Caption string `json:"caption" binding:"max=2000"`
}

func NewEvidenceHandler(svc *service.EvidenceService) *EvidenceHandler {
	return &EvidenceHandler{svc: svc}
}

// List 公开列表：approved + 筛选 + 分页
func (h *EvidenceHandler) List(c *gin.Context) {
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

func (h *EvidenceHandler) Mine(c *gin.Context) {
	list, err := h.svc.ListMine(c.Request.Context(), middleware.CurrentViewer(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

func (h *EvidenceHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	e, err := h.svc.Get(c.Request.Context(), middleware.CurrentViewer(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *EvidenceHandler) Create(c *gin.Context) {
	var req service.EvidenceInput
	if !bindJSON(c, &req) {
		return
	}
	e, err := h.svc.Create(c.Request.Context(), middleware.CurrentViewer(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *EvidenceHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.EvidenceInput
	if !bindJSON(c, &req) {
		return
	}
	e, err := h.svc.Update(c.Request.Context(), middleware.CurrentViewer(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *EvidenceHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentViewer(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "deleted"})
}

// UploadPhoto multipart：file + caption
func (h *EvidenceHandler) UploadPhoto(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"msg": "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"msg": "file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	p, err := h.svc.UploadPhoto(c.Request.Context(), middleware.CurrentViewer(c), id, service.UploadInput{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
		Caption:     c.PostForm("caption"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *EvidenceHandler) UpdateCaption(c *gin.Context) {
	id, ok := paramID(c, "photoId")
	if !ok {
		return
	}
	var req CaptionReq
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.UpdateCaption(c.Request.Context(), middleware.CurrentViewer(c), id, req.Caption)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *EvidenceHandler) MovePhoto(c *gin.Context) {
	id, ok := paramID(c, "photoId")
	if !ok {
		return
	}
	var req MoveReq
	if !bindJSON(c, &req) {
		return
	}
	moved, err := h.svc.MovePhoto(c.Request.Context(), middleware.CurrentViewer(c), id, req.Direction)
	if err != nil {
		writeError(c, err)
		return
	}
	moveResult(c, moved)
}

func (h *EvidenceHandler) DeletePhoto(c *gin.Context) {
	id, ok := paramID(c, "photoId")
	if !ok {
		return
	}
	if err := h.svc.DeletePhoto(c.Request.Context(), middleware.CurrentViewer(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "deleted"})
}

// Download 全部照片打包为 evidence-{id}.zip
func (h *EvidenceHandler) Download(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	v := middleware.CurrentViewer(c)
	// 任一照片拉取失败则整体失败，先写入内存再响应
	var buf bytes.Buffer
	if err := h.svc.WriteZip(c.Request.Context(), v, id, &buf); err != nil {
		logger.FromGin(c).Warn("evidence zip failed", zap.Uint64("evidence_id", id), zap.Error(err))
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="evidence-%d.zip"`, id))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

// AdminList 后台列表，可按 status 过滤
func (h *EvidenceHandler) AdminList(c *gin.Context) {
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

func (h *EvidenceHandler) Moderate(c *gin.Context) {
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

func (h *EvidenceHandler) Toggle(c *gin.Context) {
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
