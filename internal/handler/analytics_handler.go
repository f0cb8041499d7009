package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"Redrow_Exposed/internal/service"
)

type AnalyticsHandler struct {
	svc *service.AnalyticsService
}

func NewAnalyticsHandler(svc *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

func (h *AnalyticsHandler) Visit(c *gin.Context) {
	var req service.VisitInput
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.RecordVisit(c.Request.Context(), req, c.Request.UserAgent()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Summary ?days=30
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	days, _ := strconv.Atoi(c.Query("days"))
	s, err := h.svc.Summary(c.Request.Context(), days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
