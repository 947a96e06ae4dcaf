package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/jjzperilla/pegeditor/internal/peg/service"
)

// SeriesHandler 时间序列读路径
type SeriesHandler struct {
	svc *service.SeriesService
}

func NewSeriesHandler(svc *service.SeriesService) *SeriesHandler {
	return &SeriesHandler{svc: svc}
}

// ComboSeries 容量下逐日均价，按 interface|condition 分组
// GET /api/v1/peg/series?capacity=xxx&days=30
func (h *SeriesHandler) ComboSeries(c *gin.Context) {
	capacity := c.Query("capacity")
	days := GetIntQuery(c, "days", 30)

	data, err := h.svc.ComboSeries(c.Request.Context(), capacity, days)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, gin.H{"data": data})
}

// PointHistory 单点历史，最旧→最新，逐天去重
// GET /api/v1/peg/points/:id/history?days=30
func (h *SeriesHandler) PointHistory(c *gin.Context) {
	pointID := c.Param("id")
	days := GetIntQuery(c, "days", 30)

	series, err := h.svc.PointSeries(c.Request.Context(), pointID, days)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, gin.H{"history": series})
}

// LoadByDate 按精确日期读取点数据，source区分 history/structure/empty
// GET /api/v1/peg/by-date?config_id=xxx&date=2024-01-05
func (h *SeriesHandler) LoadByDate(c *gin.Context) {
	view, err := h.svc.LoadByDate(c.Request.Context(), c.Query("config_id"), c.Query("date"))
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, view)
}
