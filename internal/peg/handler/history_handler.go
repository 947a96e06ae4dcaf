package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jjzperilla/pegeditor/internal/peg/service"
)

// HistoryHandler 审计快照流的读取、删除与导出
type HistoryHandler struct {
	pegSvc    *service.PegService
	exportSvc *service.ExportService
}

func NewHistoryHandler(pegSvc *service.PegService, exportSvc *service.ExportService) *HistoryHandler {
	return &HistoryHandler{pegSvc: pegSvc, exportSvc: exportSvc}
}

// ListSnapshots 容量下的快照流，按天倒序
// GET /api/v1/peg/history?capacity=xxx
func (h *HistoryHandler) ListSnapshots(c *gin.Context) {
	snaps, err := h.pegSvc.ListSnapshots(c.Request.Context(), c.Query("capacity"))
	if err != nil {
		RespondError(c, err)
		return
	}

	// margin两个键都给，兼容存量调用方
	rows := make([]gin.H, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, gin.H{
			"id":             s.ID,
			"config_id":      s.ConfigID,
			"capacity":       s.Capacity,
			"interface":      s.Interface,
			"condition_type": s.ConditionType,
			"peg_name":       s.PegName,
			"base_price":     s.BasePrice,
			"adjusted_price": s.AdjustedPrice,
			"margin_percent": s.MarginPercent,
			"marginPercent":  s.MarginPercent,
			"day_date":       s.DayDate,
			"saved_at":       s.SavedAt,
		})
	}

	Success(c, gin.H{"history": rows})
}

// DeleteSnapshot 级联删除快照与所属配置；点历史未清时409
// DELETE /api/v1/peg/history/:id
func (h *HistoryHandler) DeleteSnapshot(c *gin.Context) {
	id := c.Param("id")
	if err := h.pegSvc.DeleteSnapshot(c.Request.Context(), id); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}

// ExportSnapshots 快照流导出为xlsx下载，已配置对象存储时同时归档
// GET /api/v1/peg/history/export?capacity=xxx
func (h *HistoryHandler) ExportSnapshots(c *gin.Context) {
	capacity := c.Query("capacity")
	if capacity == "" {
		BadRequest(c, "missing capacity")
		return
	}

	f, err := h.exportSvc.SnapshotWorkbook(c.Request.Context(), capacity)
	if err != nil {
		RespondError(c, err)
		return
	}
	defer f.Close()

	h.exportSvc.Archive(c.Request.Context(), f, capacity)

	filename := fmt.Sprintf("peg-history-%s-%s.xlsx", capacity, time.Now().Format("20060102"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, err.Error())
	}
}
