package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/jjzperilla/pegeditor/internal/peg/service"
)

// PegHandler peg保存与当前状态读取
type PegHandler struct {
	svc *service.PegService
}

func NewPegHandler(svc *service.PegService) *PegHandler {
	return &PegHandler{svc: svc}
}

// SavePeg 保存peg配置、价格点、修正项、销售与当天审计快照
// POST /api/v1/peg/save
func (h *PegHandler) SavePeg(c *gin.Context) {
	var req service.SavePegRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid payload: "+err.Error())
		return
	}

	result, err := h.svc.Save(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, result)
}

// LoadPegData 按三元组读取当前状态；不存在返回404，绝不自动创建
// GET /api/v1/peg/data?capacity=xxx&interface=xxx&condition=xxx
func (h *PegHandler) LoadPegData(c *gin.Context) {
	capacity := c.Query("capacity")
	iface := c.Query("interface")
	condition := c.Query("condition")
	if capacity == "" || iface == "" || condition == "" {
		BadRequest(c, "missing parameters")
		return
	}

	detail, err := h.svc.LoadByIdentity(c.Request.Context(), capacity, iface, condition)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, detailPayload(detail))
}

// LoadConfigRequest 按配置ID读取的请求
type LoadConfigRequest struct {
	ConfigID string `json:"config_id" binding:"required"`
}

// LoadConfig 按配置ID读取当前状态
// POST /api/v1/peg/config
func (h *PegHandler) LoadConfig(c *gin.Context) {
	var req LoadConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "missing config_id")
		return
	}

	detail, err := h.svc.LoadConfig(c.Request.Context(), req.ConfigID)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, detailPayload(detail))
}

// BuyPrice 最近快照的调整价 + margin + 买入价区间（表格工具批量查价）
// GET /api/v1/peg/buy-price?capacity=xxx&interface=xxx&condition=xxx
func (h *PegHandler) BuyPrice(c *gin.Context) {
	result, err := h.svc.BuyPrice(c.Request.Context(), c.Query("capacity"), c.Query("interface"), c.Query("condition"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, result)
}

// detailPayload margin同时给出两个键，兼容存量调用方
func detailPayload(detail *service.PegDetail) gin.H {
	return gin.H{
		"config_id":      detail.Config.ID,
		"capacity":       detail.Config.Capacity,
		"interface":      detail.Config.Interface,
		"condition_type": detail.Config.ConditionType,
		"peg_name":       detail.Config.PegName,
		"inventory_mode": detail.Config.InventoryMode,
		"margin_percent": detail.Config.MarginPercent,
		"marginPercent":  detail.Config.MarginPercent,
		"peg": gin.H{
			"points":    detail.Points,
			"modifiers": detail.Modifiers,
			"sales":     detail.Sales,
		},
	}
}
