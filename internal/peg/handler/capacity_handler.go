package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/jjzperilla/pegeditor/internal/peg/service"
)

// CapacityHandler 容量目录
type CapacityHandler struct {
	svc *service.CapacityService
}

func NewCapacityHandler(svc *service.CapacityService) *CapacityHandler {
	return &CapacityHandler{svc: svc}
}

// ListCapacities 全部容量，按录入顺序
// GET /api/v1/capacities
func (h *CapacityHandler) ListCapacities(c *gin.Context) {
	rows, err := h.svc.List(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"capacities": rows})
}

// SaveCapacityRequest 新增容量请求
type SaveCapacityRequest struct {
	Capacity string `json:"capacity" binding:"required"`
}

// SaveCapacity 新增容量；重复返回409
// POST /api/v1/capacities
func (h *CapacityHandler) SaveCapacity(c *gin.Context) {
	var req SaveCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "capacity is required")
		return
	}

	row, err := h.svc.Save(c.Request.Context(), req.Capacity)
	if err != nil {
		RespondError(c, err)
		return
	}

	Created(c, row)
}
