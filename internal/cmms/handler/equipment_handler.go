package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/liftwise/liftwise/internal/cmms/repository"
	"github.com/liftwise/liftwise/internal/cmms/service"
)

// EquipmentHandler 叉车台账处理器
type EquipmentHandler struct {
	svc *service.EquipmentService
}

// NewEquipmentHandler 创建叉车台账处理器
func NewEquipmentHandler(svc *service.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{svc: svc}
}

// List 设备列表
// GET /api/v1/equipment
func (h *EquipmentHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"client_id": c.Query("client_id"),
		"status":    c.Query("status"),
		"keyword":   c.Query("keyword"),
	}

	items, total, err := h.svc.ListEquipment(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取设备列表失败: "+err.Error())
		return
	}

	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

// Create 登记设备
// POST /api/v1/equipment
func (h *EquipmentHandler) Create(c *gin.Context) {
	var req service.CreateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	eq, err := h.svc.CreateEquipment(c.Request.Context(), &req)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Created(c, eq)
}

// Get 设备详情
// GET /api/v1/equipment/:id
func (h *EquipmentHandler) Get(c *gin.Context) {
	eq, err := h.svc.GetEquipment(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "设备不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, eq)
}

// Update 更新设备信息
// PUT /api/v1/equipment/:id
func (h *EquipmentHandler) Update(c *gin.Context) {
	var req service.UpdateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	eq, err := h.svc.UpdateEquipment(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "设备不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, eq)
}

// SetStatus 设置设备运行状态
// PUT /api/v1/equipment/:id/status
func (h *EquipmentHandler) SetStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if err := h.svc.SetStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "设备不存在")
			return
		}
		BadRequest(c, err.Error())
		return
	}
	Success(c, gin.H{"status": req.Status})
}

// UpdateHours 上报设备累计工时
// PUT /api/v1/equipment/:id/hours
func (h *EquipmentHandler) UpdateHours(c *gin.Context) {
	var req struct {
		Hours float64 `json:"hours" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	eq, err := h.svc.UpdateHours(c.Request.Context(), c.Param("id"), req.Hours)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			NotFound(c, "设备不存在")
		case errors.Is(err, service.ErrHoursRegression):
			BadRequest(c, err.Error())
		default:
			InternalError(c, err.Error())
		}
		return
	}
	Success(c, eq)
}

// Delete 删除设备
// DELETE /api/v1/equipment/:id
func (h *EquipmentHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteEquipment(c.Request.Context(), c.Param("id")); err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"message": "deleted"})
}
