package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/liftwise/liftwise/internal/cmms/repository"
	"github.com/liftwise/liftwise/internal/cmms/service"
)

// ScheduleHandler 保养计划处理器
type ScheduleHandler struct {
	svc *service.ScheduleService
}

// NewScheduleHandler 创建保养计划处理器
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{svc: svc}
}

// List 保养计划列表
// GET /api/v1/schedules
func (h *ScheduleHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"equipment_id": c.Query("equipment_id"),
		"active":       c.Query("active"),
	}

	items, total, err := h.svc.ListSchedules(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取保养计划列表失败: "+err.Error())
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

// Create 创建保养计划
// POST /api/v1/schedules
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req service.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	schedule, err := h.svc.CreateSchedule(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSchedule):
			BadRequest(c, err.Error())
		case errors.Is(err, repository.ErrNotFound):
			NotFound(c, "设备不存在")
		default:
			InternalError(c, err.Error())
		}
		return
	}
	Created(c, schedule)
}

// Get 保养计划详情
// GET /api/v1/schedules/:id
func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.svc.GetSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "保养计划不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, schedule)
}

// Update 更新保养计划
// PUT /api/v1/schedules/:id
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req service.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	schedule, err := h.svc.UpdateSchedule(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			NotFound(c, "保养计划不存在")
		case errors.Is(err, service.ErrInvalidSchedule):
			BadRequest(c, err.Error())
		default:
			InternalError(c, err.Error())
		}
		return
	}
	Success(c, schedule)
}

// Evaluate 评估保养计划是否到期
// GET /api/v1/schedules/:id/evaluate
func (h *ScheduleHandler) Evaluate(c *gin.Context) {
	result, err := h.svc.Evaluate(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "保养计划不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, result)
}

// Due 全部到期的保养计划
// GET /api/v1/schedules/due
func (h *ScheduleHandler) Due(c *gin.Context) {
	items, err := h.svc.DueSchedules(c.Request.Context())
	if err != nil {
		InternalError(c, "获取到期保养计划失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// Complete 完成保养并推进到期标记
// POST /api/v1/schedules/:id/complete
func (h *ScheduleHandler) Complete(c *gin.Context) {
	var req service.CompleteScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	schedule, err := h.svc.CompleteSchedule(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			NotFound(c, "保养计划不存在")
		case errors.Is(err, service.ErrInvalidSchedule):
			BadRequest(c, err.Error())
		default:
			InternalError(c, err.Error())
		}
		return
	}
	Success(c, schedule)
}

// Delete 删除保养计划
// DELETE /api/v1/schedules/:id
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteSchedule(c.Request.Context(), c.Param("id")); err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"message": "deleted"})
}
