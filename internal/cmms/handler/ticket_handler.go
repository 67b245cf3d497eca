package handler

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/liftwise/liftwise/internal/cmms/repository"
	"github.com/liftwise/liftwise/internal/cmms/service"
)

// TicketHandler 维修工单处理器
type TicketHandler struct {
	svc *service.TicketService
}

// NewTicketHandler 创建维修工单处理器
func NewTicketHandler(svc *service.TicketService) *TicketHandler {
	return &TicketHandler{svc: svc}
}

// List 工单列表
// GET /api/v1/tickets
func (h *TicketHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"equipment_id": c.Query("equipment_id"),
		"status":       c.Query("status"),
		"priority":     c.Query("priority"),
		"source":       c.Query("source"),
		"assignee_id":  c.Query("assignee_id"),
	}

	items, total, err := h.svc.ListTickets(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取工单列表失败: "+err.Error())
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

// Create 手工创建工单
// POST /api/v1/tickets
func (h *TicketHandler) Create(c *gin.Context) {
	var req service.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	ticket, err := h.svc.CreateTicket(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Created(c, ticket)
}

// Get 工单详情
// GET /api/v1/tickets/:id
func (h *TicketHandler) Get(c *gin.Context) {
	ticket, err := h.svc.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "工单不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, ticket)
}

// Assign 指派工单
// POST /api/v1/tickets/:id/assign
func (h *TicketHandler) Assign(c *gin.Context) {
	var req struct {
		AssigneeID string `json:"assignee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	ticket, err := h.svc.AssignTicket(c.Request.Context(), c.Param("id"), req.AssigneeID)
	if err != nil {
		h.transitionError(c, err)
		return
	}
	Success(c, ticket)
}

// Resolve 完成维修
// POST /api/v1/tickets/:id/resolve
func (h *TicketHandler) Resolve(c *gin.Context) {
	var req service.ResolveTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	ticket, err := h.svc.ResolveTicket(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.transitionError(c, err)
		return
	}
	Success(c, ticket)
}

// Close 关闭工单
// POST /api/v1/tickets/:id/close
func (h *TicketHandler) Close(c *gin.Context) {
	ticket, err := h.svc.CloseTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.transitionError(c, err)
		return
	}
	Success(c, ticket)
}

// AddCost 记录费用
// POST /api/v1/tickets/:id/costs
func (h *TicketHandler) AddCost(c *gin.Context) {
	var req service.AddCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	cost, err := h.svc.AddCost(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			NotFound(c, "工单不存在")
		case errors.Is(err, service.ErrTicketClosed):
			Conflict(c, "工单已关闭，不能再记录费用")
		default:
			BadRequest(c, err.Error())
		}
		return
	}
	Created(c, cost)
}

// Costs 工单费用汇总
// GET /api/v1/tickets/:id/costs
func (h *TicketHandler) Costs(c *gin.Context) {
	summary, err := h.svc.GetCostSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "工单不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, summary)
}

// ExportCosts 导出费用台账为 Excel
// GET /api/v1/tickets/:id/costs/export
func (h *TicketHandler) ExportCosts(c *gin.Context) {
	f, err := h.svc.ExportCosts(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "工单不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}

	fileName := url.QueryEscape("费用台账.xlsx")
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", fileName))
	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "写出文件失败: "+err.Error())
	}
}

// transitionError 统一映射状态流转错误
func (h *TicketHandler) transitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "工单不存在")
	case errors.Is(err, service.ErrInvalidTransition):
		Conflict(c, err.Error())
	default:
		BadRequest(c, err.Error())
	}
}
