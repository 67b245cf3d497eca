package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/liftwise/liftwise/internal/cmms/repository"
	"github.com/liftwise/liftwise/internal/cmms/service"
)

// TemplateHandler 点检模板处理器
type TemplateHandler struct {
	svc *service.TemplateService
}

// NewTemplateHandler 创建点检模板处理器
func NewTemplateHandler(svc *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

// List 模板列表
// GET /api/v1/templates?client_id=xxx&active_only=true
func (h *TemplateHandler) List(c *gin.Context) {
	activeOnly := c.Query("active_only") == "true"
	items, err := h.svc.ListTemplates(c.Request.Context(), c.Query("client_id"), activeOnly)
	if err != nil {
		InternalError(c, "获取模板列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// Create 创建模板
// POST /api/v1/templates
func (h *TemplateHandler) Create(c *gin.Context) {
	var req service.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	tmpl, err := h.svc.CreateTemplate(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidQuestion) {
			BadRequest(c, err.Error())
			return
		}
		InternalError(c, err.Error())
		return
	}
	Created(c, tmpl)
}

// Get 模板详情（含题目）
// GET /api/v1/templates/:id
func (h *TemplateHandler) Get(c *gin.Context) {
	tmpl, err := h.svc.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "模板不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, tmpl)
}

// Update 更新模板（题目集变更可能产生新版本）
// PUT /api/v1/templates/:id
func (h *TemplateHandler) Update(c *gin.Context) {
	var req service.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	tmpl, err := h.svc.UpdateTemplate(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			NotFound(c, "模板不存在")
		case errors.Is(err, service.ErrInvalidQuestion):
			BadRequest(c, err.Error())
		default:
			InternalError(c, err.Error())
		}
		return
	}
	Success(c, tmpl)
}

// Deactivate 停用模板
// POST /api/v1/templates/:id/deactivate
func (h *TemplateHandler) Deactivate(c *gin.Context) {
	if err := h.svc.DeactivateTemplate(c.Request.Context(), c.Param("id")); err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"message": "deactivated"})
}
