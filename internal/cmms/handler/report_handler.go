package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/liftwise/liftwise/internal/cmms/repository"
	"github.com/liftwise/liftwise/internal/cmms/service"
)

// ReportHandler 点检报告处理器
type ReportHandler struct {
	svc *service.ReportService
}

// NewReportHandler 创建点检报告处理器
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Submit 提交点检报告
// POST /api/v1/reports
// 校验失败返回全部不合格项；关键失败会同步停用设备并开工单；
// 相同 client_ref 重复提交幂等返回首次结果。
func (h *ReportHandler) Submit(c *gin.Context) {
	var req service.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.svc.SubmitReport(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(400, Response{
				Code:    40000,
				Message: "报告校验失败",
				Data:    gin.H{"fields": verr.Fields},
			})
		case errors.Is(err, repository.ErrNotFound):
			NotFound(c, err.Error())
		default:
			InternalError(c, err.Error())
		}
		return
	}

	if result.Duplicate {
		Success(c, result)
		return
	}
	Created(c, result)
}

// List 报告列表
// GET /api/v1/reports
func (h *ReportHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"equipment_id": c.Query("equipment_id"),
		"user_id":      c.Query("user_id"),
		"critical":     c.Query("critical"),
	}

	items, total, err := h.svc.ListReports(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取报告列表失败: "+err.Error())
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

// Get 报告详情（含答案）
// GET /api/v1/reports/:id
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.svc.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "报告不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, report)
}
