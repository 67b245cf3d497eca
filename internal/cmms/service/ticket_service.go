package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/liftwise/liftwise/internal/cmms/entity"
	"github.com/liftwise/liftwise/internal/cmms/repository"
)

// TicketService 维修工单服务
// 状态机只进不退：OPEN → IN_PROGRESS → RESOLVED → CLOSED。
type TicketService struct {
	repo     *repository.TicketRepository
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

// NewTicketService 创建维修工单服务
func NewTicketService(repo *repository.TicketRepository, userRepo *repository.UserRepository, logger *zap.Logger) *TicketService {
	return &TicketService{repo: repo, userRepo: userRepo, logger: logger}
}

// CreateTicketRequest 手工创建工单请求
type CreateTicketRequest struct {
	EquipmentID string `json:"equipment_id" binding:"required"`
	Priority    string `json:"priority" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// CreateTicket 手工创建工单
func (s *TicketService) CreateTicket(ctx context.Context, userID string, req *CreateTicketRequest) (*entity.Ticket, error) {
	if !entity.ValidTicketPriority(req.Priority) {
		return nil, fmt.Errorf("未知优先级: %s", req.Priority)
	}

	ticketNo, err := s.repo.NextTicketNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("生成工单编号失败: %w", err)
	}

	ticket := &entity.Ticket{
		ID:          uuid.New().String(),
		TicketNo:    ticketNo,
		EquipmentID: req.EquipmentID,
		Source:      entity.TicketSourceManual,
		Status:      entity.TicketStatusOpen,
		Priority:    req.Priority,
		Description: req.Description,
		CreatedBy:   userID,
	}
	if err := s.repo.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("创建工单失败: %w", err)
	}

	s.logger.Info("Ticket created",
		zap.String("ticket_no", ticket.TicketNo),
		zap.String("equipment_id", ticket.EquipmentID),
		zap.String("priority", ticket.Priority))
	return ticket, nil
}

// AssignTicket 指派工单：OPEN → IN_PROGRESS
func (s *TicketService) AssignTicket(ctx context.Context, id, assigneeID string) (*entity.Ticket, error) {
	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status != entity.TicketStatusOpen {
		return nil, fmt.Errorf("%w: %s 状态不能指派", ErrInvalidTransition, ticket.Status)
	}

	assignee, err := s.userRepo.FindByID(ctx, assigneeID)
	if err != nil {
		return nil, fmt.Errorf("指派对象不存在: %w", err)
	}
	if assignee.Role != entity.RoleTechnician && assignee.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("只能指派给维修技师")
	}

	now := time.Now()
	ticket.Status = entity.TicketStatusInProgress
	ticket.AssigneeID = &assigneeID
	ticket.AssignedAt = &now
	if err := s.repo.Update(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// ResolveTicketRequest 完成维修请求
type ResolveTicketRequest struct {
	Resolution string `json:"resolution" binding:"required"`
}

// ResolveTicket 完成维修：IN_PROGRESS → RESOLVED
func (s *TicketService) ResolveTicket(ctx context.Context, id string, req *ResolveTicketRequest) (*entity.Ticket, error) {
	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status != entity.TicketStatusInProgress {
		return nil, fmt.Errorf("%w: %s 状态不能完成维修", ErrInvalidTransition, ticket.Status)
	}

	now := time.Now()
	ticket.Status = entity.TicketStatusResolved
	ticket.Resolution = req.Resolution
	ticket.ResolvedAt = &now
	return ticket, s.repo.Update(ctx, ticket)
}

// CloseTicket 关闭工单：RESOLVED → CLOSED，关闭后费用台账封账
func (s *TicketService) CloseTicket(ctx context.Context, id string) (*entity.Ticket, error) {
	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status != entity.TicketStatusResolved {
		return nil, fmt.Errorf("%w: %s 状态不能关闭", ErrInvalidTransition, ticket.Status)
	}

	now := time.Now()
	ticket.Status = entity.TicketStatusClosed
	ticket.ClosedAt = &now
	return ticket, s.repo.Update(ctx, ticket)
}

// AddCostRequest 记录费用请求
// 总价由服务端计算，客户端传入的总价一律忽略。
type AddCostRequest struct {
	CostType    string          `json:"cost_type" binding:"required"`
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost    decimal.Decimal `json:"unit_cost" binding:"required"`
	IsBillable  bool            `json:"is_billable"`
}

// AddCost 在工单下记录一条费用（只追加，不修改不删除）
func (s *TicketService) AddCost(ctx context.Context, ticketID, userID string, req *AddCostRequest) (*entity.TicketCost, error) {
	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == entity.TicketStatusClosed {
		return nil, ErrTicketClosed
	}
	if !entity.ValidCostType(req.CostType) {
		return nil, fmt.Errorf("未知费用类型: %s", req.CostType)
	}
	if req.Quantity.IsNegative() || req.UnitCost.IsNegative() {
		return nil, fmt.Errorf("数量和单价不能为负")
	}

	cost := &entity.TicketCost{
		ID:          uuid.New().String(),
		TicketID:    ticketID,
		CostType:    req.CostType,
		Description: req.Description,
		Quantity:    req.Quantity,
		UnitCost:    req.UnitCost,
		TotalCost:   req.Quantity.Mul(req.UnitCost).Round(2),
		IsBillable:  req.IsBillable,
		CreatedBy:   userID,
	}
	if err := s.repo.AddCost(ctx, cost); err != nil {
		return nil, fmt.Errorf("记录费用失败: %w", err)
	}
	return cost, nil
}

// CostSummary 工单费用汇总
type CostSummary struct {
	TicketID         string                     `json:"ticket_id"`
	Total            decimal.Decimal            `json:"total"`
	BillableTotal    decimal.Decimal            `json:"billable_total"`
	NonBillableTotal decimal.Decimal            `json:"non_billable_total"`
	ByType           map[string]decimal.Decimal `json:"by_type"`
	Items            []entity.TicketCost        `json:"items"`
}

// GetCostSummary 查询工单费用汇总
func (s *TicketService) GetCostSummary(ctx context.Context, ticketID string) (*CostSummary, error) {
	if _, err := s.repo.FindByID(ctx, ticketID); err != nil {
		return nil, err
	}
	costs, err := s.repo.ListCosts(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	summary := &CostSummary{
		TicketID: ticketID,
		ByType:   make(map[string]decimal.Decimal),
		Items:    costs,
	}
	for _, c := range costs {
		summary.Total = summary.Total.Add(c.TotalCost)
		if c.IsBillable {
			summary.BillableTotal = summary.BillableTotal.Add(c.TotalCost)
		} else {
			summary.NonBillableTotal = summary.NonBillableTotal.Add(c.TotalCost)
		}
		summary.ByType[c.CostType] = summary.ByType[c.CostType].Add(c.TotalCost)
	}
	return summary, nil
}

// ExportCosts 导出工单费用台账为 Excel
func (s *TicketService) ExportCosts(ctx context.Context, ticketID string) (*excelize.File, error) {
	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	costs, err := s.repo.ListCosts(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "费用台账"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"工单编号", "费用类型", "说明", "数量", "单价", "总价", "可计费", "记录时间"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	f.SetRowStyle(sheet, 1, 1, headerStyle)

	total := decimal.Zero
	for i, c := range costs {
		row := i + 2
		billable := "否"
		if c.IsBillable {
			billable = "是"
		}
		values := []interface{}{
			ticket.TicketNo,
			c.CostType,
			c.Description,
			c.Quantity.String(),
			c.UnitCost.String(),
			c.TotalCost.String(),
			billable,
			c.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(sheet, cell, v)
		}
		total = total.Add(c.TotalCost)
	}

	sumRow := len(costs) + 2
	f.SetCellValue(sheet, fmt.Sprintf("E%d", sumRow), "合计")
	f.SetCellValue(sheet, fmt.Sprintf("F%d", sumRow), total.String())

	return f, nil
}

// ListTickets 查询工单列表
func (s *TicketService) ListTickets(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Ticket, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

// GetTicket 查询工单详情
func (s *TicketService) GetTicket(ctx context.Context, id string) (*entity.Ticket, error) {
	return s.repo.FindByID(ctx, id)
}
