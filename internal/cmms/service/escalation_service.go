package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/liftwise/liftwise/internal/cmms/entity"
	"github.com/liftwise/liftwise/internal/cmms/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EscalationService 升级处置引擎
// 对已落库的点检报告做决策：关键失败 → 设备停用 + 自动工单。
// 自身无持久状态，全部效果通过传入的事务句柄写出。
type EscalationService struct {
	ticketRepo *repository.TicketRepository
	logger     *zap.Logger
}

// NewEscalationService 创建升级处置引擎
func NewEscalationService(ticketRepo *repository.TicketRepository, logger *zap.Logger) *EscalationService {
	return &EscalationService{ticketRepo: ticketRepo, logger: logger}
}

// Process 处理一份报告的升级效果，返回生成（或已存在）的自动工单
// 无关键失败时不产生任何效果。幂等：同一报告重复处理不会生成第二张
// 工单，tickets(report_id) 的部分唯一索引在并发重试下兜底。
func (s *EscalationService) Process(ctx context.Context, tx *gorm.DB, report *entity.Report, failing []entity.ChecklistQuestion) (*entity.Ticket, error) {
	if !report.HasCriticalFailure {
		return nil, nil
	}

	// 关键失败无条件停用设备，人工设置的 MAINTENANCE 也会被覆盖
	if err := tx.Model(&entity.Equipment{}).
		Where("id = ?", report.EquipmentID).
		Update("operational_status", entity.EquipmentStatusOutOfService).Error; err != nil {
		return nil, fmt.Errorf("设备停用失败: %w", err)
	}

	// 应用层先查一次，正常重试路径不触发唯一索引冲突
	existing, err := s.ticketRepo.FindAutoByReport(ctx, report.ID)
	if err == nil {
		return existing, nil
	}
	if err != repository.ErrNotFound {
		return nil, err
	}

	var seq int64
	if err := tx.Raw("SELECT nextval('ticket_number_seq')").Scan(&seq).Error; err != nil {
		return nil, fmt.Errorf("分配工单编号失败: %w", err)
	}

	reportID := report.ID
	ticket := &entity.Ticket{
		ID:          uuid.New().String(),
		TicketNo:    fmt.Sprintf("TKT-%s-%06d", time.Now().Format("2006"), seq),
		EquipmentID: report.EquipmentID,
		ReportID:    &reportID,
		Source:      entity.TicketSourceAuto,
		Status:      entity.TicketStatusOpen,
		Priority:    entity.TicketPriorityCritical,
		Description: buildEscalationDescription(failing),
		CreatedBy:   report.UserID,
	}

	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(ticket)
	if res.Error != nil {
		return nil, fmt.Errorf("创建自动工单失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// 并发重试撞上唯一索引，拿已有工单返回
		s.logger.Info("Duplicate escalation suppressed",
			zap.String("report_id", report.ID))
		var winner entity.Ticket
		if err := tx.Where("report_id = ? AND source = ?", report.ID, entity.TicketSourceAuto).
			First(&winner).Error; err != nil {
			return nil, err
		}
		return &winner, nil
	}

	s.logger.Info("Critical failure escalated",
		zap.String("report_id", report.ID),
		zap.String("equipment_id", report.EquipmentID),
		zap.String("ticket_no", ticket.TicketNo),
		zap.Int("failing_questions", len(failing)))

	return ticket, nil
}

// buildEscalationDescription 用失败题目拼装工单描述，每条带题号前缀
func buildEscalationDescription(failing []entity.ChecklistQuestion) string {
	if len(failing) == 0 {
		return "点检发现关键失败"
	}
	lines := make([]string, 0, len(failing)+1)
	lines = append(lines, "点检关键失败，设备已停用:")
	for _, q := range failing {
		lines = append(lines, fmt.Sprintf("[%d] %s", q.OrderIndex, q.Text))
	}
	return strings.Join(lines, "\n")
}
