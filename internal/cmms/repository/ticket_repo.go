package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/liftwise/liftwise/internal/cmms/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TicketRepository 工单仓库
type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// FindAll 查询工单列表
func (r *TicketRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Ticket, int64, error) {
	var items []entity.Ticket
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Ticket{})

	if equipmentID := filters["equipment_id"]; equipmentID != "" {
		query = query.Where("equipment_id = ?", equipmentID)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if priority := filters["priority"]; priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if source := filters["source"]; source != "" {
		query = query.Where("source = ?", source)
	}
	if assigneeID := filters["assignee_id"]; assigneeID != "" {
		query = query.Where("assignee_id = ?", assigneeID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找工单
func (r *TicketRepository) FindByID(ctx context.Context, id string) (*entity.Ticket, error) {
	var ticket entity.Ticket
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// FindAutoByReport 查找报告已生成的自动工单
func (r *TicketRepository) FindAutoByReport(ctx context.Context, reportID string) (*entity.Ticket, error) {
	var ticket entity.Ticket
	err := r.db.WithContext(ctx).
		Where("report_id = ? AND source = ?", reportID, entity.TicketSourceAuto).
		First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// Create 创建工单
func (r *TicketRepository) Create(ctx context.Context, ticket *entity.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

// CreateAuto 创建自动工单
// 唯一索引 uidx_tickets_auto_report 兜底幂等：并发重试同一报告时
// 冲突方直接跳过，调用侧再按 report_id 取已有工单。
func (r *TicketRepository) CreateAuto(ctx context.Context, ticket *entity.Ticket) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(ticket)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Update 更新工单
func (r *TicketRepository) Update(ctx context.Context, ticket *entity.Ticket) error {
	return r.db.WithContext(ctx).Save(ticket).Error
}

// NextTicketNumber 分配工单编号 TKT-{year}-{6位}
// 取号走数据库序列，由数据库串行化，并发创建不会撞号。
func (r *TicketRepository) NextTicketNumber(ctx context.Context) (string, error) {
	var seq int64
	err := r.db.WithContext(ctx).Raw("SELECT nextval('ticket_number_seq')").Scan(&seq).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TKT-%s-%06d", time.Now().Format("2006"), seq), nil
}

// AddCost 追加费用行项
func (r *TicketRepository) AddCost(ctx context.Context, cost *entity.TicketCost) error {
	return r.db.WithContext(ctx).Create(cost).Error
}

// ListCosts 查询工单费用行项
func (r *TicketRepository) ListCosts(ctx context.Context, ticketID string) ([]entity.TicketCost, error) {
	var costs []entity.TicketCost
	err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at").
		Find(&costs).Error
	return costs, err
}
