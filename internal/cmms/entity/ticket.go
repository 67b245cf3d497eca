package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// 工单状态（只进不退）
const (
	TicketStatusOpen       = "OPEN"
	TicketStatusInProgress = "IN_PROGRESS"
	TicketStatusResolved   = "RESOLVED"
	TicketStatusClosed     = "CLOSED"
)

// 工单优先级
const (
	TicketPriorityLow      = "LOW"
	TicketPriorityMedium   = "MEDIUM"
	TicketPriorityHigh     = "HIGH"
	TicketPriorityCritical = "CRITICAL"
)

// 工单来源
const (
	TicketSourceManual = "MANUAL"
	TicketSourceAuto   = "AUTO" // 点检关键失败自动生成
)

// 费用类型
const (
	CostTypePart  = "PART"
	CostTypeLabor = "LABOR"
	CostTypeMisc  = "MISC"
)

// Ticket 维修工单
// 自动工单通过 tickets(report_id) 的部分唯一索引保证同一报告
// 最多生成一张（并发重试下依然成立）。
type Ticket struct {
	ID          string  `json:"id" gorm:"primaryKey;size:36"`
	TicketNo    string  `json:"ticket_no" gorm:"size:32;uniqueIndex;not null"`
	EquipmentID string  `json:"equipment_id" gorm:"size:36;not null;index"`
	ReportID    *string `json:"report_id" gorm:"size:36;index"` // 自动工单关联的点检报告
	Source      string  `json:"source" gorm:"size:10;not null;default:MANUAL"`
	Status      string  `json:"status" gorm:"size:20;not null;default:OPEN;index"`
	Priority    string  `json:"priority" gorm:"size:10;not null;default:MEDIUM"`
	Description string  `json:"description" gorm:"type:text;not null"`
	AssigneeID  *string `json:"assignee_id" gorm:"size:64"`
	Resolution  string  `json:"resolution" gorm:"type:text"` // 维修记录

	AssignedAt *time.Time `json:"assigned_at"`
	ResolvedAt *time.Time `json:"resolved_at"`
	ClosedAt   *time.Time `json:"closed_at"`

	CreatedBy string    `json:"created_by" gorm:"size:64;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	Costs []TicketCost `json:"costs,omitempty" gorm:"foreignKey:TicketID"`
}

func (Ticket) TableName() string {
	return "tickets"
}

// TicketCost 工单费用行项
// 只追加不修改，更正通过冲销行实现；total_cost 始终由服务端
// 按 quantity * unit_cost 计算。
type TicketCost struct {
	ID          string          `json:"id" gorm:"primaryKey;size:36"`
	TicketID    string          `json:"ticket_id" gorm:"size:36;not null;index"`
	CostType    string          `json:"cost_type" gorm:"size:10;not null"` // PART/LABOR/MISC
	Description string          `json:"description" gorm:"size:500;not null"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:decimal(12,4);not null"`
	UnitCost    decimal.Decimal `json:"unit_cost" gorm:"type:decimal(15,2);not null"`
	TotalCost   decimal.Decimal `json:"total_cost" gorm:"type:decimal(15,2);not null"`
	IsBillable  bool            `json:"is_billable" gorm:"default:true"`
	CreatedBy   string          `json:"created_by" gorm:"size:64;not null"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (TicketCost) TableName() string {
	return "ticket_costs"
}

// ValidTicketPriority 校验优先级取值
func ValidTicketPriority(p string) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// ValidCostType 校验费用类型取值
func ValidCostType(t string) bool {
	switch t {
	case CostTypePart, CostTypeLabor, CostTypeMisc:
		return true
	}
	return false
}
