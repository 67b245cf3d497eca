package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	User      *UserRepository
	Equipment *EquipmentRepository
	Template  *TemplateRepository
	Report    *ReportRepository
	Schedule  *ScheduleRepository
	Ticket    *TicketRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:      NewUserRepository(db),
		Equipment: NewEquipmentRepository(db),
		Template:  NewTemplateRepository(db),
		Report:    NewReportRepository(db),
		Schedule:  NewScheduleRepository(db),
		Ticket:    NewTicketRepository(db),
	}
}
