package entity

import (
	"time"
)

// 保养频率模式
const (
	FrequencyModeDays  = "DAYS"
	FrequencyModeHours = "HOURS"
)

// MaintenanceSchedule 保养计划
// frequency_mode 决定哪个到期标记有效：DAYS 用 next_due_at，
// HOURS 用 next_due_hours，另一个不推进。
type MaintenanceSchedule struct {
	ID             string     `json:"id" gorm:"primaryKey;size:36"`
	EquipmentID    string     `json:"equipment_id" gorm:"size:36;not null;index"`
	TaskName       string     `json:"task_name" gorm:"size:200;not null"`
	Description    string     `json:"description" gorm:"type:text"`
	FrequencyMode  string     `json:"frequency_mode" gorm:"size:10;not null"` // DAYS/HOURS
	FrequencyValue float64    `json:"frequency_value" gorm:"type:decimal(10,2);not null"`
	NextDueAt      *time.Time `json:"next_due_at"`
	NextDueHours   *float64   `json:"next_due_hours" gorm:"type:decimal(12,2)"`
	IsActive       bool       `json:"is_active" gorm:"default:true;index"`
	CreatedBy      string     `json:"created_by" gorm:"size:64;not null"`

	LastCompletedAt *time.Time `json:"last_completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Equipment *Equipment `json:"equipment,omitempty" gorm:"foreignKey:EquipmentID"`
}

func (MaintenanceSchedule) TableName() string {
	return "maintenance_schedules"
}

// ValidFrequencyMode 校验频率模式取值
func ValidFrequencyMode(m string) bool {
	return m == FrequencyModeDays || m == FrequencyModeHours
}
