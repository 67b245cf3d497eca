package entity

import (
	"time"
)

// 设备运行状态
const (
	EquipmentStatusOperational  = "OPERATIONAL"
	EquipmentStatusMaintenance  = "MAINTENANCE"
	EquipmentStatusOutOfService = "OUT_OF_SERVICE"
)

// Equipment 叉车设备
type Equipment struct {
	ID                string  `json:"id" gorm:"primaryKey;size:36"`
	Code              string  `json:"code" gorm:"size:50;uniqueIndex;not null"`
	Brand             string  `json:"brand" gorm:"size:100;not null"`
	Model             string  `json:"model" gorm:"size:100;not null"`
	SerialNumber      string  `json:"serial_number" gorm:"size:100;uniqueIndex;not null"`
	OperationalStatus string  `json:"operational_status" gorm:"size:20;not null;default:OPERATIONAL"`
	CurrentHours      float64 `json:"current_hours" gorm:"type:decimal(12,2);default:0"` // 累计使用工时
	ClientID          *string `json:"client_id" gorm:"size:36;index"`
	Location          string  `json:"location" gorm:"size:200"`
	Notes             string  `json:"notes" gorm:"type:text"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at" gorm:"index"`
}

func (Equipment) TableName() string {
	return "equipment"
}

// ValidEquipmentStatus 校验设备状态取值
func ValidEquipmentStatus(s string) bool {
	switch s {
	case EquipmentStatusOperational, EquipmentStatusMaintenance, EquipmentStatusOutOfService:
		return true
	}
	return false
}
