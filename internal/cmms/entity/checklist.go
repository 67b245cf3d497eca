package entity

import (
	"time"
)

// 答案类型
const (
	AnswerTypeYesNo  = "YES_NO"
	AnswerTypeText   = "TEXT"
	AnswerTypeNumber = "NUMBER"
	AnswerTypePhoto  = "PHOTO"
)

// 问题严重级别
const (
	SeverityInfo         = "INFO"
	SeverityWarning      = "WARNING"
	SeverityCriticalStop = "CRITICAL_STOP"
)

// ChecklistTemplate 点检模板
// 同一 base_id 下 version 单调递增；被报告引用后题目集不可变，
// 结构性修改必须生成新版本。
type ChecklistTemplate struct {
	ID          string  `json:"id" gorm:"primaryKey;size:36"`
	BaseID      string  `json:"base_id" gorm:"size:36;not null;index"` // 同一模板的不同版本共享base_id
	Name        string  `json:"name" gorm:"size:200;not null"`
	Description string  `json:"description" gorm:"type:text"`
	Version     int     `json:"version" gorm:"not null;default:1"`
	IsActive    bool    `json:"is_active" gorm:"default:true;index"`
	ClientID    *string `json:"client_id" gorm:"size:36;index"` // null = 全局模板
	CreatedBy   string  `json:"created_by" gorm:"size:64;not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	Questions []ChecklistQuestion `json:"questions,omitempty" gorm:"foreignKey:TemplateID"`
}

func (ChecklistTemplate) TableName() string {
	return "checklist_templates"
}

// ChecklistQuestion 点检问题
type ChecklistQuestion struct {
	ID               string   `json:"id" gorm:"primaryKey;size:36"`
	TemplateID       string   `json:"template_id" gorm:"size:36;not null;index:idx_question_template_order,unique,priority:1"`
	OrderIndex       int      `json:"order_index" gorm:"not null;index:idx_question_template_order,unique,priority:2"`
	Text             string   `json:"text" gorm:"size:500;not null"`
	AnswerType       string   `json:"answer_type" gorm:"size:10;not null"` // YES_NO/TEXT/NUMBER/PHOTO
	Severity         string   `json:"severity" gorm:"size:20;not null;default:INFO"`
	IsOptional       bool     `json:"is_optional" gorm:"default:false"`
	RequiresEvidence bool     `json:"requires_evidence" gorm:"default:false"` // 强制拍照取证
	MinValue         *float64 `json:"min_value" gorm:"type:decimal(15,4)"`    // NUMBER 合格范围下限
	MaxValue         *float64 `json:"max_value" gorm:"type:decimal(15,4)"`    // NUMBER 合格范围上限

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ChecklistQuestion) TableName() string {
	return "checklist_questions"
}

// ValidAnswerType 校验答案类型取值
func ValidAnswerType(t string) bool {
	switch t {
	case AnswerTypeYesNo, AnswerTypeText, AnswerTypeNumber, AnswerTypePhoto:
		return true
	}
	return false
}

// ValidSeverity 校验严重级别取值
func ValidSeverity(s string) bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCriticalStop:
		return true
	}
	return false
}

// HasRange NUMBER 问题是否配置了合格范围
func (q *ChecklistQuestion) HasRange() bool {
	return q.MinValue != nil || q.MaxValue != nil
}
