package entity

import (
	"time"
)

// Report 点检报告
// 同步落库后不可变，仅追加（审计记录）。client_ref 为离线采集端生成的
// 幂等键，同一 client_ref 重复同步返回已有报告。
type Report struct {
	ID                 string   `json:"id" gorm:"primaryKey;size:36"`
	ClientRef          string   `json:"client_ref" gorm:"size:64;uniqueIndex;not null"`
	EquipmentID        string   `json:"equipment_id" gorm:"size:36;not null;index"`
	TemplateID         string   `json:"template_id" gorm:"size:36;not null;index"`
	TemplateVersion    int      `json:"template_version" gorm:"not null"` // 采集时的模板版本快照
	UserID             string   `json:"user_id" gorm:"size:64;not null;index"`
	CapturedAt         time.Time `json:"captured_at" gorm:"not null"`
	Latitude           *float64 `json:"latitude" gorm:"type:decimal(10,7)"`
	Longitude          *float64 `json:"longitude" gorm:"type:decimal(10,7)"`
	HasCriticalFailure bool     `json:"has_critical_failure" gorm:"default:false;index"`

	CreatedAt time.Time `json:"created_at"`

	// 关联
	Answers []ReportAnswer `json:"answers,omitempty" gorm:"foreignKey:ReportID"`
}

func (Report) TableName() string {
	return "reports"
}

// ReportAnswer 点检答案
// 每题一条记录，原始值以文本保存，按问题的 answer_type 解释。
type ReportAnswer struct {
	ID          string `json:"id" gorm:"primaryKey;size:36"`
	ReportID    string `json:"report_id" gorm:"size:36;not null;index:idx_answer_report_question,unique,priority:1"`
	QuestionID  string `json:"question_id" gorm:"size:36;not null;index:idx_answer_report_question,unique,priority:2"`
	Value       string `json:"value" gorm:"type:text;not null"`
	EvidenceRef string `json:"evidence_ref" gorm:"size:500"` // 照片取证引用
	IsFailing   bool   `json:"is_failing" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
}

func (ReportAnswer) TableName() string {
	return "report_answers"
}
