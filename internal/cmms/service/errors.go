package service

import (
	"errors"
	"fmt"
	"strings"
)

// 错误定义
var (
	// ErrInvalidTransition 非法的工单状态流转，工单保持原状
	ErrInvalidTransition = errors.New("invalid ticket transition")
	// ErrInvalidSchedule 保养计划频率配置非法，在写入时拒绝
	ErrInvalidSchedule = errors.New("invalid schedule configuration")
	// ErrInvalidQuestion 问题定义非法（如 CRITICAL_STOP 配 TEXT/PHOTO）
	ErrInvalidQuestion = errors.New("invalid question definition")
	// ErrTemplateImmutable 模板已被报告引用，题目集不可原地修改
	ErrTemplateImmutable = errors.New("template question set is immutable")
	// ErrHoursRegression 工时不允许回退
	ErrHoursRegression = errors.New("usage hours cannot decrease")
	// ErrTicketClosed 工单已关闭，费用台账封账
	ErrTicketClosed = errors.New("ticket is closed")
)

// FieldError 单个问题的校验错误
type FieldError struct {
	QuestionID string `json:"question_id"`
	OrderIndex int    `json:"order_index"`
	Reason     string `json:"reason"`
}

// ValidationError 报告校验错误
// 一次性收集全部不合格的问题，提交是全有或全无的。
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("Q%d: %s", f.OrderIndex, f.Reason))
	}
	return "report validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(questionID string, orderIndex int, reason string) {
	e.Fields = append(e.Fields, FieldError{QuestionID: questionID, OrderIndex: orderIndex, Reason: reason})
}

func (e *ValidationError) hasErrors() bool {
	return len(e.Fields) > 0
}
