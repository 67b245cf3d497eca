package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/liftwise/liftwise/internal/cmms/entity"
	"github.com/liftwise/liftwise/internal/cmms/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReportService 点检报告服务
type ReportService struct {
	db            *gorm.DB
	reportRepo    *repository.ReportRepository
	templateRepo  *repository.TemplateRepository
	equipmentRepo *repository.EquipmentRepository
	escalation    *EscalationService
	logger        *zap.Logger
}

// NewReportService 创建点检报告服务
func NewReportService(
	db *gorm.DB,
	reportRepo *repository.ReportRepository,
	templateRepo *repository.TemplateRepository,
	equipmentRepo *repository.EquipmentRepository,
	escalation *EscalationService,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		db:            db,
		reportRepo:    reportRepo,
		templateRepo:  templateRepo,
		equipmentRepo: equipmentRepo,
		escalation:    escalation,
		logger:        logger,
	}
}

// AnswerInput 单题答案
// 原始值一律以文本提交，按题目的 answer_type 解释：
// YES_NO 为 true/false，NUMBER 为十进制数，TEXT/PHOTO 为自由文本/取证引用。
type AnswerInput struct {
	QuestionID  string `json:"question_id" binding:"required"`
	Value       string `json:"value"`
	EvidenceRef string `json:"evidence_ref"`
}

// SubmitReportRequest 提交点检报告请求
type SubmitReportRequest struct {
	ClientRef   string        `json:"client_ref" binding:"required"` // 离线采集端幂等键
	EquipmentID string        `json:"equipment_id" binding:"required"`
	TemplateID  string        `json:"template_id" binding:"required"`
	CapturedAt  time.Time     `json:"captured_at" binding:"required"`
	Latitude    *float64      `json:"latitude"`
	Longitude   *float64      `json:"longitude"`
	Answers     []AnswerInput `json:"answers" binding:"required"`
}

// SubmitReportResult 提交点检报告结果
type SubmitReportResult struct {
	ReportID           string  `json:"report_id"`
	HasCriticalFailure bool    `json:"has_critical_failure"`
	TicketID           *string `json:"ticket_id,omitempty"` // 关键失败时生成的自动工单
	Duplicate          bool    `json:"duplicate"`           // 同一幂等键重复同步
}

// SubmitReport 提交点检报告
// 校验全有或全无：任一答案不合格则收集全部问题后整体拒绝。
// 成功时在同一事务内落库并同步执行升级处置，调用方收到成功响应时
// 设备状态变更已可见。
func (s *ReportService) SubmitReport(ctx context.Context, userID string, req *SubmitReportRequest) (*SubmitReportResult, error) {
	// 幂等：同一 client_ref 重复同步直接返回已有报告
	if existing, err := s.reportRepo.FindByClientRef(ctx, req.ClientRef); err == nil {
		return s.resultFor(ctx, existing, true)
	} else if err != repository.ErrNotFound {
		return nil, err
	}

	tmpl, err := s.templateRepo.FindWithQuestions(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}
	if !tmpl.IsActive {
		return nil, fmt.Errorf("模板已停用: %s", tmpl.Name)
	}
	if _, err := s.equipmentRepo.FindByID(ctx, req.EquipmentID); err != nil {
		return nil, err
	}

	answers, failing, hasCritical, verr := s.validateAnswers(tmpl, req.Answers)
	if verr != nil {
		return nil, verr
	}

	report := &entity.Report{
		ID:                 uuid.New().String(),
		ClientRef:          req.ClientRef,
		EquipmentID:        req.EquipmentID,
		TemplateID:         tmpl.ID,
		TemplateVersion:    tmpl.Version,
		UserID:             userID,
		CapturedAt:         req.CapturedAt,
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
		HasCriticalFailure: hasCritical,
	}

	var ticket *entity.Ticket
	duplicate := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// client_ref 唯一索引兜底并发重试：冲突方跳过写入，改走已有报告
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(report)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			duplicate = true
			return nil
		}
		for i := range answers {
			answers[i].ReportID = report.ID
			if err := tx.Create(&answers[i]).Error; err != nil {
				return err
			}
		}
		ticket, err = s.escalation.Process(ctx, tx, report, failing)
		return err
	})
	if err != nil {
		return nil, err
	}

	if duplicate {
		existing, err := s.reportRepo.FindByClientRef(ctx, req.ClientRef)
		if err != nil {
			return nil, err
		}
		return s.resultFor(ctx, existing, true)
	}

	result := &SubmitReportResult{
		ReportID:           report.ID,
		HasCriticalFailure: hasCritical,
	}
	if ticket != nil {
		result.TicketID = &ticket.ID
	}
	return result, nil
}

// resultFor 从已有报告构造提交结果（重复同步路径）
func (s *ReportService) resultFor(ctx context.Context, report *entity.Report, duplicate bool) (*SubmitReportResult, error) {
	result := &SubmitReportResult{
		ReportID:           report.ID,
		HasCriticalFailure: report.HasCriticalFailure,
		Duplicate:          duplicate,
	}
	if report.HasCriticalFailure {
		if ticket, err := s.escalation.ticketRepo.FindAutoByReport(ctx, report.ID); err == nil {
			result.TicketID = &ticket.ID
		}
	}
	return result, nil
}

// validateAnswers 校验答案并判定失败项
// 返回待落库的答案行、失败的关键题目和关键失败标记。
func (s *ReportService) validateAnswers(tmpl *entity.ChecklistTemplate, inputs []AnswerInput) ([]entity.ReportAnswer, []entity.ChecklistQuestion, bool, error) {
	verr := &ValidationError{}

	byQuestion := make(map[string]*AnswerInput, len(inputs))
	for i := range inputs {
		byQuestion[inputs[i].QuestionID] = &inputs[i]
	}

	known := make(map[string]bool, len(tmpl.Questions))
	answers := make([]entity.ReportAnswer, 0, len(tmpl.Questions))
	var failing []entity.ChecklistQuestion
	hasCritical := false

	for _, q := range tmpl.Questions {
		known[q.ID] = true
		in, ok := byQuestion[q.ID]
		if !ok {
			if !q.IsOptional {
				verr.add(q.ID, q.OrderIndex, "缺少答案")
			}
			continue
		}

		if reason := validateAnswerValue(&q, in); reason != "" {
			verr.add(q.ID, q.OrderIndex, reason)
			continue
		}

		isFailing := s.answerFailing(&q, in.Value)
		answers = append(answers, entity.ReportAnswer{
			ID:          uuid.New().String(),
			QuestionID:  q.ID,
			Value:       in.Value,
			EvidenceRef: in.EvidenceRef,
			IsFailing:   isFailing,
		})
		if isFailing && q.Severity == entity.SeverityCriticalStop {
			hasCritical = true
			failing = append(failing, q)
		}
	}

	// 答案指向模板之外的问题同样算校验失败
	for _, in := range inputs {
		if !known[in.QuestionID] {
			verr.add(in.QuestionID, 0, "问题不属于该模板版本")
		}
	}

	if verr.hasErrors() {
		return nil, nil, false, verr
	}
	return answers, failing, hasCritical, nil
}

// validateAnswerValue 按答案类型校验原始值，返回不合格原因
func validateAnswerValue(q *entity.ChecklistQuestion, in *AnswerInput) string {
	switch q.AnswerType {
	case entity.AnswerTypeYesNo:
		if in.Value != "true" && in.Value != "false" {
			return "YES_NO 答案必须是 true 或 false"
		}
	case entity.AnswerTypeNumber:
		v, err := strconv.ParseFloat(in.Value, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return "NUMBER 答案必须是有限数值"
		}
	case entity.AnswerTypeText:
		if in.Value == "" && !q.IsOptional {
			return "TEXT 答案不能为空"
		}
	case entity.AnswerTypePhoto:
		if in.EvidenceRef == "" {
			return "PHOTO 答案缺少取证引用"
		}
	}
	if q.RequiresEvidence && in.EvidenceRef == "" {
		return "该问题要求拍照取证"
	}
	return ""
}

// answerFailing 判定答案是否为失败
// YES_NO 约定 false 为失败；NUMBER 超出配置的合格范围为失败，
// CRITICAL_STOP 的 NUMBER 题未配置范围属配置错误，仅告警不判失败。
func (s *ReportService) answerFailing(q *entity.ChecklistQuestion, value string) bool {
	switch q.AnswerType {
	case entity.AnswerTypeYesNo:
		return value == "false"
	case entity.AnswerTypeNumber:
		if !q.HasRange() {
			if q.Severity == entity.SeverityCriticalStop {
				s.logger.Warn("CRITICAL_STOP number question has no acceptable range configured",
					zap.String("question_id", q.ID),
					zap.Int("order_index", q.OrderIndex))
			}
			return false
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return false
		}
		if q.MinValue != nil && v < *q.MinValue {
			return true
		}
		if q.MaxValue != nil && v > *q.MaxValue {
			return true
		}
		return false
	}
	return false
}

// ListReports 查询报告列表
func (s *ReportService) ListReports(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Report, int64, error) {
	return s.reportRepo.FindAll(ctx, page, pageSize, filters)
}

// GetReport 查询报告详情
func (s *ReportService) GetReport(ctx context.Context, id string) (*entity.Report, error) {
	return s.reportRepo.FindByID(ctx, id)
}
