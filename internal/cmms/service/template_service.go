package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/liftwise/liftwise/internal/cmms/entity"
	"github.com/liftwise/liftwise/internal/cmms/repository"
)

// TemplateService 点检模板服务
// 已被报告引用的模板版本不可变，改题目集会落成一个新版本行，
// 历史报告引用的版本原样保留。
type TemplateService struct {
	repo *repository.TemplateRepository
}

// NewTemplateService 创建点检模板服务
func NewTemplateService(repo *repository.TemplateRepository) *TemplateService {
	return &TemplateService{repo: repo}
}

// QuestionInput 模板问题输入
type QuestionInput struct {
	Text             string   `json:"text" binding:"required"`
	AnswerType       string   `json:"answer_type" binding:"required"`
	Severity         string   `json:"severity" binding:"required"`
	OrderIndex       int      `json:"order_index"`
	IsOptional       bool     `json:"is_optional"`
	RequiresEvidence bool     `json:"requires_evidence"`
	MinValue         *float64 `json:"min_value"`
	MaxValue         *float64 `json:"max_value"`
}

// CreateTemplateRequest 创建模板请求
type CreateTemplateRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	ClientID    *string         `json:"client_id"` // 空表示全局模板
	Questions   []QuestionInput `json:"questions" binding:"required"`
}

// CreateTemplate 创建模板（版本1）
func (s *TemplateService) CreateTemplate(ctx context.Context, userID string, req *CreateTemplateRequest) (*entity.ChecklistTemplate, error) {
	if err := validateQuestions(req.Questions); err != nil {
		return nil, err
	}

	baseID := uuid.New().String()
	template := &entity.ChecklistTemplate{
		ID:          uuid.New().String(),
		BaseID:      baseID,
		Version:     1,
		Name:        req.Name,
		Description: req.Description,
		ClientID:    req.ClientID,
		IsActive:    true,
		CreatedBy:   userID,
	}
	questions := buildQuestions(template.ID, req.Questions)

	if err := s.repo.CreateWithQuestions(ctx, template, questions); err != nil {
		return nil, fmt.Errorf("创建模板失败: %w", err)
	}
	template.Questions = questions
	return template, nil
}

// UpdateTemplateRequest 更新模板请求
// Questions 为空表示只改元信息，不触发版本升级。
type UpdateTemplateRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Questions   []QuestionInput `json:"questions"`
}

// UpdateTemplate 更新模板
// 题目集变更时：若当前版本已有报告引用，生成新版本行并停用旧
// 版本；否则原地替换题目。元信息（名称、说明）始终原地改。
func (s *TemplateService) UpdateTemplate(ctx context.Context, id, userID string, req *UpdateTemplateRequest) (*entity.ChecklistTemplate, error) {
	template, err := s.repo.FindWithQuestions(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(req.Questions) == 0 {
		if req.Name != nil {
			template.Name = *req.Name
		}
		if req.Description != nil {
			template.Description = *req.Description
		}
		if err := s.repo.Update(ctx, template); err != nil {
			return nil, err
		}
		return template, nil
	}

	if err := validateQuestions(req.Questions); err != nil {
		return nil, err
	}

	referenced, err := s.repo.HasReports(ctx, template.ID)
	if err != nil {
		return nil, err
	}

	if !referenced {
		// 未被引用，原地替换题目集
		if req.Name != nil {
			template.Name = *req.Name
		}
		if req.Description != nil {
			template.Description = *req.Description
		}
		questions := buildQuestions(template.ID, req.Questions)
		if err := s.repo.ReplaceQuestions(ctx, template, questions); err != nil {
			return nil, fmt.Errorf("更新模板失败: %w", err)
		}
		template.Questions = questions
		return template, nil
	}

	// 已被报告引用，落新版本
	maxVersion, err := s.repo.MaxVersion(ctx, template.BaseID)
	if err != nil {
		return nil, err
	}

	next := &entity.ChecklistTemplate{
		ID:          uuid.New().String(),
		BaseID:      template.BaseID,
		Version:     maxVersion + 1,
		Name:        template.Name,
		Description: template.Description,
		ClientID:    template.ClientID,
		IsActive:    true,
		CreatedBy:   userID,
	}
	if req.Name != nil {
		next.Name = *req.Name
	}
	if req.Description != nil {
		next.Description = *req.Description
	}
	questions := buildQuestions(next.ID, req.Questions)

	if err := s.repo.CreateVersion(ctx, template.ID, next, questions); err != nil {
		return nil, fmt.Errorf("创建模板新版本失败: %w", err)
	}
	next.Questions = questions
	return next, nil
}

// GetTemplate 查询模板详情（含题目，按序号排序）
func (s *TemplateService) GetTemplate(ctx context.Context, id string) (*entity.ChecklistTemplate, error) {
	return s.repo.FindWithQuestions(ctx, id)
}

// ListTemplates 查询模板列表
// clientID 非空时返回该客户的模板加全局模板。
func (s *TemplateService) ListTemplates(ctx context.Context, clientID string, activeOnly bool) ([]entity.ChecklistTemplate, error) {
	return s.repo.List(ctx, clientID, activeOnly)
}

// DeactivateTemplate 停用模板（历史报告不受影响）
func (s *TemplateService) DeactivateTemplate(ctx context.Context, id string) error {
	return s.repo.Deactivate(ctx, id)
}

// validateQuestions 校验模板题目定义
func validateQuestions(inputs []QuestionInput) error {
	if len(inputs) == 0 {
		return fmt.Errorf("%w: 模板至少要有一个问题", ErrInvalidQuestion)
	}
	seen := make(map[int]bool, len(inputs))
	for i, q := range inputs {
		if !entity.ValidAnswerType(q.AnswerType) {
			return fmt.Errorf("%w: 第%d题答案类型非法 %s", ErrInvalidQuestion, i+1, q.AnswerType)
		}
		if !entity.ValidSeverity(q.Severity) {
			return fmt.Errorf("%w: 第%d题严重级别非法 %s", ErrInvalidQuestion, i+1, q.Severity)
		}
		// 关键停机项必须有机器可判的答案
		if q.Severity == entity.SeverityCriticalStop &&
			q.AnswerType != entity.AnswerTypeYesNo && q.AnswerType != entity.AnswerTypeNumber {
			return fmt.Errorf("%w: 第%d题 CRITICAL_STOP 只能配 YES_NO 或 NUMBER", ErrInvalidQuestion, i+1)
		}
		if q.AnswerType != entity.AnswerTypeNumber && (q.MinValue != nil || q.MaxValue != nil) {
			return fmt.Errorf("%w: 第%d题只有 NUMBER 类型能配取值范围", ErrInvalidQuestion, i+1)
		}
		if q.MinValue != nil && q.MaxValue != nil && *q.MinValue > *q.MaxValue {
			return fmt.Errorf("%w: 第%d题取值范围下限大于上限", ErrInvalidQuestion, i+1)
		}
		if seen[q.OrderIndex] {
			return fmt.Errorf("%w: 题目序号 %d 重复", ErrInvalidQuestion, q.OrderIndex)
		}
		seen[q.OrderIndex] = true
	}
	return nil
}

// buildQuestions 把问题输入落成实体
func buildQuestions(templateID string, inputs []QuestionInput) []entity.ChecklistQuestion {
	questions := make([]entity.ChecklistQuestion, 0, len(inputs))
	for _, q := range inputs {
		questions = append(questions, entity.ChecklistQuestion{
			ID:               uuid.New().String(),
			TemplateID:       templateID,
			Text:             q.Text,
			AnswerType:       q.AnswerType,
			Severity:         q.Severity,
			OrderIndex:       q.OrderIndex,
			IsOptional:       q.IsOptional,
			RequiresEvidence: q.RequiresEvidence,
			MinValue:         q.MinValue,
			MaxValue:         q.MaxValue,
		})
	}
	return questions
}
