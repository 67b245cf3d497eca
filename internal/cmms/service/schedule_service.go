package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liftwise/liftwise/internal/cmms/entity"
	"github.com/liftwise/liftwise/internal/cmms/repository"
)

// ScheduleService 保养计划服务
// 到期判定是纯函数，只有完成保养会推进存储的到期标记。
type ScheduleService struct {
	repo          *repository.ScheduleRepository
	equipmentRepo *repository.EquipmentRepository
}

// NewScheduleService 创建保养计划服务
func NewScheduleService(repo *repository.ScheduleRepository, equipmentRepo *repository.EquipmentRepository) *ScheduleService {
	return &ScheduleService{repo: repo, equipmentRepo: equipmentRepo}
}

// CreateScheduleRequest 创建保养计划请求
type CreateScheduleRequest struct {
	EquipmentID    string  `json:"equipment_id" binding:"required"`
	TaskName       string  `json:"task_name" binding:"required"`
	Description    string  `json:"description"`
	FrequencyMode  string  `json:"frequency_mode" binding:"required"` // DAYS/HOURS
	FrequencyValue float64 `json:"frequency_value" binding:"required"`
}

// CreateSchedule 创建保养计划
// 频率配置在写入时校验，评估阶段不再出现配置错误。
func (s *ScheduleService) CreateSchedule(ctx context.Context, userID string, req *CreateScheduleRequest) (*entity.MaintenanceSchedule, error) {
	if err := validateFrequency(req.FrequencyMode, req.FrequencyValue); err != nil {
		return nil, err
	}

	eq, err := s.equipmentRepo.FindByID(ctx, req.EquipmentID)
	if err != nil {
		return nil, err
	}

	schedule := &entity.MaintenanceSchedule{
		ID:             uuid.New().String(),
		EquipmentID:    req.EquipmentID,
		TaskName:       req.TaskName,
		Description:    req.Description,
		FrequencyMode:  req.FrequencyMode,
		FrequencyValue: req.FrequencyValue,
		IsActive:       true,
		CreatedBy:      userID,
	}

	// 初始到期点从当前状态起算
	now := time.Now()
	switch req.FrequencyMode {
	case entity.FrequencyModeDays:
		due := now.Add(dayInterval(req.FrequencyValue))
		schedule.NextDueAt = &due
	case entity.FrequencyModeHours:
		due := eq.CurrentHours + req.FrequencyValue
		schedule.NextDueHours = &due
	}

	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, fmt.Errorf("创建保养计划失败: %w", err)
	}
	return schedule, nil
}

// UpdateScheduleRequest 更新保养计划请求
type UpdateScheduleRequest struct {
	TaskName       *string  `json:"task_name"`
	Description    *string  `json:"description"`
	FrequencyValue *float64 `json:"frequency_value"`
	IsActive       *bool    `json:"is_active"`
}

// UpdateSchedule 更新保养计划
func (s *ScheduleService) UpdateSchedule(ctx context.Context, id string, req *UpdateScheduleRequest) (*entity.MaintenanceSchedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FrequencyValue != nil {
		if err := validateFrequency(schedule.FrequencyMode, *req.FrequencyValue); err != nil {
			return nil, err
		}
		schedule.FrequencyValue = *req.FrequencyValue
	}
	if req.TaskName != nil {
		schedule.TaskName = *req.TaskName
	}
	if req.Description != nil {
		schedule.Description = *req.Description
	}
	if req.IsActive != nil {
		schedule.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// EvaluateResult 到期评估结果
type EvaluateResult struct {
	ScheduleID   string     `json:"schedule_id"`
	IsDue        bool       `json:"is_due"`
	DueAt        *time.Time `json:"due_at,omitempty"`
	DueHours     *float64   `json:"due_hours,omitempty"`
	CurrentHours float64    `json:"current_hours"`
}

// Evaluate 评估保养计划是否到期（纯读）
func (s *ScheduleService) Evaluate(ctx context.Context, id string) (*EvaluateResult, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	eq, err := s.equipmentRepo.FindByID(ctx, schedule.EquipmentID)
	if err != nil {
		return nil, err
	}

	return &EvaluateResult{
		ScheduleID:   schedule.ID,
		IsDue:        scheduleDue(schedule, time.Now(), eq.CurrentHours),
		DueAt:        schedule.NextDueAt,
		DueHours:     schedule.NextDueHours,
		CurrentHours: eq.CurrentHours,
	}, nil
}

// DueSchedules 扫描全部到期的有效保养计划（预防性工单的输入）
func (s *ScheduleService) DueSchedules(ctx context.Context) ([]entity.MaintenanceSchedule, error) {
	all, err := s.repo.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	due := make([]entity.MaintenanceSchedule, 0)
	for _, schedule := range all {
		hours := 0.0
		if schedule.Equipment != nil {
			hours = schedule.Equipment.CurrentHours
		}
		if scheduleDue(&schedule, now, hours) {
			due = append(due, schedule)
		}
	}
	return due, nil
}

// CompleteScheduleRequest 完成保养请求
type CompleteScheduleRequest struct {
	CompletedAt       time.Time `json:"completed_at" binding:"required"`
	HoursAtCompletion float64   `json:"hours_at_completion"` // HOURS 模式必填
}

// CompleteSchedule 完成保养并推进到期标记
// 推进在行锁事务中执行，对同一计划的并发完成请求串行化。
func (s *ScheduleService) CompleteSchedule(ctx context.Context, id string, req *CompleteScheduleRequest) (*entity.MaintenanceSchedule, error) {
	return s.repo.CompleteLocked(ctx, id, func(schedule *entity.MaintenanceSchedule) error {
		return advanceSchedule(schedule, req.CompletedAt, req.HoursAtCompletion)
	})
}

// ListSchedules 查询保养计划列表
func (s *ScheduleService) ListSchedules(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.MaintenanceSchedule, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

// GetSchedule 查询保养计划详情
func (s *ScheduleService) GetSchedule(ctx context.Context, id string) (*entity.MaintenanceSchedule, error) {
	return s.repo.FindByID(ctx, id)
}

// DeleteSchedule 删除保养计划
func (s *ScheduleService) DeleteSchedule(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// validateFrequency 校验频率配置
func validateFrequency(mode string, value float64) error {
	if !entity.ValidFrequencyMode(mode) {
		return fmt.Errorf("%w: 未知频率模式 %s", ErrInvalidSchedule, mode)
	}
	if value <= 0 {
		return fmt.Errorf("%w: 频率必须大于0", ErrInvalidSchedule)
	}
	return nil
}

// scheduleDue 到期判定（纯函数）
// 停用的计划永远不到期；DAYS 看日历时间，HOURS 看设备累计工时。
func scheduleDue(schedule *entity.MaintenanceSchedule, now time.Time, currentHours float64) bool {
	if !schedule.IsActive {
		return false
	}
	switch schedule.FrequencyMode {
	case entity.FrequencyModeDays:
		return schedule.NextDueAt != nil && !now.Before(*schedule.NextDueAt)
	case entity.FrequencyModeHours:
		return schedule.NextDueHours != nil && currentHours >= *schedule.NextDueHours
	}
	return false
}

// advanceSchedule 完成保养后推进到期标记
// DAYS 模式从 max(完成时间, 原到期时间) 起算，晚完成不会把拖欠的
// 间隔叠加进下一轮；HOURS 模式锚定完成时的实际工时，工时单调递增
// 没有歧义。
func advanceSchedule(schedule *entity.MaintenanceSchedule, completedAt time.Time, hoursAtCompletion float64) error {
	switch schedule.FrequencyMode {
	case entity.FrequencyModeDays:
		base := completedAt
		if schedule.NextDueAt != nil && schedule.NextDueAt.After(base) {
			base = *schedule.NextDueAt
		}
		next := base.Add(dayInterval(schedule.FrequencyValue))
		schedule.NextDueAt = &next
	case entity.FrequencyModeHours:
		next := hoursAtCompletion + schedule.FrequencyValue
		schedule.NextDueHours = &next
	default:
		return fmt.Errorf("%w: 未知频率模式 %s", ErrInvalidSchedule, schedule.FrequencyMode)
	}
	schedule.LastCompletedAt = &completedAt
	return nil
}

// dayInterval 把以天计的频率换算成时长
func dayInterval(days float64) time.Duration {
	return time.Duration(days * 24 * float64(time.Hour))
}
