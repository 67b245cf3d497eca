package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/liftwise/liftwise/internal/cmms/entity"
	"github.com/liftwise/liftwise/internal/cmms/repository"
)

// EquipmentService 叉车台账服务
type EquipmentService struct {
	repo *repository.EquipmentRepository
}

// NewEquipmentService 创建叉车台账服务
func NewEquipmentService(repo *repository.EquipmentRepository) *EquipmentService {
	return &EquipmentService{repo: repo}
}

// CreateEquipmentRequest 创建设备请求
type CreateEquipmentRequest struct {
	Code         string  `json:"code" binding:"required"`
	Brand        string  `json:"brand" binding:"required"`
	Model        string  `json:"model" binding:"required"`
	SerialNumber string  `json:"serial_number" binding:"required"`
	ClientID     *string `json:"client_id"`
	Location     string  `json:"location"`
	CurrentHours float64 `json:"current_hours"`
	Notes        string  `json:"notes"`
}

// CreateEquipment 登记设备
func (s *EquipmentService) CreateEquipment(ctx context.Context, req *CreateEquipmentRequest) (*entity.Equipment, error) {
	if req.CurrentHours < 0 {
		return nil, fmt.Errorf("工时不能为负")
	}

	eq := &entity.Equipment{
		ID:                uuid.New().String(),
		Code:              req.Code,
		Brand:             req.Brand,
		Model:             req.Model,
		SerialNumber:      req.SerialNumber,
		OperationalStatus: entity.EquipmentStatusOperational,
		CurrentHours:      req.CurrentHours,
		ClientID:          req.ClientID,
		Location:          req.Location,
		Notes:             req.Notes,
	}
	if err := s.repo.Create(ctx, eq); err != nil {
		return nil, fmt.Errorf("登记设备失败: %w", err)
	}
	return eq, nil
}

// UpdateEquipmentRequest 更新设备请求
type UpdateEquipmentRequest struct {
	Brand    *string `json:"brand"`
	Model    *string `json:"model"`
	ClientID *string `json:"client_id"`
	Location *string `json:"location"`
	Notes    *string `json:"notes"`
}

// UpdateEquipment 更新设备信息（工时和状态走专门接口）
func (s *EquipmentService) UpdateEquipment(ctx context.Context, id string, req *UpdateEquipmentRequest) (*entity.Equipment, error) {
	eq, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Brand != nil {
		eq.Brand = *req.Brand
	}
	if req.Model != nil {
		eq.Model = *req.Model
	}
	if req.ClientID != nil {
		eq.ClientID = req.ClientID
	}
	if req.Location != nil {
		eq.Location = *req.Location
	}
	if req.Notes != nil {
		eq.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, eq); err != nil {
		return nil, err
	}
	return eq, nil
}

// SetStatus 设置设备运行状态
func (s *EquipmentService) SetStatus(ctx context.Context, id, status string) error {
	if !entity.ValidEquipmentStatus(status) {
		return fmt.Errorf("未知设备状态: %s", status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// UpdateHours 上报设备累计工时
// 工时计单调递增，回退视为读数错误直接拒绝。
func (s *EquipmentService) UpdateHours(ctx context.Context, id string, hours float64) (*entity.Equipment, error) {
	eq, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if hours < eq.CurrentHours {
		return nil, fmt.Errorf("%w: 当前 %.2f, 上报 %.2f", ErrHoursRegression, eq.CurrentHours, hours)
	}

	updated, err := s.repo.UpdateHours(ctx, id, hours)
	if err != nil {
		return nil, err
	}
	if !updated {
		// 并发下被更大的读数抢先，按回退处理
		return nil, ErrHoursRegression
	}

	eq.CurrentHours = hours
	return eq, nil
}

// GetEquipment 查询设备详情
func (s *EquipmentService) GetEquipment(ctx context.Context, id string) (*entity.Equipment, error) {
	return s.repo.FindByID(ctx, id)
}

// ListEquipment 查询设备列表
func (s *EquipmentService) ListEquipment(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Equipment, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

// DeleteEquipment 删除设备
func (s *EquipmentService) DeleteEquipment(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
