package repository

import (
	"context"
	"errors"

	"github.com/liftwise/liftwise/internal/cmms/entity"
	"gorm.io/gorm"
)

// EquipmentRepository 设备仓库
type EquipmentRepository struct {
	db *gorm.DB
}

func NewEquipmentRepository(db *gorm.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

// FindAll 查询设备列表
func (r *EquipmentRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Equipment, int64, error) {
	var items []entity.Equipment
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Equipment{})

	if clientID := filters["client_id"]; clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("operational_status = ?", status)
	}
	if keyword := filters["keyword"]; keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("code ILIKE ? OR brand ILIKE ? OR model ILIKE ? OR serial_number ILIKE ?", like, like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找设备
func (r *EquipmentRepository) FindByID(ctx context.Context, id string) (*entity.Equipment, error) {
	var eq entity.Equipment
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&eq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &eq, nil
}

// Create 创建设备
func (r *EquipmentRepository) Create(ctx context.Context, eq *entity.Equipment) error {
	return r.db.WithContext(ctx).Create(eq).Error
}

// Update 更新设备
func (r *EquipmentRepository) Update(ctx context.Context, eq *entity.Equipment) error {
	return r.db.WithContext(ctx).Save(eq).Error
}

// Delete 删除设备
func (r *EquipmentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.Equipment{}, "id = ?", id).Error
}

// UpdateStatus 更新设备运行状态
func (r *EquipmentRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Equipment{}).
		Where("id = ?", id).
		Update("operational_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateHours 推进累计工时
// 条件里带上 current_hours <= ? 防止并发下工时倒退。
func (r *EquipmentRepository) UpdateHours(ctx context.Context, id string, hours float64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.Equipment{}).
		Where("id = ? AND current_hours <= ?", id, hours).
		Update("current_hours", hours)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
